package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dom/wedge-builds/internal/api/middleware"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/feed"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type BuildHandler struct {
	buildService *service.BuildService
	logger       *zap.Logger
}

func NewBuildHandler(buildService *service.BuildService, logger *zap.Logger) *BuildHandler {
	return &BuildHandler{buildService: buildService, logger: logger}
}

// viewer returns the caller's id, or uuid.Nil for anonymous requests.
func viewer(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserID(r.Context())
	return id
}

func buildID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid build ID")
		return uuid.Nil, false
	}
	return id, true
}

// List serves the community feed: ?q=&element=&weaponType=&sort=&visibility=&limit=&offset=
func (h *BuildHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := service.ListBuildsInput{
		Visibility: service.ListPublic,
		Filters: feed.Filters{
			SearchQuery: q.Get("q"),
			Element:     q.Get("element"),
			WeaponType:  q.Get("weaponType"),
		},
		Sort: feed.SortNewest,
	}

	if v := q.Get("visibility"); v != "" {
		switch service.ListVisibility(v) {
		case service.ListPublic, service.ListAll:
			in.Visibility = service.ListVisibility(v)
		default:
			writeError(w, h.logger, "builds.List", domain.NewValidationError("visibility", "must be one of: public all"))
			return
		}
	}
	if s := q.Get("sort"); s != "" {
		if !feed.SortKey(s).IsValid() {
			writeError(w, h.logger, "builds.List", domain.NewValidationError("sort", "must be one of: newest oldest popular"))
			return
		}
		in.Sort = feed.SortKey(s)
	}

	var ok bool
	if in.Limit, ok = intParam(w, r, "limit", maxPageSize); !ok {
		return
	}
	if in.Offset, ok = intParam(w, r, "offset", 0); !ok {
		return
	}

	builds, err := h.buildService.List(r.Context(), viewer(r), in)
	if err != nil {
		writeError(w, h.logger, "builds.List", err)
		return
	}
	writeJSON(w, http.StatusOK, builds)
}

// intParam reads a non-negative integer query parameter, capped at max
// when max is positive.
func intParam(w http.ResponseWriter, r *http.Request, name string, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  domain.ErrValidation.Error(),
			Fields: map[string]string{name: "must be a non-negative integer"},
		})
		return 0, false
	}
	if max > 0 && n > max {
		n = max
	}
	return n, true
}

func (h *BuildHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var content domain.BuildContent
	if !decodeJSON(w, r, &content) {
		return
	}

	build, err := h.buildService.Create(r.Context(), userID, middleware.GetDisplayName(r.Context()), content)
	if err != nil {
		writeError(w, h.logger, "builds.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, build)
}

func (h *BuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := buildID(w, r)
	if !ok {
		return
	}

	build, err := h.buildService.Get(r.Context(), id, viewer(r))
	if err != nil {
		writeError(w, h.logger, "builds.Get", err)
		return
	}
	if build == nil {
		writeMessage(w, http.StatusNotFound, "Build not found")
		return
	}
	writeJSON(w, http.StatusOK, build)
}

func (h *BuildHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := buildID(w, r)
	if !ok {
		return
	}

	var patch domain.BuildPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	build, err := h.buildService.Update(r.Context(), id, userID, patch)
	if err != nil {
		writeError(w, h.logger, "builds.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, build)
}

// Delete answers 204 whether or not the build still existed.
func (h *BuildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := buildID(w, r)
	if !ok {
		return
	}

	err := h.buildService.Delete(r.Context(), id, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(w, h.logger, "builds.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upvote handles POST /builds/{id}/vote.
func (h *BuildHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, true)
}

// Retract handles DELETE /builds/{id}/vote.
func (h *BuildHandler) Retract(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, false)
}

func (h *BuildHandler) vote(w http.ResponseWriter, r *http.Request, upvote bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := buildID(w, r)
	if !ok {
		return
	}

	build, err := h.buildService.Vote(r.Context(), id, userID, upvote)
	if err != nil {
		writeError(w, h.logger, "builds.Vote", err)
		return
	}
	writeJSON(w, http.StatusOK, build)
}

// RecordView always answers 204; counting views is best effort.
func (h *BuildHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id, ok := buildID(w, r)
	if !ok {
		return
	}
	h.buildService.IncrementViews(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Mine lists the caller's builds of every visibility.
func (h *BuildHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sort := feed.SortKey(r.URL.Query().Get("sort"))
	builds, err := h.buildService.MyBuilds(r.Context(), userID, sort)
	if err != nil {
		writeError(w, h.logger, "builds.Mine", err)
		return
	}
	writeJSON(w, http.StatusOK, builds)
}
