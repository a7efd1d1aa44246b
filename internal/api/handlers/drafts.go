package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dom/wedge-builds/internal/api/middleware"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DraftHandler serves the caller's private drafts. The owner key is the
// authenticated user's id.
type DraftHandler struct {
	draftService *service.DraftService
	logger       *zap.Logger
}

func NewDraftHandler(draftService *service.DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{draftService: draftService, logger: logger}
}

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID.String(), true
}

func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	drafts, err := h.draftService.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "drafts.List", err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var content domain.BuildContent
	if !decodeJSON(w, r, &content) {
		return
	}
	draft, err := h.draftService.Create(r.Context(), ownerID, content)
	if err != nil {
		writeError(w, h.logger, "drafts.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	draft, err := h.draftService.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "drafts.Get", err)
		return
	}
	if draft == nil {
		writeMessage(w, http.StatusNotFound, "Draft not found")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var patch domain.BuildPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	draft, err := h.draftService.Update(r.Context(), ownerID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.logger, "drafts.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.draftService.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "drafts.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads every draft as a JSON array.
func (h *DraftHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	data, err := h.draftService.Export(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "drafts.Export", err)
		return
	}

	filename := fmt.Sprintf("wedge-drafts-%s.json", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces every draft with the JSON array in the request body.
func (h *DraftHandler) Import(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusRequestEntityTooLarge, "Import file too large")
		return
	}
	if err := h.draftService.Import(r.Context(), ownerID, data); err != nil {
		writeError(w, h.logger, "drafts.Import", err)
		return
	}

	drafts, err := h.draftService.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "drafts.Import", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(drafts)})
}
