package handlers

import (
	"net/http"

	"github.com/dom/wedge-builds/internal/api/middleware"
	"github.com/dom/wedge-builds/internal/service"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	logger         *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, logger: logger}
}

// GetProfile returns the current user with their build statistics
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "profile.GetProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
