package handlers

import (
	"net/http"

	"github.com/dom/wedge-builds/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	list, err := h.notificationService.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "notifications.List", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var in service.AddNotificationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.notificationService.Add(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, h.logger, "notifications.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.Remove(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "notifications.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
