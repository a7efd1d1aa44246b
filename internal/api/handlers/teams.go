package handlers

import (
	"net/http"

	"github.com/dom/wedge-builds/internal/service"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teamService *service.TeamService
	logger      *zap.Logger
}

func NewTeamHandler(teamService *service.TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

func (h *TeamHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var in service.EvaluateTeamInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.teamService.Evaluate(in)
	if err != nil {
		writeError(w, h.logger, "teams.Evaluate", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
