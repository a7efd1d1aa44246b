package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/wedge-builds/internal/domain"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies, draft imports included.
const maxBodyBytes = 5 << 20

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeError maps the domain error taxonomy onto HTTP statuses. Only
// unexpected failures are logged at error level.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrFormat):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: domain.ErrValidation.Error(), Fields: validation.Fields})
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	case domain.IsRetryable(err):
		logger.Warn("backend unavailable", zap.String("op", op), zap.Error(err))
		w.Header().Set("Retry-After", "1")
		writeMessage(w, http.StatusServiceUnavailable, "Service temporarily unavailable, retry shortly")
	default:
		logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
