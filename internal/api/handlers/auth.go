package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/wedge-builds/internal/api/middleware"
	"github.com/dom/wedge-builds/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

type RegisterRequest struct {
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type UserResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func toAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:          result.User.ID.String(),
			DisplayName: result.User.DisplayName,
		},
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Password == "" || req.DisplayName == "" {
		writeMessage(w, http.StatusBadRequest, "Password and display name are required")
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		if errors.Is(err, service.ErrDisplayNameExists) {
			writeMessage(w, http.StatusConflict, "Display name already exists")
			return
		}
		writeError(w, h.logger, "auth.Register", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.DisplayName == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Display name and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, h.logger, "auth.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		writeError(w, h.logger, "auth.Refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "auth.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:          user.ID.String(),
		DisplayName: user.DisplayName,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		writeError(w, h.logger, "auth.Logout", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
