package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/wedge-builds/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey      contextKey = "userID"
	DisplayNameKey contextKey = "displayName"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// Auth rejects requests without a valid bearer token.
func Auth(auth TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.Debug("missing or malformed authorization header", zap.String("path", r.URL.Path))
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Debug("token validation failed", zap.Error(err))
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth identifies the caller when a valid bearer token is sent
// and lets anonymous requests through unchanged.
func OptionalAuth(auth TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := auth.ValidateToken(token); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

func withClaims(ctx context.Context, claims *service.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, DisplayNameKey, claims.DisplayName)
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetDisplayName(ctx context.Context) string {
	name, _ := ctx.Value(DisplayNameKey).(string)
	return name
}
