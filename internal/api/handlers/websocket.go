package handlers

import (
	"net/http"

	"github.com/dom/wedge-builds/internal/service"
	"github.com/dom/wedge-builds/internal/websocket"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	upgrader    ws.Upgrader
	logger      *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" or an
// empty list accepts any origin.
func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, origins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		logger:      logger,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on upgrade requests
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
