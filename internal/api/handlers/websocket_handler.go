package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck-be/internal/auth"
	ws "github.com/taskdeck/taskdeck-be/internal/websocket"
)

// WebSocketHandler upgrades connections to a per-user event stream carrying
// task mutations, reminders and audit entries.
type WebSocketHandler struct {
	hub    *ws.Hub
	tokens *auth.TokenManager
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, tokens *auth.TokenManager) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. Browsers cannot set an
// Authorization header on websocket dials, so the token is accepted from
// the "token" query parameter as well.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := auth.ExtractBearer(r)
	if tokenStr == "" {
		tokenStr = r.URL.Query().Get("token")
	}

	claims, err := h.tokens.Verify(tokenStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
