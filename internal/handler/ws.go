package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"yochat/internal/realtime"
)

type WSHandler struct {
	hub      *realtime.Hub
	upgrader *websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:      hub,
		upgrader: realtime.NewUpgrader(allowedOrigins),
	}
}

// Connect handles GET /ws
// Browsers cannot set headers on the upgrade request, so the token may come from ?token=.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Printf("[WS] Upgrade failed: user=%d err=%v", userID, err)
		return
	}

	h.hub.Serve(conn, userID)
}
