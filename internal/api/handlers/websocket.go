package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/blinko/backend/internal/game"
	"github.com/blinko/backend/internal/ws"
)

// HandleRoundWebSocket streams the session's round events.
func HandleRoundWebSocket(hub *ws.Hub, m *game.Manager) gin.HandlerFunc {
	return ws.HandleWebSocket(hub, m)
}
