package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
)

type SocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, userID uint, role models.Role)
}

// WebSocketHandler upgrades an authenticated request onto the hub.
func WebSocketHandler(hub SocketHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := viewerFrom(c)
		hub.HandleWebSocket(c.Writer, c.Request, viewer.UserID, viewer.Role)
	}
}
