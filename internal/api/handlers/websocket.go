package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cueladder/backend/internal/ws"
)

// HandleLadderWebSocket upgrades the connection and streams ladder events.
func HandleLadderWebSocket(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		mid, ok := memberID(c)
		if !ok {
			return
		}
		hub.ServeWS(c.Writer, c.Request, mid)
	}
}
