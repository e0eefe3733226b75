package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
)

type SessionServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type WSHandler struct {
	sessions SessionServer
}

func NewWSHandler(sessions SessionServer) *WSHandler {
	return &WSHandler{sessions: sessions}
}

// Connect godoc
// @Summary  Open the realtime notification stream
// @Tags     notifications
// @Param    token query string false "JWT, when the Authorization header cannot be set"
// @Success  101
// @Router   /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// The upgrader writes its own error response on failure.
	if err := h.sessions.ServeWS(c.Writer, c.Request, userID); err != nil {
		log.Printf("[WS] upgrade failed for user %s: %v", userID, err)
	}
}
