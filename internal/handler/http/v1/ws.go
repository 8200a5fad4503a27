package v1

import (
	"net/http"

	"github.com/DevanshVerma21/SafeNow/internal/broadcast"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// newUpgrader пустой список разрешает любой Origin
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// @Summary Subscribe to alert events
// @Description Upgrade to WebSocket and receive every alert event as a JSON text frame. The token is passed as a query parameter.
// @Tags Realtime
// @Param token query string true "JWT access token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /ws/alerts [get]
func (h *Handler) streamAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "streamAlerts")

	token := c.Query("token")
	if token == "" {
		log.Warn("WebSocket token missing")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}
	actor, err := ParseToken(token, h.cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Warn("Invalid WebSocket token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	broadcast.NewClient(h.hub, conn, actor.ID, h.logger).Serve()
	log.WithField("user_id", actor.ID).Info("WebSocket client connected")
}
