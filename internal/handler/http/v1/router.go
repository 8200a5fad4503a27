package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// Поток событий проверяет токен из query сам
	api.GET("/ws/alerts", h.streamAlerts)

	protected := api.Group("", JWTAuthMiddleware(h.cfg.JWTSecret, h.logger))

	alerts := protected.Group("/alerts")
	{
		alerts.POST("", h.createAlert)
		alerts.GET("", h.listAlerts)
		alerts.GET("/:id", h.getAlert)
		alerts.PUT("/:id/status", h.updateAlertStatus)
		alerts.PUT("/:id/mark-done", h.markAlertDone)
		alerts.DELETE("/:id", h.deleteAlert)
	}

	responders := protected.Group("/responders")
	{
		responders.POST("/heartbeat", h.heartbeat)
		responders.GET("/:id", h.getResponder)
		responders.POST("/:id/accept", h.acceptAssignment)
		responders.POST("/:id/decline", h.declineAssignment)
	}
}
