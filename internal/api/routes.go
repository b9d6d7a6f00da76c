package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(handler *Handler) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/info", handler.Info)

		api.POST("/chat", handler.Chat)
		api.POST("/process", handler.Process)
		api.POST("/process/stream", handler.ProcessStream)
		api.POST("/process-batch", handler.ProcessBatch)
		api.POST("/session/reset/:caseId", handler.ResetSession)

		api.GET("/monitor/status", handler.MonitorStatus)
		api.GET("/monitor/logs", handler.MonitorLogs)

		api.GET("/cases", handler.ListCases)
		api.GET("/cases/:id", handler.GetCase)
		api.DELETE("/cases/:id", handler.DeleteCase)
		api.GET("/alerts", handler.ListAlerts)
		api.POST("/alerts/webhook", handler.ReceiveAlertManagerWebhook)
	}

	return r
}
