package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/collectors"
	"github.com/emirozbir/monitor-agent/internal/models"
)

// ReceiveAlertManagerWebhook feeds an Alertmanager payload into the monitor
// state. Firing alerts become log entries, most recent first. No agent turn
// runs and no notification is sent.
func (h *Handler) ReceiveAlertManagerWebhook(c *gin.Context) {
	var webhook models.AlertManagerWebhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		h.logger.Error("failed to bind webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload: " + err.Error()})
		return
	}

	h.logger.Info("received alertmanager webhook",
		zap.String("receiver", webhook.Receiver),
		zap.String("status", webhook.Status),
		zap.Int("alert_count", len(webhook.Alerts)))

	status, logs := collectors.Summarize(webhook.Alerts)
	snapshot := h.state.Replace(status, "N/A", logs)

	c.JSON(http.StatusOK, models.WebhookIngestResponse{
		Received: len(webhook.Alerts),
		Firing:   len(logs),
		Status:   status,
		Snapshot: snapshot,
	})
}
