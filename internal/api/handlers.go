package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/config"
	"github.com/emirozbir/monitor-agent/internal/database"
	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/monitor"
	"github.com/emirozbir/monitor-agent/internal/service"
)

const (
	ServiceName    = "Monitor Agent"
	ServiceVersion = "1.0.0"

	defaultPageSize = 50
	maxPageSize     = 500
)

// History is the read side of the case store.
type History interface {
	ListCases(ctx context.Context, caseID string, limit, offset int) ([]database.StoredCase, error)
	GetCase(ctx context.Context, id int64) (*database.StoredCase, error)
	ListAlerts(ctx context.Context, limit, offset int) ([]database.StoredAlert, error)
	DeleteCase(ctx context.Context, id int64) error
}

type Handler struct {
	orch    *service.Orchestrator
	state   *monitor.State
	history History
	batch   config.BatchConfig
	logger  *zap.Logger
}

// NewHandler wires the HTTP handlers. history may be nil, in which case the
// history endpoints answer 503.
func NewHandler(orch *service.Orchestrator, state *monitor.State, history History, batch config.BatchConfig, logger *zap.Logger) *Handler {
	return &Handler{
		orch:    orch,
		state:   state,
		history: history,
		batch:   batch,
		logger:  logger,
	}
}

type ChatRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.orch.Chat(c.Request.Context(), req.Query)
	if errors.Is(err, service.ErrMissingQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'query' is required"})
		return
	}
	if err != nil {
		h.logger.Error("chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) Process(c *gin.Context) {
	var req models.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orch.Process(c.Request.Context(), &req)
	if errors.Is(err, service.ErrMissingQuery) || errors.Is(err, service.ErrMissingCaseID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("case processing failed", zap.String("case_id", req.CaseID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessStream answers with server-sent events, one per frame, named by
// the frame kind. The stream ends when the orchestrator closes the channel;
// a client disconnect cancels the request context, which stops it.
func (h *Handler) ProcessStream(c *gin.Context) {
	var req models.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	frames, err := h.orch.ProcessStream(c.Request.Context(), &req)
	if errors.Is(err, service.ErrMissingQuery) || errors.Is(err, service.ErrMissingCaseID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	sent := 0
	for f := range frames {
		c.SSEvent(string(f.Kind), f.Data)
		c.Writer.Flush()
		sent++
	}

	h.logger.Info("stream closed", zap.String("case_id", req.CaseID), zap.Int("frames", sent))
}

func (h *Handler) ProcessBatch(c *gin.Context) {
	input := c.DefaultQuery("inputFile", h.batch.InputPath)
	output := c.DefaultQuery("outputFile", h.batch.OutputPath)

	h.logger.Info("batch processing request", zap.String("input", input), zap.String("output", output))

	_, stats, err := h.orch.RunBatch(c.Request.Context(), input, output, nil)
	if err != nil {
		h.logger.Error("batch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"inputFile":  input,
		"outputFile": output,
		"stats":      stats,
	})
}

func (h *Handler) ResetSession(c *gin.Context) {
	caseID := c.Param("caseId")
	if !h.orch.ResetSession(caseID) {
		h.logger.Debug("reset of unknown session", zap.String("case_id", caseID))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Session " + caseID + " has been reset",
	})
}

func (h *Handler) MonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Snapshot())
}

func (h *Handler) MonitorLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.RecentLogs())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"service": ServiceName,
	})
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        ServiceName,
		"version":     ServiceVersion,
		"description": "Customer service agent with API health monitoring and alerting",
		"endpoints": gin.H{
			"chat":           "POST /api/chat",
			"process":        "POST /api/process",
			"process-stream": "POST /api/process/stream",
			"process-batch":  "POST /api/process-batch",
			"session-reset":  "POST /api/session/reset/:caseId",
			"monitor-status": "GET /api/monitor/status",
			"monitor-logs":   "GET /api/monitor/logs",
			"cases":          "GET /api/cases",
			"case-delete":    "DELETE /api/cases/:id",
			"alerts":         "GET /api/alerts",
			"alert-webhook":  "POST /api/alerts/webhook",
			"health":         "GET /api/health",
		},
	})
}

func (h *Handler) ListCases(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	cases, err := h.history.ListCases(c.Request.Context(), c.Query("caseId"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list cases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *Handler) GetCase(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}

	stored, err := h.history.GetCase(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get case", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	c.JSON(http.StatusOK, stored)
}

// DeleteCase removes a stored case together with its alert record.
func (h *Handler) DeleteCase(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}

	ctx := c.Request.Context()
	stored, err := h.history.GetCase(ctx, id)
	if err != nil {
		h.logger.Error("failed to get case", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if err := h.history.DeleteCase(ctx, id); err != nil {
		h.logger.Error("failed to delete case", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("case deleted", zap.Int64("id", id), zap.String("case_id", stored.CaseID))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	alerts, err := h.history.ListAlerts(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// page reads limit and offset, answering 400 itself when they are invalid.
func page(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, 0, false
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return 0, 0, false
	}
	return limit, offset, true
}
