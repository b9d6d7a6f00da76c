package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/config"
)

const (
	placeholderToken     = "your-apifox-token-here"
	placeholderProjectID = "your-project-id-here"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// FaultReport is the payload of a fault document.
type FaultReport struct {
	Timestamp    string
	ErrorCode    string
	ErrorMessage string
	Latency      string
}

// FaultDocCreator records incidents as documents in an API documentation
// workspace.
type FaultDocCreator struct {
	cfg    config.FaultDocConfig
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewFaultDocCreator(cfg config.FaultDocConfig, logger *zap.Logger) *FaultDocCreator {
	return &FaultDocCreator{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Configured reports whether real credentials have been set.
func (c *FaultDocCreator) Configured() bool {
	return c.cfg.APIToken != "" && !strings.Contains(c.cfg.APIToken, placeholderToken) &&
		c.cfg.ProjectID != "" && !strings.Contains(c.cfg.ProjectID, placeholderProjectID)
}

type docResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Create files a fault document and returns its identifier. On any failure
// the identifier is derived from the error code and the current time.
func (c *FaultDocCreator) Create(ctx context.Context, report FaultReport) Result {
	c.logger.Info("creating fault document",
		zap.String("timestamp", report.Timestamp),
		zap.String("error_code", report.ErrorCode),
		zap.String("error_msg", report.ErrorMessage),
		zap.String("latency", report.Latency),
	)

	if !c.Configured() {
		docID := "DOC_" + uuid.NewString()[:8]
		c.logger.Warn("fault doc API not configured, simulating",
			zap.String("doc_id", docID),
			zap.String("error_code", report.ErrorCode),
		)
		return simulated(docID)
	}

	fallback := c.fallbackID(report.ErrorCode)

	endpoint := fmt.Sprintf("%s/api/v1/doc?locale=%s",
		strings.TrimRight(c.cfg.APIURL, "/"), url.QueryEscape(c.locale()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(c.form(report).Encode()))
	if err != nil {
		return failed(fallback, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-project-id", c.cfg.ProjectID)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("error creating fault document", zap.Error(err))
		return failed(fallback, fmt.Errorf("failed to create fault document: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(fallback, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("fault doc API rejected document",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return failed(fallback, fmt.Errorf("fault doc API returned status %d", resp.StatusCode))
	}

	var parsed docResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failed(fallback, fmt.Errorf("failed to decode response: %w", err))
	}
	id := rawID(parsed.Data.ID)
	if !parsed.Success || id == "" {
		return failed(fallback, fmt.Errorf("fault doc API response carried no document id"))
	}

	c.logger.Info("fault document created", zap.String("doc_id", id))
	return delivered(id)
}

func (c *FaultDocCreator) locale() string {
	if c.cfg.Locale == "" {
		return "zh-CN"
	}
	return c.cfg.Locale
}

func (c *FaultDocCreator) fallbackID(errorCode string) string {
	return "DOC_" + c.now().Format("20060102_150405") + "_" + nonAlnum.ReplaceAllString(errorCode, "_")
}

func (c *FaultDocCreator) form(report FaultReport) url.Values {
	form := url.Values{}
	form.Set("name", "[Fault record] "+c.now().Format("2006-01-02 15:04:05"))
	if strings.TrimSpace(c.cfg.ModuleID) != "" {
		form.Set("moduleId", c.cfg.ModuleID)
	}
	form.Set("content", faultMarkdown(report))
	if strings.TrimSpace(c.cfg.FolderID) != "" {
		form.Set("folderId", c.cfg.FolderID)
	}
	return form
}

func faultMarkdown(report FaultReport) string {
	msg := report.ErrorMessage
	if msg == "" {
		msg = "N/A"
	}
	var b strings.Builder
	b.WriteString("# Fault record\n\n")
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Time**: %s\n", report.Timestamp)
	fmt.Fprintf(&b, "- **Error code**: %s\n", report.ErrorCode)
	fmt.Fprintf(&b, "- **Latency**: %s\n\n", report.Latency)
	b.WriteString("## Details\n")
	b.WriteString(msg + "\n\n")
	b.WriteString("## Status\n")
	b.WriteString("- [ ] Acknowledged\n- [ ] In progress\n- [ ] Resolved\n\n")
	b.WriteString("## Notes\n")
	b.WriteString("Generated automatically by the monitor agent.\n")
	return b.String()
}

// rawID accepts both numeric and string document ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
