package collectors

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/monitor"
)

// StatusUpdater receives the status derived from the active alerts.
type StatusUpdater interface {
	Replace(status, responseTime string, logs []models.LogEntry) models.MonitorSnapshot
}

type AlertManagerCollector struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewAlertManagerCollector(baseURL string, logger *zap.Logger) *AlertManagerCollector {
	return &AlertManagerCollector{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// The v2 API reports the alert state under status.state; the webhook
// payload uses a plain status string.
type apiAlert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
	Fingerprint string            `json:"fingerprint"`
	Status      struct {
		State string `json:"state"`
	} `json:"status"`
}

// GetActiveAlerts returns the alerts Alertmanager reports as active.
func (a *AlertManagerCollector) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	url := fmt.Sprintf("%s/api/v2/alerts?active=true&silenced=false&inhibited=false", a.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alertmanager returned status %d", resp.StatusCode)
	}

	var raw []apiAlert
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	active := make([]models.Alert, 0, len(raw))
	for _, r := range raw {
		if r.Status.State != "" && r.Status.State != "active" {
			continue
		}
		active = append(active, models.Alert{
			Labels:      r.Labels,
			Annotations: r.Annotations,
			StartsAt:    r.StartsAt,
			EndsAt:      r.EndsAt,
			Fingerprint: r.Fingerprint,
			Status:      "firing",
		})
	}
	return active, nil
}

// Poll fetches active alerts every interval and applies them to state until
// ctx is done. A failed fetch leaves the state untouched.
func (a *AlertManagerCollector) Poll(ctx context.Context, interval time.Duration, state StatusUpdater) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("polling alertmanager", zap.String("url", a.baseURL), zap.Duration("interval", interval))
	for {
		a.pollOnce(ctx, state)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *AlertManagerCollector) pollOnce(ctx context.Context, state StatusUpdater) {
	alerts, err := a.GetActiveAlerts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("alertmanager poll failed", zap.Error(err))
		}
		return
	}
	status, logs := Summarize(alerts)
	snap := state.Replace(status, "N/A", logs)
	a.logger.Debug("alertmanager poll applied",
		zap.String("status", status),
		zap.Int("firing", len(logs)),
		zap.Bool("healthy", snap.Healthy))
}

// Summarize derives a monitor status and log entries from alerts. Only
// firing alerts count; their entries are ordered most recent first. With
// nothing firing the status is the success literal and there are no logs.
func Summarize(alerts []models.Alert) (string, []models.LogEntry) {
	var firing []models.Alert
	for _, alert := range alerts {
		if alert.IsFiring() {
			firing = append(firing, alert)
		}
	}
	if len(firing) == 0 {
		return monitor.SuccessStatus, nil
	}

	sort.SliceStable(firing, func(i, j int) bool {
		return firing[i].StartsAt.After(firing[j].StartsAt)
	})

	logs := make([]models.LogEntry, 0, len(firing))
	for i := range firing {
		logs = append(logs, firing[i].ToLogEntry())
	}

	noun := "alerts"
	if len(firing) == 1 {
		noun = "alert"
	}
	return fmt.Sprintf("%d %s firing", len(firing), noun), logs
}
