package collectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/monitor"
)

const activeAlerts = `[
  {
    "labels": {"alertname": "HighLatency", "severity": "warning", "service": "checkout"},
    "annotations": {"summary": "p99 above 2s"},
    "startsAt": "2025-03-04T11:00:00Z",
    "fingerprint": "a1",
    "status": {"state": "active", "silencedBy": [], "inhibitedBy": []}
  },
  {
    "labels": {"alertname": "ErrorRate", "severity": "critical", "instance": "10.0.0.7:8080"},
    "annotations": {},
    "startsAt": "2025-03-04T11:05:00Z",
    "fingerprint": "b2",
    "status": {"state": "active"}
  },
  {
    "labels": {"alertname": "Muted"},
    "startsAt": "2025-03-04T11:06:00Z",
    "status": {"state": "suppressed"}
  }
]`

func TestGetActiveAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/alerts", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(activeAlerts))
	}))
	defer srv.Close()

	c := NewAlertManagerCollector(srv.URL+"/", zap.NewNop())
	alerts, err := c.GetActiveAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "HighLatency", alerts[0].GetAlertName())
	assert.True(t, alerts[0].IsFiring())
	assert.Equal(t, "b2", alerts[1].Fingerprint)
}

func TestGetActiveAlertsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAlertManagerCollector(srv.URL, zap.NewNop()).GetActiveAlerts(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

func TestSummarize(t *testing.T) {
	base := time.Date(2025, 3, 4, 11, 0, 0, 0, time.UTC)

	status, logs := Summarize(nil)
	assert.Equal(t, monitor.SuccessStatus, status)
	assert.Nil(t, logs)

	status, logs = Summarize([]models.Alert{{Status: "resolved"}})
	assert.Equal(t, monitor.SuccessStatus, status)
	assert.Nil(t, logs)

	status, logs = Summarize([]models.Alert{
		{Status: "firing", Labels: map[string]string{"alertname": "Old", "severity": "warning"}, StartsAt: base},
		{Status: "resolved", StartsAt: base.Add(time.Hour)},
		{Status: "firing", Labels: map[string]string{"alertname": "New", "severity": "critical", "job": "api"}, StartsAt: base.Add(5 * time.Minute)},
	})
	assert.Equal(t, "2 alerts firing", status)
	assert.Equal(t, []models.LogEntry{
		{Timestamp: "2025-03-04 11:05:00", Status: "critical", Message: "api: New"},
		{Timestamp: "2025-03-04 11:00:00", Status: "warning", Message: "Old"},
	}, logs)

	status, _ = Summarize([]models.Alert{{Status: "firing"}})
	assert.Equal(t, "1 alert firing", status)
}

type recordingState struct {
	mu      sync.Mutex
	updates []string
}

func (r *recordingState) Replace(status, responseTime string, logs []models.LogEntry) models.MonitorSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, status)
	return models.MonitorSnapshot{Status: status}
}

func (r *recordingState) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func TestPollAppliesAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(activeAlerts))
	}))
	defer srv.Close()

	state := &recordingState{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewAlertManagerCollector(srv.URL, zap.NewNop()).Poll(ctx, 10*time.Millisecond, state)
		close(done)
	}()

	require.Eventually(t, func() bool { return state.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	state.mu.Lock()
	defer state.mu.Unlock()
	assert.Equal(t, "2 alerts firing", state.updates[0])
}

func TestPollSkipsFailedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	state := &recordingState{}
	c := NewAlertManagerCollector(srv.URL, zap.NewNop())
	c.pollOnce(context.Background(), state)
	assert.Equal(t, 0, state.count())
}

func TestRepeatedPollsDoNotDuplicateLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(activeAlerts))
	}))
	defer srv.Close()

	state := monitor.NewState(monitor.Options{}, zap.NewNop())
	c := NewAlertManagerCollector(srv.URL, zap.NewNop())
	c.pollOnce(context.Background(), state)
	first := state.RecentLogs()
	require.Len(t, first, 2)

	for i := 0; i < 4; i++ {
		c.pollOnce(context.Background(), state)
	}
	assert.Equal(t, first, state.RecentLogs())
	assert.Equal(t, 2, state.Snapshot().ErrorCount)
}
