package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/models"
)

// Retention decides what happens to the log buffer when an update carries logs.
type Retention string

const (
	// RetainAppend keeps previous entries and appends the new ones.
	RetainAppend Retention = "append"
	// RetainReplace keeps only the entries of the latest update.
	RetainReplace Retention = "replace"
)

// ParseRetention maps a config value onto a Retention. Empty means append.
func ParseRetention(s string) (Retention, error) {
	switch Retention(s) {
	case "", RetainAppend:
		return RetainAppend, nil
	case RetainReplace:
		return RetainReplace, nil
	default:
		return "", fmt.Errorf("unknown log retention: %s", s)
	}
}

type Options struct {
	Retention Retention
	// MaxLogs caps the buffer, dropping the oldest entries. Zero is unbounded.
	MaxLogs int
}

// State holds the latest health snapshot and the monitor log buffer. It is
// safe for concurrent use; one instance is shared by every request.
type State struct {
	snapshot atomic.Pointer[models.MonitorSnapshot]

	mu   sync.Mutex
	logs []models.LogEntry

	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewState(opts Options, logger *zap.Logger) *State {
	if opts.Retention == "" {
		opts.Retention = RetainAppend
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Update publishes a new snapshot built from the arguments and applies logs
// to the buffer using the configured retention. A healthy status with no logs
// clears the buffer; an unhealthy status with no logs leaves it untouched.
func (s *State) Update(status, responseTime string, logs []models.LogEntry) models.MonitorSnapshot {
	return s.apply(status, responseTime, logs, false)
}

// Replace publishes a new snapshot and swaps the buffer for logs, whatever
// the configured retention. Sources that report their full current set of
// problems on every delivery use it, so repeats do not pile up.
func (s *State) Replace(status, responseTime string, logs []models.LogEntry) models.MonitorSnapshot {
	return s.apply(status, responseTime, logs, true)
}

func (s *State) apply(status, responseTime string, logs []models.LogEntry, swap bool) models.MonitorSnapshot {
	snap := &models.MonitorSnapshot{
		Status:        status,
		ResponseTime:  responseTime,
		Healthy:       IsHealthy(status),
		ErrorCount:    len(logs),
		LastCheckTime: s.now(),
	}

	s.mu.Lock()
	switch {
	case len(logs) > 0:
		if swap || s.opts.Retention == RetainReplace {
			s.logs = s.logs[:0]
		}
		s.logs = append(s.logs, logs...)
		if s.opts.MaxLogs > 0 && len(s.logs) > s.opts.MaxLogs {
			drop := len(s.logs) - s.opts.MaxLogs
			s.logs = append(s.logs[:0], s.logs[drop:]...)
		}
	case snap.Healthy, swap:
		s.logs = nil
	}
	buffered := len(s.logs)
	// Publishing under the buffer lock keeps snapshot and buffer in step.
	s.snapshot.Store(snap)
	s.mu.Unlock()

	s.logger.Debug("monitor state updated",
		zap.String("status", status),
		zap.String("response_time", responseTime),
		zap.Bool("healthy", snap.Healthy),
		zap.Int("error_count", snap.ErrorCount),
		zap.Int("buffered_logs", buffered),
	)

	return *snap
}

// Snapshot returns the latest published snapshot, or an "unknown" healthy
// snapshot if nothing has been published yet.
func (s *State) Snapshot() models.MonitorSnapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}
	return models.MonitorSnapshot{
		Status:       "unknown",
		ResponseTime: "N/A",
		Healthy:      true,
	}
}

// RecentLogs returns a copy of the log buffer.
func (s *State) RecentLogs() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}
