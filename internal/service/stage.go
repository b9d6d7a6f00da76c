package service

import (
	"time"

	"go.uber.org/zap"
)

// Stage is the position of a request in its processing cycle.
type Stage int

const (
	StageReceived Stage = iota
	StageStatusUpdated
	StageAlertEvaluated
	StageSessionResolved
	StagePromptBuilt
	StageStreaming
	StageComplete
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "RECEIVED"
	case StageStatusUpdated:
		return "STATUS_UPDATED"
	case StageAlertEvaluated:
		return "ALERT_EVALUATED"
	case StageSessionResolved:
		return "SESSION_RESOLVED"
	case StagePromptBuilt:
		return "PROMPT_BUILT"
	case StageStreaming:
		return "STREAMING"
	case StageComplete:
		return "COMPLETE"
	case StageFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// tracker follows one request through its stages.
type tracker struct {
	stage   Stage
	started time.Time
	logger  *zap.Logger
}

func newTracker(logger *zap.Logger) *tracker {
	return &tracker{stage: StageReceived, started: time.Now(), logger: logger}
}

func (t *tracker) advance(s Stage) {
	if t.stage.Terminal() {
		return
	}
	t.stage = s
	t.logger.Debug("request stage", zap.Stringer("stage", s))
}

func (t *tracker) fail(err error) {
	if t.stage.Terminal() {
		return
	}
	t.logger.Error("request failed",
		zap.Stringer("stage", t.stage),
		zap.Duration("elapsed", time.Since(t.started)),
		zap.Error(err),
	)
	t.stage = StageFailed
}

func (t *tracker) complete() {
	if t.stage.Terminal() {
		return
	}
	t.stage = StageComplete
	t.logger.Info("request completed", zap.Duration("elapsed", time.Since(t.started)))
}
