package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/models"
)

// ChatAlerter sends a chat notification.
type ChatAlerter interface {
	Notify(ctx context.Context, alert ChatAlert) Result
}

// FaultRecorder files a fault document.
type FaultRecorder interface {
	Create(ctx context.Context, report FaultReport) Result
}

// Dispatcher drives both alert side effects for one case. It never fails and
// does not de-duplicate: every Fire call attempts both notifiers once.
type Dispatcher struct {
	chat   ChatAlerter
	faults FaultRecorder
	logger *zap.Logger
}

func NewDispatcher(chat ChatAlerter, faults FaultRecorder, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		chat:   chat,
		faults: faults,
		logger: logger,
	}
}

// ErrorContext extracts the message and time of the latest log entry,
// falling back to the response time and "N/A" when the log is empty.
func ErrorContext(req *models.CaseRequest) (msg, ts string) {
	if latest, ok := req.Latest(); ok {
		return latest.Message, latest.Timestamp
	}
	return req.APIResponseTime, "N/A"
}

// Fire notifies the chat channel and records a fault document.
func (d *Dispatcher) Fire(ctx context.Context, req *models.CaseRequest) models.ActionResult {
	errorMsg, errorTime := ErrorContext(req)

	d.logger.Warn("firing alert",
		zap.String("case_id", req.CaseID),
		zap.String("status", req.APIStatus),
		zap.String("error_time", errorTime),
	)

	chat := d.call("chat", func() Result {
		return d.chat.Notify(ctx, ChatAlert{
			Timestamp: errorTime,
			ErrorCode: req.APIStatus,
			Latency:   req.APIResponseTime,
		})
	})
	doc := d.call("fault_doc", func() Result {
		return d.faults.Create(ctx, FaultReport{
			Timestamp:    errorTime,
			ErrorCode:    req.APIStatus,
			ErrorMessage: errorMsg,
			Latency:      req.APIResponseTime,
		})
	})

	return models.ActionResult{
		ChatNotifyStatus: chat.Value,
		FaultDocID:       doc.Value,
	}
}

// call runs one notifier and turns a panic into a failed result so the
// other notifier still runs.
func (d *Dispatcher) call(name string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed("", fmt.Errorf("%s notifier panicked: %v", name, r))
		}
		switch res.Outcome {
		case Delivered:
			d.logger.Info("notifier delivered", zap.String("notifier", name), zap.String("value", res.Value))
		case Simulated:
			d.logger.Info("notifier simulated", zap.String("notifier", name), zap.String("value", res.Value))
		case Failed:
			d.logger.Warn("notifier failed", zap.String("notifier", name), zap.String("value", res.Value), zap.Error(res.Reason))
		}
	}()
	return fn()
}
