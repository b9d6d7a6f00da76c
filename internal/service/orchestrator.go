package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/monitor"
	"github.com/emirozbir/monitor-agent/internal/notify"
	"github.com/emirozbir/monitor-agent/internal/stream"
)

// DefaultSessionID keys the session used by plain chat.
const DefaultSessionID = "default"

const (
	errorReplyPrefix = "Sorry, an error occurred while processing your request: "
	noReply          = "Sorry, I can't answer this question right now. Please try again later."
)

// ErrMissingQuery rejects requests without a user query.
var ErrMissingQuery = errors.New("query is required")

// ErrMissingCaseID rejects cases without a case id.
var ErrMissingCaseID = errors.New("case_id is required")

// Alerter fires the alert side effects for a case.
type Alerter interface {
	Fire(ctx context.Context, req *models.CaseRequest) models.ActionResult
}

// Sessions resolves and resets per-case engines.
type Sessions interface {
	Resolve(caseID string) (agent.Engine, error)
	Reset(caseID string) bool
}

// Recorder persists finished cases.
type Recorder interface {
	RecordCase(ctx context.Context, req *models.CaseRequest, result models.CaseResult) error
}

type Deps struct {
	State       *monitor.State
	Alerter     Alerter
	Gate        *notify.IncidentGate
	Sessions    Sessions
	Multiplexer *stream.Multiplexer
	// Recorder is optional.
	Recorder      Recorder
	StreamOptions agent.StreamOptions
}

// Orchestrator runs the request cycle: update the monitor state, alert if
// needed, resolve the session, build the prompt and run the engine.
type Orchestrator struct {
	state    *monitor.State
	alerter  Alerter
	gate     *notify.IncidentGate
	sessions Sessions
	mux      *stream.Multiplexer
	recorder Recorder
	opts     agent.StreamOptions
	logger   *zap.Logger

	streams sync.WaitGroup
}

func NewOrchestrator(deps Deps, logger *zap.Logger) *Orchestrator {
	if deps.Gate == nil {
		deps.Gate = notify.NewIncidentGate(notify.EveryRequest)
	}
	if deps.Multiplexer == nil {
		deps.Multiplexer = stream.NewMultiplexer(logger)
	}
	if deps.StreamOptions.EventTypes == nil {
		deps.StreamOptions = agent.DefaultStreamOptions()
	}
	return &Orchestrator{
		state:    deps.State,
		alerter:  deps.Alerter,
		gate:     deps.Gate,
		sessions: deps.Sessions,
		mux:      deps.Multiplexer,
		recorder: deps.Recorder,
		opts:     deps.StreamOptions,
		logger:   logger,
	}
}

// errorReply is the user-facing reply for a failed request.
func errorReply(err error) string {
	return errorReplyPrefix + err.Error()
}

func validate(req *models.CaseRequest) error {
	if strings.TrimSpace(req.UserQuery) == "" {
		return ErrMissingQuery
	}
	if strings.TrimSpace(req.CaseID) == "" {
		return ErrMissingCaseID
	}
	return nil
}

// prepare runs every step up to the engine call. The returned action is
// set whenever an alert fired, even if a later step failed.
func (o *Orchestrator) prepare(ctx context.Context, t *tracker, req *models.CaseRequest) (*models.ActionResult, agent.Engine, string, error) {
	o.state.Update(req.APIStatus, req.APIResponseTime, req.MonitorLog)
	t.advance(StageStatusUpdated)

	var action *models.ActionResult
	if monitor.NeedsAlert(req.APIStatus) {
		if o.gate.Admit(req) {
			res := o.alerter.Fire(ctx, req)
			action = &res
		} else {
			o.logger.Info("alert suppressed for ongoing incident",
				zap.String("case_id", req.CaseID),
				zap.String("status", req.APIStatus),
			)
		}
	} else {
		o.gate.Resolve()
	}
	t.advance(StageAlertEvaluated)

	engine, err := o.sessions.Resolve(req.CaseID)
	if err != nil {
		return action, nil, "", err
	}
	t.advance(StageSessionResolved)

	prompt := BuildPrompt(req)
	t.advance(StagePromptBuilt)

	return action, engine, prompt, nil
}

// Process handles one case and blocks for the final reply. Only a missing
// query is returned as an error; every other failure becomes an apology in
// the reply.
func (o *Orchestrator) Process(ctx context.Context, req *models.CaseRequest) (result models.CaseResult, err error) {
	if err := validate(req); err != nil {
		return models.CaseResult{}, err
	}

	logger := o.logger.With(zap.String("case_id", req.CaseID))
	logger.Info("processing case",
		zap.String("query", req.UserQuery),
		zap.String("api_status", req.APIStatus),
	)
	t := newTracker(logger)

	var action *models.ActionResult
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			t.fail(perr)
			result = models.CaseResult{CaseID: req.CaseID, Reply: errorReply(perr), ActionResult: action}
			err = nil
		}
		o.record(context.WithoutCancel(ctx), req, result)
	}()

	action, engine, prompt, perr := o.prepare(ctx, t, req)
	if perr != nil {
		t.fail(perr)
		return models.CaseResult{CaseID: req.CaseID, Reply: errorReply(perr), ActionResult: action}, nil
	}

	t.advance(StageStreaming)
	reply, cerr := engine.Call(ctx, prompt)
	switch {
	case cerr != nil:
		t.fail(cerr)
		reply = errorReply(cerr)
	case reply == "":
		reply = noReply
		t.complete()
	default:
		t.complete()
	}

	logger.Info("case processed", zap.Bool("alert_triggered", action != nil))
	return models.CaseResult{CaseID: req.CaseID, Reply: reply, ActionResult: action}, nil
}

// ProcessStream runs the same cycle as Process but streams the engine's
// output. Steps up to the prompt run before it returns; the engine runs on
// its own goroutine and the returned channel is closed when it finishes,
// fails or ctx is cancelled.
func (o *Orchestrator) ProcessStream(ctx context.Context, req *models.CaseRequest) (<-chan models.Frame, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	logger := o.logger.With(zap.String("case_id", req.CaseID), zap.Bool("stream", true))
	logger.Info("processing case", zap.String("query", req.UserQuery), zap.String("api_status", req.APIStatus))
	t := newTracker(logger)

	frames := make(chan models.Frame)
	emit := func(f models.Frame) error {
		select {
		case frames <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	o.streams.Add(1)
	go func() {
		var (
			action *models.ActionResult
			events agent.EventStream
			reply  strings.Builder
		)

		// Runs on every exit path: completion, failure, cancellation.
		defer func() {
			if r := recover(); r != nil {
				perr := fmt.Errorf("panic: %v", r)
				t.fail(perr)
				_ = emit(models.Frame{Kind: models.FrameContent, Data: encodeReply(errorReply(perr))})
			}
			if events != nil {
				_ = events.Close()
			}
			close(frames)
			o.record(context.WithoutCancel(ctx), req, models.CaseResult{
				CaseID:       req.CaseID,
				Reply:        reply.String(),
				ActionResult: action,
			})
			o.streams.Done()
		}()

		failWith := func(err error) {
			t.fail(err)
			msg := errorReply(err)
			reply.WriteString(msg)
			_ = emit(models.Frame{Kind: models.FrameContent, Data: encodeReply(msg)})
		}

		var (
			engine agent.Engine
			prompt string
			err    error
		)
		action, engine, prompt, err = o.prepare(ctx, t, req)
		if err != nil {
			failWith(err)
			return
		}

		t.advance(StageStreaming)
		events, err = engine.Stream(ctx, prompt, o.opts)
		if err != nil {
			failWith(err)
			return
		}

		err = o.mux.Translate(ctx, events, func(f models.Frame) error {
			if f.Kind == models.FrameContent {
				reply.WriteString(decodeReply(f.Data))
			}
			return emit(f)
		})
		switch {
		case ctx.Err() != nil:
			t.fail(ctx.Err())
		case err != nil:
			failWith(err)
		default:
			t.complete()
		}
	}()

	return frames, nil
}

// Chat answers a bare query in the default session.
func (o *Orchestrator) Chat(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrMissingQuery
	}

	engine, err := o.sessions.Resolve(DefaultSessionID)
	if err != nil {
		return errorReply(err), nil
	}
	reply, err := engine.Call(ctx, query)
	if err != nil {
		o.logger.Error("chat failed", zap.Error(err))
		return errorReply(err), nil
	}
	if reply == "" {
		return noReply, nil
	}
	return reply, nil
}

// ResetSession drops the session for caseID.
func (o *Orchestrator) ResetSession(caseID string) bool {
	return o.sessions.Reset(caseID)
}

// State returns the monitor state the orchestrator updates.
func (o *Orchestrator) State() *monitor.State {
	return o.state
}

func (o *Orchestrator) Snapshot() models.MonitorSnapshot {
	return o.state.Snapshot()
}

func (o *Orchestrator) RecentLogs() []models.LogEntry {
	return o.state.RecentLogs()
}

// Wait blocks until every in-flight stream has finished.
func (o *Orchestrator) Wait() {
	o.streams.Wait()
}

func (o *Orchestrator) record(ctx context.Context, req *models.CaseRequest, result models.CaseResult) {
	if o.recorder == nil || result.CaseID == "" && result.Reply == "" {
		return
	}
	if err := o.recorder.RecordCase(ctx, req, result); err != nil {
		o.logger.Warn("failed to record case", zap.String("case_id", req.CaseID), zap.Error(err))
	}
}

func encodeReply(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeReply(data string) string {
	var s string
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return data
	}
	return s
}
