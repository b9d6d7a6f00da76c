package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/models"
)

type fakeEngine struct {
	mu      sync.Mutex
	prompts []string

	reply  string
	err    error
	panics bool

	events    []agent.Event
	streamErr error
	block     bool
	stream    *fakeStream
}

func (f *fakeEngine) Call(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.panics {
		panic("engine exploded")
	}
	return f.reply, f.err
}

func (f *fakeEngine) Stream(ctx context.Context, prompt string, opts agent.StreamOptions) (agent.EventStream, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.stream = &fakeStream{ctx: ctx, events: f.events, err: f.streamErr, block: f.block}
	return f.stream, nil
}

type fakeStream struct {
	ctx    context.Context
	events []agent.Event
	pos    int
	err    error
	block  bool
	closed atomic.Bool
}

func (s *fakeStream) Next() bool {
	if s.pos < len(s.events) {
		s.pos++
		return true
	}
	if s.block {
		<-s.ctx.Done()
	}
	return false
}

func (s *fakeStream) Current() agent.Event { return s.events[s.pos-1] }
func (s *fakeStream) Err() error           { return s.err }

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeSessions struct {
	mu     sync.Mutex
	engine agent.Engine
	err    error
	keys   []string
	resets []string
}

func (f *fakeSessions) Resolve(caseID string) (agent.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, caseID)
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

func (f *fakeSessions) Reset(caseID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, caseID)
	return true
}

type fakeAlerter struct {
	mu    sync.Mutex
	fired []models.CaseRequest
}

func (f *fakeAlerter) Fire(ctx context.Context, req *models.CaseRequest) models.ActionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, *req)
	return models.ActionResult{ChatNotifyStatus: "Sent success", FaultDocID: "DOC_1"}
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fired)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []models.CaseResult
	fail    bool
}

func (f *fakeRecorder) RecordCase(ctx context.Context, req *models.CaseRequest, result models.CaseResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.results = append(f.results, result)
	return nil
}

func (f *fakeRecorder) all() []models.CaseResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CaseResult(nil), f.results...)
}

type recordingProgress struct {
	updates []string
	stopped bool
}

func (p *recordingProgress) Update(message string) { p.updates = append(p.updates, message) }
func (p *recordingProgress) Stop()                 { p.stopped = true }
