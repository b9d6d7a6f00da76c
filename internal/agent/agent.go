package agent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/llm"
	"github.com/emirozbir/monitor-agent/internal/ui"
)

const DefaultSystemPrompt = `You are the customer service monitor agent of the platform.

RESPONSIBILITIES:
1. Answer business questions from the knowledge base. Never make things up.
2. Keep track of the system status and notice API anomalies.
3. When asked about stability, always cite real monitor log data.

CONTENT RULES:
- Answer business questions only from the knowledge base (query_knowledge).
- If the knowledge base has no answer, say that no relevant information was found.
- Never answer "it is stable" without reading the monitor logs first.
- If there are recent errors, tell the user about them honestly.
- Stay polite, professional and concise.

TOOLS:
- query_knowledge: look up platform knowledge
- check_monitor_status: current monitor status
- get_monitor_logs: recent monitor log entries
- is_api_healthy: whether the API is healthy
- send_chat_alert, create_fault_doc: alerting is automatic, do not call these unless asked

WORKFLOW:
1. Decide whether the question is a business question or a stability question.
2. For business questions, use query_knowledge.
3. For stability questions, use get_monitor_logs.
4. Answer from what the tools returned.`

const summaryPrompt = "You have reached the maximum number of steps. Summarise what you found so far and answer the user's question without calling any more tools."

type Options struct {
	Name          string
	SystemPrompt  string
	MaxIterations int
	Progress      ui.ProgressReporter
}

// Agent is a ReAct-style conversational engine. It keeps the conversation
// history of one session; turns are serialized.
type Agent struct {
	name         string
	llmClient    llm.Client
	tools        *Toolkit
	systemPrompt string
	maxIters     int
	progress     ui.ProgressReporter
	logger       *zap.Logger

	mu     sync.Mutex
	memory []llm.Message
}

var _ Engine = (*Agent)(nil)

func NewAgent(client llm.Client, tools *Toolkit, opts Options, logger *zap.Logger) *Agent {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 10
	}
	if opts.Progress == nil {
		opts.Progress = &NoOpProgressReporter{}
	}
	if tools == nil {
		tools = NewToolkit(logger)
	}
	return &Agent{
		name:         opts.Name,
		llmClient:    client,
		tools:        tools,
		systemPrompt: opts.SystemPrompt,
		maxIters:     opts.MaxIterations,
		progress:     opts.Progress,
		logger:       logger.With(zap.String("agent", opts.Name)),
	}
}

// Call runs one turn and returns the final reply.
func (a *Agent) Call(ctx context.Context, prompt string) (string, error) {
	return a.run(ctx, prompt, StreamOptions{}, func(Event) error { return nil })
}

// Stream runs one turn in the background and returns its events. Closing the
// stream cancels the turn.
func (a *Agent) Stream(ctx context.Context, prompt string, opts StreamOptions) (EventStream, error) {
	return newChanStream(ctx, func(ctx context.Context, emit func(Event) error) error {
		_, err := a.run(ctx, prompt, opts, emit)
		return err
	}), nil
}

// Memory returns a copy of the conversation history.
func (a *Agent) Memory() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.memory))
	copy(out, a.memory)
	return out
}

func (a *Agent) run(ctx context.Context, prompt string, opts StreamOptions, emit func(Event) error) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// A turn that does not finish is rolled back so the history never ends
	// in an unanswered tool call.
	mark := len(a.memory)
	committed := false
	defer func() {
		if !committed {
			a.memory = a.memory[:mark]
		}
	}()

	a.memory = append(a.memory, llm.Message{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart(prompt)}})

	for iter := 0; ; iter++ {
		final := iter >= a.maxIters
		req := llm.Request{System: a.systemPrompt, Messages: a.memory}
		if final {
			req.Messages = withSummaryPrompt(a.memory)
			a.progress.Update("Summarising...")
		} else {
			req.Tools = a.tools.Definitions()
			a.progress.Update(fmt.Sprintf("Thinking (step %d)...", iter+1))
		}

		var (
			onDelta func(llm.Delta)
			emitErr error
		)
		if opts.Incremental && opts.wants(EventReasoning) {
			onDelta = func(d llm.Delta) {
				if emitErr == nil {
					emitErr = emit(Event{Type: EventReasoning, Message: deltaMessage(d)})
				}
			}
		}

		resp, err := a.llmClient.Generate(ctx, req, onDelta)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if emitErr != nil {
			return "", emitErr
		}

		calls := resp.ToolCalls()
		if final && len(calls) > 0 {
			resp = withoutToolCalls(resp)
			calls = nil
		}
		a.memory = append(a.memory, llm.Message{Role: llm.RoleAssistant, Parts: resp.Parts})

		done := len(calls) == 0
		if opts.wants(EventReasoning) && (!opts.Incremental || (done && opts.IncludeReasoningResult)) {
			if err := emit(Event{Type: EventReasoning, Message: responseMessage(resp), Last: done}); err != nil {
				return "", err
			}
		}

		if done {
			if opts.wants(EventOther) {
				if err := emit(Event{Type: EventOther, Message: responseMessage(resp), Last: true}); err != nil {
					return "", err
				}
			}
			committed = true
			a.logger.Info("turn completed", zap.Int("steps", iter+1))
			return resp.Text(), nil
		}

		results := make([]llm.Part, 0, len(calls))
		for _, call := range calls {
			a.progress.Update(fmt.Sprintf("Calling %s...", call.ToolName))
			out, isErr := a.tools.Execute(ctx, call.ToolName, call.Input)
			results = append(results, llm.ToolResultPart(call.ToolCallID, out, isErr))

			if opts.wants(EventToolResult) {
				ev := Event{
					Type:    EventToolResult,
					Message: Message{Blocks: []Block{ToolResultBlock(call.ToolName, TextBlock(out))}},
				}
				if err := emit(ev); err != nil {
					return "", err
				}
			}
		}
		a.memory = append(a.memory, llm.Message{Role: llm.RoleUser, Parts: results})

		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

func deltaMessage(d llm.Delta) Message {
	var m Message
	if d.Thinking != "" {
		m.Blocks = append(m.Blocks, ThinkingBlock(d.Thinking))
	}
	if d.Text != "" {
		m.Blocks = append(m.Blocks, TextBlock(d.Text))
	}
	return m
}

func responseMessage(resp *llm.Response) Message {
	var m Message
	for _, p := range resp.Parts {
		switch p.Kind {
		case llm.PartThinking:
			m.Blocks = append(m.Blocks, ThinkingBlock(p.Text))
		case llm.PartText:
			m.Blocks = append(m.Blocks, TextBlock(p.Text))
		}
	}
	return m
}

func withoutToolCalls(resp *llm.Response) *llm.Response {
	out := &llm.Response{StopReason: resp.StopReason}
	for _, p := range resp.Parts {
		if p.Kind != llm.PartToolCall {
			out.Parts = append(out.Parts, p)
		}
	}
	return out
}

// withSummaryPrompt appends the summary instruction to the last message
// without touching the stored history.
func withSummaryPrompt(memory []llm.Message) []llm.Message {
	msgs := make([]llm.Message, len(memory))
	copy(msgs, memory)
	last := msgs[len(msgs)-1]
	parts := make([]llm.Part, 0, len(last.Parts)+1)
	parts = append(parts, last.Parts...)
	if last.Role == llm.RoleUser {
		last.Parts = append(parts, llm.TextPart(summaryPrompt))
		msgs[len(msgs)-1] = last
		return msgs
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart(summaryPrompt)}})
}
