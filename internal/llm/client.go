package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/emirozbir/monitor-agent/internal/config"
)

// ErrUnknownProvider is returned by NewClient for unsupported providers.
var ErrUnknownProvider = errors.New("unknown LLM provider")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind is the closed set of message part variants.
type PartKind int

const (
	PartText PartKind = iota
	PartThinking
	PartToolCall
	PartToolResult
)

// Part is one piece of a message. Which fields are meaningful depends on Kind:
// Text for text, thinking and tool results; Signature for thinking;
// ToolCallID for tool calls and results; ToolName and Input for tool calls.
type Part struct {
	Kind       PartKind
	Text       string
	Signature  string
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
	IsError    bool
}

func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

func ToolResultPart(callID, content string, isError bool) Part {
	return Part{Kind: PartToolResult, ToolCallID: callID, Text: content, IsError: isError}
}

type Message struct {
	Role  Role
	Parts []Part
}

// Tool describes a function the model may call. Parameters holds the JSON
// schema properties of its arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Delta is an incremental piece of model output.
type Delta struct {
	Text     string
	Thinking string
}

type Response struct {
	Parts      []Part
	StopReason string
}

// Text joins the text parts of the response.
func (r *Response) Text() string {
	return r.join(PartText)
}

// Thinking joins the thinking parts of the response.
func (r *Response) Thinking() string {
	return r.join(PartThinking)
}

func (r *Response) ToolCalls() []Part {
	var calls []Part
	for _, p := range r.Parts {
		if p.Kind == PartToolCall {
			calls = append(calls, p)
		}
	}
	return calls
}

func (r *Response) join(kind PartKind) string {
	var out []string
	for _, p := range r.Parts {
		if p.Kind == kind && p.Text != "" {
			out = append(out, p.Text)
		}
	}
	return strings.Join(out, "\n")
}

// Client generates one model turn. onDelta, when non-nil, receives output as
// it is produced; the returned Response holds the complete turn.
type Client interface {
	Generate(ctx context.Context, req Request, onDelta func(Delta)) (*Response, error)
}

func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.LLM.Provider)
	}
}
