package agent

import "context"

// EventType tags an event emitted while the agent works on a turn.
type EventType int

const (
	// EventReasoning carries model output: thinking and text blocks.
	EventReasoning EventType = iota
	// EventToolResult carries the output of one tool execution.
	EventToolResult
	// EventOther carries anything else, such as the final reply.
	EventOther
)

func (t EventType) String() string {
	switch t {
	case EventReasoning:
		return "REASONING"
	case EventToolResult:
		return "TOOL_RESULT"
	default:
		return "OTHER"
	}
}

// BlockKind is the closed set of content block variants.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockThinking
	BlockToolResult
	BlockImage
	BlockAudio
)

// Block is one segment of event content. Text holds text and thinking;
// Source holds the location of image and audio blocks; ToolName and Output
// describe a tool result.
type Block struct {
	Kind     BlockKind
	Text     string
	Source   string
	ToolName string
	Output   []Block
}

func TextBlock(text string) Block {
	return Block{Kind: BlockText, Text: text}
}

func ThinkingBlock(thinking string) Block {
	return Block{Kind: BlockThinking, Text: thinking}
}

func ToolResultBlock(name string, output ...Block) Block {
	return Block{Kind: BlockToolResult, ToolName: name, Output: output}
}

type Message struct {
	Blocks []Block
}

// Event is one item of an agent's event stream. Last marks the final event
// of a reply.
type Event struct {
	Type    EventType
	Message Message
	Last    bool
}

// StreamOptions selects which events a stream carries.
type StreamOptions struct {
	EventTypes []EventType
	// Incremental emits model output as it is generated instead of once
	// per model turn.
	Incremental bool
	// IncludeReasoningResult re-emits the complete final model turn after
	// incremental output has finished.
	IncludeReasoningResult bool
}

// DefaultStreamOptions streams reasoning and tool results incrementally.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		EventTypes:  []EventType{EventReasoning, EventToolResult},
		Incremental: true,
	}
}

func (o StreamOptions) wants(t EventType) bool {
	for _, et := range o.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// EventStream is a pull-based sequence of events:
//
//	for stream.Next() {
//		ev := stream.Current()
//	}
//	if err := stream.Err(); err != nil {
//		...
//	}
type EventStream interface {
	Next() bool
	Current() Event
	Err() error
	Close() error
}

// Engine is a conversational engine holding one conversation.
type Engine interface {
	Call(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, opts StreamOptions) (EventStream, error)
}
