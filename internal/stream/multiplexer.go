package stream

import (
	"bytes"
	"context"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/models"
)

// NoResponse stands in for an event without any text.
const NoResponse = "[No response]"

const (
	noResult           = "[No result]"
	toolEncodeFallback = `{"toolName":"unknown","content":"[Error serializing result]"}`
)

var marshal = json.Marshal

// Multiplexer turns the events of one agent turn into outbound frames.
// It keeps no state between events and is safe to share.
type Multiplexer struct {
	logger *zap.Logger
}

func NewMultiplexer(logger *zap.Logger) *Multiplexer {
	return &Multiplexer{logger: logger}
}

// Translate forwards the frames of every event in s to emit, in order, as
// each event arrives. Frames with empty data are dropped. It stops at the
// first emit error or when ctx is done; the caller closes s.
func (m *Multiplexer) Translate(ctx context.Context, s agent.EventStream, emit func(models.Frame) error) error {
	for s.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, f := range m.TranslateEvent(s.Current()) {
			if f.Data == "" {
				continue
			}
			if err := emit(f); err != nil {
				return err
			}
		}
	}
	return s.Err()
}

// TranslateEvent maps one event onto zero or more frames:
// a tool result becomes one tool_result frame, reasoning becomes a
// reasoning frame and then a content frame for whichever segments are
// non-empty, and anything else becomes one content frame.
func (m *Multiplexer) TranslateEvent(ev agent.Event) []models.Frame {
	switch ev.Type {
	case agent.EventToolResult:
		return []models.Frame{{Kind: models.FrameToolResult, Data: m.toolContent(ev.Message)}}

	case agent.EventReasoning:
		thinking, text := segments(ev.Message)
		var frames []models.Frame
		if thinking != "" {
			frames = append(frames, models.Frame{Kind: models.FrameReasoning, Data: m.encode(thinking)})
		}
		if text != "" {
			frames = append(frames, models.Frame{Kind: models.FrameContent, Data: m.encode(text)})
		}
		return frames

	default:
		return []models.Frame{{Kind: models.FrameContent, Data: m.encode(TextContent(ev.Message))}}
	}
}

// segments joins the thinking and the text blocks of msg separately.
func segments(msg agent.Message) (thinking, text string) {
	var th, tx []string
	for _, b := range msg.Blocks {
		switch b.Kind {
		case agent.BlockThinking:
			th = append(th, b.Text)
		case agent.BlockText:
			tx = append(tx, b.Text)
		}
	}
	return strings.Join(th, "\n"), strings.Join(tx, "\n")
}

// TextContent renders thinking and text together, or NoResponse when the
// message has neither.
func TextContent(msg agent.Message) string {
	thinking, text := segments(msg)
	switch {
	case thinking != "" && text != "":
		return thinking + "\n\n" + text
	case thinking != "":
		return thinking
	case text != "":
		return text
	default:
		return NoResponse
	}
}

type toolFrame struct {
	ToolName string `json:"toolName,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (m *Multiplexer) toolContent(msg agent.Message) string {
	var frame toolFrame
	for _, b := range msg.Blocks {
		if b.Kind != agent.BlockToolResult {
			continue
		}
		frame = toolFrame{ToolName: b.ToolName}
		if len(b.Output) == 0 {
			frame.Content = NoResponse
			continue
		}
		combined := renderOutput(b.Output)
		if name, content, ok := unwrapToolOutput(combined); ok {
			frame.ToolName = name
			frame.Content = content
		} else {
			frame.Content = combined
		}
	}

	out, err := marshal(frame)
	if err != nil {
		m.logger.Error("failed to encode tool result", zap.Error(err))
		return toolEncodeFallback
	}
	return string(out)
}

func renderOutput(blocks []agent.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case agent.BlockText, agent.BlockThinking:
			parts = append(parts, b.Text)
		case agent.BlockImage:
			parts = append(parts, "[Image: "+b.Source+"]")
		case agent.BlockAudio:
			parts = append(parts, "[Audio: "+b.Source+"]")
		case agent.BlockToolResult:
			parts = append(parts, renderOutput(b.Output))
		}
	}
	return strings.Join(parts, "\n")
}

// unwrapToolOutput extracts the tool name and a pretty-printed result from
// a {"tool_name": ..., "result": ...} envelope.
func unwrapToolOutput(s string) (name, content string, ok bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return "", "", false
	}

	var envelope map[string]any
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return "", "", false
	}
	rawName, hasName := envelope["tool_name"]
	result, hasResult := envelope["result"]
	if !hasName || !hasResult {
		return "", "", false
	}
	name, _ = rawName.(string)

	if result == nil {
		return name, noResult, true
	}
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", "", false
	}
	return name, string(pretty), true
}

// encode renders s as a JSON string literal.
func (m *Multiplexer) encode(s string) string {
	out, err := marshal(s)
	if err != nil {
		m.logger.Warn("falling back to manual escaping", zap.Error(err))
		return escape(s)
	}
	return string(out)
}

func escape(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
