package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/models"
)

type sliceStream struct {
	events []agent.Event
	pos    int
	err    error
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.pos >= len(s.events) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Current() agent.Event { return s.events[s.pos-1] }
func (s *sliceStream) Err() error           { return s.err }
func (s *sliceStream) Close() error         { s.closed = true; return nil }

func reasoning(blocks ...agent.Block) agent.Event {
	return agent.Event{Type: agent.EventReasoning, Message: agent.Message{Blocks: blocks}}
}

func str(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestTranslateReasoning(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())

	tests := []struct {
		name  string
		event agent.Event
		want  []models.Frame
	}{
		{
			name:  "thinking only",
			event: reasoning(agent.ThinkingBlock("A")),
			want:  []models.Frame{{Kind: models.FrameReasoning, Data: `"A"`}},
		},
		{
			name:  "text only",
			event: reasoning(agent.TextBlock("B")),
			want:  []models.Frame{{Kind: models.FrameContent, Data: `"B"`}},
		},
		{
			name:  "thinking and text",
			event: reasoning(agent.TextBlock("B"), agent.ThinkingBlock("A")),
			want: []models.Frame{
				{Kind: models.FrameReasoning, Data: `"A"`},
				{Kind: models.FrameContent, Data: `"B"`},
			},
		},
		{
			name:  "empty",
			event: reasoning(agent.ThinkingBlock(""), agent.TextBlock("")),
			want:  nil,
		},
		{
			name:  "whitespace is kept",
			event: reasoning(agent.TextBlock(" ")),
			want:  []models.Frame{{Kind: models.FrameContent, Data: `" "`}},
		},
		{
			name:  "multiple blocks are joined",
			event: reasoning(agent.ThinkingBlock("a"), agent.ThinkingBlock("b")),
			want:  []models.Frame{{Kind: models.FrameReasoning, Data: str("a\nb")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.TranslateEvent(tt.event)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TranslateEvent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranslateOther(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())

	got := m.TranslateEvent(agent.Event{Type: agent.EventOther})
	assert.Equal(t, []models.Frame{{Kind: models.FrameContent, Data: str(NoResponse)}}, got)

	got = m.TranslateEvent(agent.Event{Type: agent.EventOther, Message: agent.Message{Blocks: []agent.Block{
		agent.TextBlock("answer"), agent.ThinkingBlock("why"),
	}}})
	assert.Equal(t, []models.Frame{{Kind: models.FrameContent, Data: str("why\n\nanswer")}}, got)
}

func toolEvent(blocks ...agent.Block) agent.Event {
	return agent.Event{Type: agent.EventToolResult, Message: agent.Message{Blocks: blocks}}
}

func decodeTool(t *testing.T, f models.Frame) toolFrame {
	t.Helper()
	require.Equal(t, models.FrameToolResult, f.Kind)
	var tf toolFrame
	require.NoError(t, json.Unmarshal([]byte(f.Data), &tf))
	return tf
}

func TestTranslateToolResult(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())

	t.Run("envelope is unwrapped", func(t *testing.T) {
		frames := m.TranslateEvent(toolEvent(agent.ToolResultBlock("call",
			agent.TextBlock(`{"tool_name":"get_monitor_logs","result":[{"status":"Error","code":500}]}`))))
		require.Len(t, frames, 1)
		tf := decodeTool(t, frames[0])
		assert.Equal(t, "get_monitor_logs", tf.ToolName)
		assert.JSONEq(t, `[{"status":"Error","code":500}]`, tf.Content)
		assert.Contains(t, tf.Content, "\n  ")
	})

	t.Run("null result", func(t *testing.T) {
		tf := decodeTool(t, m.TranslateEvent(toolEvent(agent.ToolResultBlock("x",
			agent.TextBlock(`{"tool_name":"x","result":null}`))))[0])
		assert.Equal(t, noResult, tf.Content)
	})

	t.Run("plain text and media", func(t *testing.T) {
		tf := decodeTool(t, m.TranslateEvent(toolEvent(agent.ToolResultBlock("render",
			agent.TextBlock("done"),
			agent.Block{Kind: agent.BlockImage, Source: "http://img/1.png"},
			agent.Block{Kind: agent.BlockAudio, Source: "file.wav"},
		)))[0])
		assert.Equal(t, "render", tf.ToolName)
		assert.Equal(t, "done\n[Image: http://img/1.png]\n[Audio: file.wav]", tf.Content)
	})

	t.Run("json without envelope", func(t *testing.T) {
		tf := decodeTool(t, m.TranslateEvent(toolEvent(agent.ToolResultBlock("t",
			agent.TextBlock(`{"ok":true}`))))[0])
		assert.Equal(t, "t", tf.ToolName)
		assert.Equal(t, `{"ok":true}`, tf.Content)
	})

	t.Run("no output", func(t *testing.T) {
		tf := decodeTool(t, m.TranslateEvent(toolEvent(agent.ToolResultBlock("t")))[0])
		assert.Equal(t, NoResponse, tf.Content)
	})
}

func TestEncodeFallback(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())
	marshal = func(any) ([]byte, error) { return nil, errors.New("boom") }
	defer func() { marshal = json.Marshal }()

	frames := m.TranslateEvent(reasoning(agent.TextBlock("say \"hi\"\n\\")))
	require.Len(t, frames, 1)
	assert.Equal(t, `"say \"hi\"\n\\"`, frames[0].Data)

	var decoded string
	require.NoError(t, json.Unmarshal([]byte(frames[0].Data), &decoded))
	assert.Equal(t, "say \"hi\"\n\\", decoded)

	tool := m.TranslateEvent(toolEvent(agent.ToolResultBlock("t", agent.TextBlock("x"))))
	assert.Equal(t, toolEncodeFallback, tool[0].Data)
}

func TestTranslatePreservesOrderAndDropsEmpty(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())
	s := &sliceStream{events: []agent.Event{
		reasoning(agent.ThinkingBlock("plan")),
		toolEvent(agent.ToolResultBlock("is_api_healthy", agent.TextBlock(`{"tool_name":"is_api_healthy","result":false}`))),
		reasoning(),
		reasoning(agent.ThinkingBlock("A"), agent.TextBlock("B")),
	}}

	var kinds []models.FrameKind
	err := m.Translate(context.Background(), s, func(f models.Frame) error {
		assert.NotEmpty(t, f.Data)
		kinds = append(kinds, f.Kind)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []models.FrameKind{
		models.FrameReasoning,
		models.FrameToolResult,
		models.FrameReasoning,
		models.FrameContent,
	}, kinds)
	assert.False(t, s.closed)
}

func TestTranslateStopsOnEmitError(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())
	s := &sliceStream{events: []agent.Event{
		reasoning(agent.TextBlock("1")),
		reasoning(agent.TextBlock("2")),
	}}
	gone := errors.New("client gone")

	calls := 0
	err := m.Translate(context.Background(), s, func(models.Frame) error {
		calls++
		return gone
	})
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 1, calls)
}

func TestTranslateReturnsStreamError(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())
	failure := errors.New("model failed")
	s := &sliceStream{err: failure}

	err := m.Translate(context.Background(), s, func(models.Frame) error { return nil })
	assert.ErrorIs(t, err, failure)
}

func TestTranslateHonoursCancellation(t *testing.T) {
	m := NewMultiplexer(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &sliceStream{events: []agent.Event{reasoning(agent.TextBlock("x"))}}

	err := m.Translate(ctx, s, func(models.Frame) error {
		t.Fatal("emit called after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
