package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirozbir/monitor-agent/internal/config"
)

func TestNewClientUnknownProvider(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "mystery"}}

	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&config.Config{LLM: config.LLMConfig{Provider: "anthropic"}})
	assert.Error(t, err)

	_, err = NewClient(&config.Config{LLM: config.LLMConfig{Provider: "openai"}})
	assert.Error(t, err)

	c, err := NewClient(&config.Config{LLM: config.LLMConfig{Provider: "openai", BaseURL: "http://localhost:11434/v1"}})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{Parts: []Part{
		{Kind: PartThinking, Text: "hmm"},
		TextPart("first"),
		{Kind: PartToolCall, ToolCallID: "t1", ToolName: "check_monitor_status"},
		TextPart(""),
		TextPart("second"),
	}}

	assert.Equal(t, "first\nsecond", resp.Text())
	assert.Equal(t, "hmm", resp.Thinking())
	calls := resp.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "check_monitor_status", calls[0].ToolName)
}
