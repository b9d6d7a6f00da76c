package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirozbir/monitor-agent/internal/config"
)

func anthropicEvents(events ...string) string {
	var b strings.Builder
	for _, e := range events {
		name := e[strings.Index(e, `"type":"`)+8:]
		name = name[:strings.Index(name, `"`)]
		fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", name, e)
	}
	return b.String()
}

func TestAnthropicGenerateStreamsAndAccumulates(t *testing.T) {
	body := anthropicEvents(
		`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-test","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":"","signature":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"checking status"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Let me "}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"look."}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"content_block_start","index":2,"content_block":{"type":"tool_use","id":"toolu_1","name":"check_monitor_status","input":{}}}`,
		`{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{}"}}`,
		`{"type":"content_block_stop","index":2}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":20}}`,
		`{"type":"message_stop"}`,
	)

	var requestBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		requestBody = string(b)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(&config.Config{LLM: config.LLMConfig{
		APIKey:         "test",
		BaseURL:        srv.URL,
		Model:          "claude-test",
		MaxTokens:      1024,
		ThinkingBudget: 512,
	}})
	require.NoError(t, err)

	var deltas []Delta
	resp, err := client.Generate(context.Background(), Request{
		System:   "be helpful",
		Messages: []Message{{Role: RoleUser, Parts: []Part{TextPart("status?")}}},
		Tools:    []Tool{{Name: "check_monitor_status", Description: "status", Parameters: map[string]any{}}},
	}, func(d Delta) { deltas = append(deltas, d) })
	require.NoError(t, err)

	assert.Equal(t, []Delta{{Thinking: "checking status"}, {Text: "Let me "}, {Text: "look."}}, deltas)
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, "checking status", resp.Thinking())
	assert.Equal(t, "Let me look.", resp.Text())
	require.Len(t, resp.ToolCalls(), 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls()[0].ToolCallID)
	assert.Equal(t, "sig", resp.Parts[0].Signature)

	assert.Contains(t, requestBody, `"thinking"`)
	assert.Contains(t, requestBody, `"check_monitor_status"`)
	assert.Contains(t, requestBody, `"be helpful"`)
}
