package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/emirozbir/monitor-agent/internal/config"
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient also serves OpenAI-compatible servers such as vLLM or
// Ollama when base_url is set; those may run without an API key.
func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.LLM.APIKey)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIClient{
		client:      &client,
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}, nil
}

func (o *OpenAIClient) Generate(ctx context.Context, req Request, onDelta func(Delta)) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, toOpenAIMessages(req.Messages)...)

	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(o.maxTokens)),
		Temperature: openai.Float(float64(o.temperature)),
		Tools:       toOpenAITools(req.Tools),
	})
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	var thinking string
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		reasoning := reasoningContent(delta)
		thinking += reasoning
		if onDelta != nil && (delta.Content != "" || reasoning != "") {
			onDelta(Delta{Text: delta.Content, Thinking: reasoning})
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	choice := acc.Choices[0]
	resp := &Response{StopReason: string(choice.FinishReason)}
	if thinking != "" {
		resp.Parts = append(resp.Parts, Part{Kind: PartThinking, Text: thinking})
	}
	if choice.Message.Content != "" {
		resp.Parts = append(resp.Parts, TextPart(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		resp.Parts = append(resp.Parts, Part{
			Kind:       PartToolCall,
			ToolCallID: call.ID,
			ToolName:   call.Function.Name,
			Input:      json.RawMessage(call.Function.Arguments),
		})
	}
	return resp, nil
}

// reasoningContent reads the non-standard reasoning field emitted by
// OpenAI-compatible reasoning models.
func reasoningContent(delta openai.ChatCompletionChunkChoiceDelta) string {
	field, ok := delta.JSON.ExtraFields["reasoning_content"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(field.Raw()), &s); err != nil {
		return ""
	}
	return s
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, m := range messages {
		if m.Role == RoleAssistant {
			out = append(out, toOpenAIAssistant(m))
			continue
		}
		for _, p := range m.Parts {
			switch p.Kind {
			case PartText:
				out = append(out, openai.UserMessage(p.Text))
			case PartToolResult:
				out = append(out, openai.ToolMessage(p.Text, p.ToolCallID))
			}
		}
	}
	return out
}

func toOpenAIAssistant(m Message) openai.ChatCompletionMessageParamUnion {
	assistant := &openai.ChatCompletionAssistantMessageParam{}
	var text string
	for _, p := range m.Parts {
		switch p.Kind {
		case PartText:
			text += p.Text
		case PartToolCall:
			args := string(p.Input)
			if args == "" {
				args = "{}"
			}
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: p.ToolCallID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      p.ToolName,
					Arguments: args,
				},
			})
		}
	}
	if text != "" {
		assistant.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
}

func toOpenAITools(tools []Tool) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		params := openai.FunctionParameters{
			"type":       "object",
			"properties": t.Parameters,
		}
		if len(t.Required) > 0 {
			params["required"] = t.Required
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		})
	}
	return out
}
