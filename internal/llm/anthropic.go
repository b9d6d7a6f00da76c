package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/emirozbir/monitor-agent/internal/config"
)

type AnthropicClient struct {
	client         anthropic.Client
	model          string
	maxTokens      int
	temperature    float32
	thinkingBudget int
}

func NewAnthropicClient(cfg *config.Config) (*AnthropicClient, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.LLM.APIKey)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	return &AnthropicClient{
		client:         anthropic.NewClient(opts...),
		model:          cfg.LLM.Model,
		maxTokens:      cfg.LLM.MaxTokens,
		temperature:    cfg.LLM.Temperature,
		thinkingBudget: cfg.LLM.ThinkingBudget,
	}, nil
}

func (a *AnthropicClient) Generate(ctx context.Context, req Request, onDelta func(Delta)) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     toAnthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	// Extended thinking requires the default temperature.
	if a.thinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(a.thinkingBudget))
	} else {
		params.Temperature = anthropic.Float(float64(a.temperature))
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var message anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("failed to accumulate anthropic stream: %w", err)
		}
		if onDelta == nil {
			continue
		}
		if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			switch d := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				onDelta(Delta{Text: d.Text})
			case anthropic.ThinkingDelta:
				onDelta(Delta{Thinking: d.Thinking})
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	if len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	resp := &Response{StopReason: string(message.StopReason)}
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Parts = append(resp.Parts, TextPart(b.Text))
		case anthropic.ThinkingBlock:
			resp.Parts = append(resp.Parts, Part{Kind: PartThinking, Text: b.Thinking, Signature: b.Signature})
		case anthropic.ToolUseBlock:
			resp.Parts = append(resp.Parts, Part{
				Kind:       PartToolCall,
				ToolCallID: b.ID,
				ToolName:   b.Name,
				Input:      b.Input,
			})
		}
	}
	return resp, nil
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Kind {
			case PartText:
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			case PartThinking:
				blocks = append(blocks, anthropic.NewThinkingBlock(p.Signature, p.Text))
			case PartToolCall:
				var input any = json.RawMessage("{}")
				if len(p.Input) > 0 {
					input = p.Input
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(p.ToolCallID, input, p.ToolName))
			case PartToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(p.ToolCallID, p.Text, p.IsError))
			}
		}
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toAnthropicTools(tools []Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters,
					Required:   t.Required,
				},
			},
		})
	}
	return out
}
