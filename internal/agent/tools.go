package agent

import (
	"context"
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/emirozbir/monitor-agent/internal/knowledge"
	"github.com/emirozbir/monitor-agent/internal/llm"
	"github.com/emirozbir/monitor-agent/internal/monitor"
	"github.com/emirozbir/monitor-agent/internal/notify"
)

const knowledgeLimit = 3

// MonitorTools expose the shared monitor state to the model.
func MonitorTools(state *monitor.State) []Tool {
	return []Tool{
		{
			Definition: llm.Tool{
				Name:        "check_monitor_status",
				Description: "Check the current monitor status. Returns the API status code, response time and health of the upstream API.",
				Parameters:  map[string]any{},
			},
			Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
				return state.Snapshot(), nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        "get_monitor_logs",
				Description: "Get recent monitor log entries. Use this to answer questions about system stability. Returns timestamps, statuses and error messages.",
				Parameters: map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of entries to return, newest first. Zero returns all.",
					},
				},
			},
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var args struct {
					Limit int `json:"limit"`
				}
				if err := gojson.Unmarshal(input, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				logs := state.RecentLogs()
				if args.Limit > 0 && len(logs) > args.Limit {
					logs = logs[:args.Limit]
				}
				return logs, nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        "is_api_healthy",
				Description: "Check whether the API is healthy. Returns true when the status is 200 OK.",
				Parameters:  map[string]any{},
			},
			Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
				return state.Snapshot().Healthy, nil
			},
		},
	}
}

// KnowledgeTool answers business questions from the knowledge base.
func KnowledgeTool(base *knowledge.Base) Tool {
	return Tool{
		Definition: llm.Tool{
			Name:        "query_knowledge",
			Description: "Query the knowledge base for platform features, billing and terms of service. Returns the most relevant passages.",
			Parameters: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The question or keywords to look up",
				},
			},
			Required: []string{"query"},
		},
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := gojson.Unmarshal(input, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			if args.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			return base.Answer(args.Query, knowledgeLimit), nil
		},
	}
}

// NotifyTools let the model raise an alert by hand. Automatic alerting does
// not go through them.
func NotifyTools(chat notify.ChatAlerter, faults notify.FaultRecorder) []Tool {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return []Tool{
		{
			Definition: llm.Tool{
				Name:        "send_chat_alert",
				Description: "Send an alert card to the on-call chat. The system alerts automatically; only call this when explicitly asked to.",
				Parameters: map[string]any{
					"timestamp":  str("When the anomaly happened"),
					"error_code": str("The abnormal status code"),
					"latency":    str("Current response latency"),
				},
				Required: []string{"timestamp", "error_code", "latency"},
			},
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var args struct {
					Timestamp string `json:"timestamp"`
					ErrorCode string `json:"error_code"`
					Latency   string `json:"latency"`
				}
				if err := gojson.Unmarshal(input, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				res := chat.Notify(ctx, notify.ChatAlert{
					Timestamp: args.Timestamp,
					ErrorCode: args.ErrorCode,
					Latency:   args.Latency,
				})
				return res.Value, nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        "create_fault_doc",
				Description: "Create a fault record document. The system records faults automatically; only call this when explicitly asked to.",
				Parameters: map[string]any{
					"timestamp":  str("When the fault happened"),
					"error_code": str("The fault status code"),
					"error_msg":  str("Detailed error message"),
					"latency":    str("Current response latency"),
				},
				Required: []string{"timestamp", "error_code"},
			},
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var args struct {
					Timestamp string `json:"timestamp"`
					ErrorCode string `json:"error_code"`
					ErrorMsg  string `json:"error_msg"`
					Latency   string `json:"latency"`
				}
				if err := gojson.Unmarshal(input, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				res := faults.Create(ctx, notify.FaultReport{
					Timestamp:    args.Timestamp,
					ErrorCode:    args.ErrorCode,
					ErrorMessage: args.ErrorMsg,
					Latency:      args.Latency,
				})
				return res.Value, nil
			},
		},
	}
}
