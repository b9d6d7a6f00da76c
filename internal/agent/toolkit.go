package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/llm"
)

// ToolHandler executes a tool with the model-supplied JSON arguments.
type ToolHandler func(ctx context.Context, input json.RawMessage) (any, error)

type Tool struct {
	Definition llm.Tool
	Handler    ToolHandler
}

// ToolOutput is the envelope every tool result is wrapped in.
type ToolOutput struct {
	ToolName string `json:"tool_name"`
	Result   any    `json:"result"`
}

// Toolkit is the set of tools an agent may call.
type Toolkit struct {
	tools  map[string]Tool
	logger *zap.Logger
}

func NewToolkit(logger *zap.Logger, tools ...Tool) *Toolkit {
	k := &Toolkit{
		tools:  make(map[string]Tool),
		logger: logger,
	}
	for _, t := range tools {
		k.Register(t)
	}
	return k
}

// Register adds t, replacing any tool with the same name.
func (k *Toolkit) Register(t Tool) {
	k.tools[t.Definition.Name] = t
}

func (k *Toolkit) Names() []string {
	names := make([]string, 0, len(k.tools))
	for name := range k.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool schemas in name order.
func (k *Toolkit) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(k.tools))
	for _, name := range k.Names() {
		defs = append(defs, k.tools[name].Definition)
	}
	return defs
}

// Execute runs the named tool and returns its wrapped output. Failures are
// reported to the model as error results rather than returned.
func (k *Toolkit) Execute(ctx context.Context, name string, input json.RawMessage) (string, bool) {
	k.logger.Info("calling tool", zap.String("tool", name), zap.ByteString("input", input))

	tool, ok := k.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name), true
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	result, err := tool.Handler(ctx, input)
	if err != nil {
		k.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
		return "Error: " + err.Error(), true
	}

	out, err := gojson.Marshal(ToolOutput{ToolName: name, Result: result})
	if err != nil {
		return fmt.Sprintf("Error: failed to encode %s result: %v", name, err), true
	}

	k.logger.Info("tool returned", zap.String("tool", name), zap.ByteString("output", out))
	return string(out), false
}
