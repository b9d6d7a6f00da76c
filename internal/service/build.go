package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/config"
	"github.com/emirozbir/monitor-agent/internal/knowledge"
	"github.com/emirozbir/monitor-agent/internal/llm"
	"github.com/emirozbir/monitor-agent/internal/monitor"
	"github.com/emirozbir/monitor-agent/internal/notify"
	"github.com/emirozbir/monitor-agent/internal/session"
	"github.com/emirozbir/monitor-agent/internal/ui"
)

// NewFromConfig builds the full request pipeline from cfg: LLM client,
// knowledge base, monitor state, notifiers, tools and the session registry.
// recorder and progress may be nil.
func NewFromConfig(cfg *config.Config, recorder Recorder, progress ui.ProgressReporter, logger *zap.Logger) (*Orchestrator, error) {
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newWithClient(cfg, client, recorder, progress, logger)
}

func newWithClient(cfg *config.Config, client llm.Client, recorder Recorder, progress ui.ProgressReporter, logger *zap.Logger) (*Orchestrator, error) {
	retention, err := monitor.ParseRetention(cfg.Monitor.LogRetention)
	if err != nil {
		return nil, err
	}
	policy, err := notify.ParsePolicy(cfg.Alert.Policy)
	if err != nil {
		return nil, err
	}

	kb := knowledge.New(logger)
	if err := kb.Load(cfg.Knowledge.Path); err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	state := monitor.NewState(monitor.Options{Retention: retention, MaxLogs: cfg.Monitor.MaxLogs}, logger)
	chat := notify.NewChatNotifier(cfg.Notify.Chat.WebhookURL, logger)
	faults := notify.NewFaultDocCreator(cfg.Notify.FaultDoc, logger)

	tools := agent.NewToolkit(logger, agent.MonitorTools(state)...)
	tools.Register(agent.KnowledgeTool(kb))
	for _, t := range agent.NotifyTools(chat, faults) {
		tools.Register(t)
	}

	opts := agent.Options{
		Name:          cfg.Agent.Name,
		SystemPrompt:  cfg.Agent.SystemPrompt,
		MaxIterations: cfg.Agent.MaxIterations,
		Progress:      progress,
	}
	registry, err := session.NewRegistry(func(caseID string) (agent.Engine, error) {
		return agent.NewAgent(client, tools, opts, logger.With(zap.String("case_id", caseID))), nil
	}, cfg.Session.MaxSessions, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Strings("tools", tools.Names()),
		zap.Int("knowledge_docs", kb.Documents()),
		zap.String("alert_policy", string(policy)),
		zap.String("log_retention", string(retention)),
		zap.Bool("chat_configured", chat.Configured()),
		zap.Bool("fault_doc_configured", faults.Configured()),
	)

	return NewOrchestrator(Deps{
		State:    state,
		Alerter:  notify.NewDispatcher(chat, faults, logger),
		Gate:     notify.NewIncidentGate(policy),
		Sessions: registry,
		Recorder: recorder,
	}, logger), nil
}
