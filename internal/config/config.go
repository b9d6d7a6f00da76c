package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Session   SessionConfig   `mapstructure:"session"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Alert     AlertConfig     `mapstructure:"alert"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Batch     BatchConfig     `mapstructure:"batch"`

	AlertManager AlertManagerConfig `mapstructure:"alertmanager"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LLMConfig struct {
	Provider       string  `mapstructure:"provider"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature"`
	ThinkingBudget int     `mapstructure:"thinking_budget"`
}

type AgentConfig struct {
	Name          string `mapstructure:"name"`
	MaxIterations int    `mapstructure:"max_iterations"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// SessionConfig controls the per-case session cache. MaxSessions of zero
// keeps every session until it is reset explicitly.
type SessionConfig struct {
	MaxSessions int `mapstructure:"max_sessions"`
}

// MonitorConfig controls the retention of the monitor log buffer.
// LogRetention is "append" or "replace"; MaxLogs of zero means unbounded.
type MonitorConfig struct {
	LogRetention string `mapstructure:"log_retention"`
	MaxLogs      int    `mapstructure:"max_logs"`
}

// AlertConfig selects the alert de-duplication policy:
// "every_request" or "once_per_incident".
type AlertConfig struct {
	Policy string `mapstructure:"policy"`
}

type NotifyConfig struct {
	Chat     ChatNotifyConfig `mapstructure:"chat"`
	FaultDoc FaultDocConfig   `mapstructure:"fault_doc"`
}

type ChatNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type FaultDocConfig struct {
	APIURL    string `mapstructure:"api_url"`
	APIToken  string `mapstructure:"api_token"`
	ProjectID string `mapstructure:"project_id"`
	FolderID  string `mapstructure:"folder_id"`
	ModuleID  string `mapstructure:"module_id"`
	Locale    string `mapstructure:"locale"`
}

// AlertManagerConfig enables polling of active alerts. An empty URL
// disables it.
type AlertManagerConfig struct {
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type BatchConfig struct {
	InputPath  string `mapstructure:"input_path"`
	OutputPath string `mapstructure:"output_path"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.thinking_budget", 0)
	v.SetDefault("agent.name", "MonitorAgent")
	v.SetDefault("agent.max_iterations", 10)
	v.SetDefault("session.max_sessions", 0)
	v.SetDefault("monitor.log_retention", "append")
	v.SetDefault("monitor.max_logs", 0)
	v.SetDefault("alert.policy", "every_request")
	v.SetDefault("notify.chat.webhook_url", "https://open.feishu.cn/open-apis/bot/v2/hook/placeholder")
	v.SetDefault("notify.fault_doc.api_url", "https://api.apifox.com")
	v.SetDefault("notify.fault_doc.api_token", "your-apifox-token-here")
	v.SetDefault("notify.fault_doc.project_id", "your-project-id-here")
	v.SetDefault("notify.fault_doc.locale", "zh-CN")
	v.SetDefault("knowledge.path", "./knowledge")
	v.SetDefault("database.path", "./monitor-agent.db")
	v.SetDefault("batch.input_path", "inputs/inputs.json")
	v.SetDefault("batch.output_path", "outputs/results.json")
	v.SetDefault("alertmanager.url", "")
	v.SetDefault("alertmanager.poll_interval", "30s")

	// Read from environment variables
	v.AutomaticEnv()

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Override with environment variable if set
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && config.LLM.Provider == "anthropic" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = apiKey
	}
	if url := os.Getenv("CHAT_WEBHOOK_URL"); url != "" {
		config.Notify.Chat.WebhookURL = url
	}
	if url := os.Getenv("ALERTMANAGER_URL"); url != "" {
		config.AlertManager.URL = url
	}
	if token := os.Getenv("FAULT_DOC_API_TOKEN"); token != "" {
		config.Notify.FaultDoc.APIToken = token
	}

	return &config, nil
}
