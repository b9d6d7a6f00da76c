package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ALERTMANAGER_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, "append", cfg.Monitor.LogRetention)
	assert.Equal(t, "every_request", cfg.Alert.Policy)
	assert.Equal(t, 0, cfg.Session.MaxSessions)
	assert.Contains(t, cfg.Notify.Chat.WebhookURL, "placeholder")
	assert.Empty(t, cfg.AlertManager.URL)
	assert.Equal(t, 30*time.Second, cfg.AlertManager.PollInterval)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
llm:
  provider: openai
  base_url: http://localhost:11434/v1
  model: qwen2.5
alert:
  policy: once_per_incident
monitor:
  log_retention: replace
  max_logs: 50
session:
  max_sessions: 128
alertmanager:
  url: http://alertmanager:9093
  poll_interval: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHAT_WEBHOOK_URL", "https://hooks.example.com/abc")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "once_per_incident", cfg.Alert.Policy)
	assert.Equal(t, "replace", cfg.Monitor.LogRetention)
	assert.Equal(t, 50, cfg.Monitor.MaxLogs)
	assert.Equal(t, 128, cfg.Session.MaxSessions)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.Notify.Chat.WebhookURL)
	assert.Equal(t, "http://alertmanager:9093", cfg.AlertManager.URL)
	assert.Equal(t, time.Minute, cfg.AlertManager.PollInterval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
