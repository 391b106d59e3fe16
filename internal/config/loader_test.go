package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PLANFORGE_LLM_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 30, cfg.LLM.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
	assert.Equal(t, 7.0, cfg.Pipeline.QualityThreshold)
	assert.Equal(t, 2, cfg.Pipeline.RetryCount)
	assert.Equal(t, "planforge.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
  api_key: secret
llm:
  provider: ollama
  model: llama3
pipeline:
  auto_iterate: true
  quality_threshold: 8.5
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.True(t, cfg.Pipeline.AutoIterate)
	assert.Equal(t, 8.5, cfg.Pipeline.QualityThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset fields still get defaults.
	assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
llm:
  provider: ollama
`)
	t.Setenv("PLANFORGE_SERVER_PORT", "7777")
	t.Setenv("PLANFORGE_LLM_MODEL", "qwen2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	// File values not overridden remain.
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PLANFORGE_LLM_PROVIDER", "ollama")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8086, cfg.Server.Port)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "groq without api key",
			yaml:    "llm:\n  provider: groq\n",
			wantErr: "llm.api_key",
		},
		{
			name:    "unknown provider",
			yaml:    "llm:\n  provider: watsonx\n  api_key: k\n",
			wantErr: "llm.provider",
		},
		{
			name:    "bad port",
			yaml:    "server:\n  port: 70000\nllm:\n  provider: ollama\n",
			wantErr: "server.port",
		},
		{
			name:    "threshold out of range",
			yaml:    "llm:\n  provider: ollama\npipeline:\n  quality_threshold: 11\n",
			wantErr: "quality_threshold",
		},
		{
			name:    "bad log level",
			yaml:    "llm:\n  provider: ollama\nlogging:\n  level: verbose\n",
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			yaml:    "llm:\n  provider: ollama\nlogging:\n  format: xml\n",
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not a map"))
	require.Error(t, err)
}
