// Package config provides configuration loading for planforge.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	LLM      LLMConfig      `koanf:"llm"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	APIKey          string        `koanf:"api_key"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds the model provider settings.
type LLMConfig struct {
	// Provider selects a preset: "groq" or "ollama".
	Provider string `koanf:"provider"`

	// BaseURL overrides the provider preset endpoint.
	BaseURL string `koanf:"base_url"`

	APIKey            string `koanf:"api_key"`
	Model             string `koanf:"model"`
	TimeoutSeconds    int    `koanf:"timeout_seconds"`
	RequestsPerMinute int    `koanf:"requests_per_minute"`
	Burst             int    `koanf:"burst"`
}

// PipelineConfig holds generation loop settings.
type PipelineConfig struct {
	AutoIterate         bool    `koanf:"auto_iterate"`
	MaxIterations       int     `koanf:"max_iterations"`
	QualityThreshold    float64 `koanf:"quality_threshold"`
	RetryCount          int     `koanf:"retry_count"`
	StageTimeoutSeconds int     `koanf:"stage_timeout_seconds"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything
	// in process.
	Path string `koanf:"path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}

	switch c.LLM.Provider {
	case "groq", "ollama":
	default:
		return fmt.Errorf("llm.provider must be groq or ollama, got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "groq" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider groq")
	}
	if c.LLM.TimeoutSeconds < 1 {
		return fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}

	if c.Pipeline.MaxIterations < 1 {
		return fmt.Errorf("pipeline.max_iterations must be at least 1, got %d", c.Pipeline.MaxIterations)
	}
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 10 {
		return fmt.Errorf("pipeline.quality_threshold must be in [0, 10], got %g", c.Pipeline.QualityThreshold)
	}
	if c.Pipeline.RetryCount < 0 {
		return fmt.Errorf("pipeline.retry_count must not be negative, got %d", c.Pipeline.RetryCount)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
