package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main Cheetah configuration
type Config struct {
	// Backend
	Backend BackendConfig `json:"backend" mapstructure:"backend"`

	// Entitled allows the premium chat tier
	Entitled bool `json:"entitled" mapstructure:"entitled"`

	// Domain the prompts are written for
	Domain string `json:"domain" mapstructure:"domain"`

	// Execution
	Execution ExecutionConfig `json:"execution" mapstructure:"execution"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// BackendConfig holds model provider configuration
type BackendConfig struct {
	Provider   string       `json:"provider" mapstructure:"provider"` // openai, anthropic
	APIKey     string       `json:"api_key" mapstructure:"api_key"`
	BaseURL    string       `json:"base_url" mapstructure:"base_url"`
	MaxRetries int          `json:"max_retries" mapstructure:"max_retries"`
	Timeout    int          `json:"timeout" mapstructure:"timeout"` // seconds
	Models     ModelsConfig `json:"models" mapstructure:"models"`
}

// ModelsConfig maps tiers to model names. Empty entries use the provider's defaults.
type ModelsConfig struct {
	Text     string `json:"text" mapstructure:"text"`
	Baseline string `json:"baseline" mapstructure:"baseline"`
	Premium  string `json:"premium" mapstructure:"premium"`
}

// ExecutionConfig holds prompt tree execution settings
type ExecutionConfig struct {
	MergeOrder string `json:"merge_order" mapstructure:"merge_order"` // declared, completion
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level          string `json:"level" mapstructure:"level"`
	File           string `json:"file" mapstructure:"file"`
	Console        bool   `json:"console" mapstructure:"console"`
	Pretty         bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize        int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge         int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress       bool   `json:"compress" mapstructure:"compress"`
	Redaction      bool   `json:"redaction" mapstructure:"redaction"`
	LogPrompts     bool   `json:"log_prompts" mapstructure:"log_prompts"`
	LogCompletions bool   `json:"log_completions" mapstructure:"log_completions"`
}

// MetricsConfig holds prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
	Endpoint    string `json:"endpoint" mapstructure:"endpoint"` // OTLP/HTTP host:port; empty logs spans to stderr
	Insecure    bool   `json:"insecure" mapstructure:"insecure"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider:   "openai",
			MaxRetries: 2,
			Timeout:    60,
		},
		Entitled: true,
		Domain:   "software engineering",
		Execution: ExecutionConfig{
			MergeOrder: "declared",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "cheetah",
		},
	}
}

// RequestTimeout returns the backend timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// String returns a JSON representation of the config with the API key masked
func (c *Config) String() string {
	masked := *c
	if masked.Backend.APIKey != "" {
		masked.Backend.APIKey = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid backend provider %s (must be: openai, anthropic)", c.Backend.Provider)
	}

	if c.Backend.APIKey == "" {
		return fmt.Errorf("no API key configured for provider %s", c.Backend.Provider)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend max_retries must be >= 0")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must be >= 0")
	}

	switch c.Execution.MergeOrder {
	case "", "declared", "completion":
	default:
		return fmt.Errorf("invalid merge order %s (must be: declared, completion)", c.Execution.MergeOrder)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics addr is required when metrics are enabled")
	}

	return nil
}
