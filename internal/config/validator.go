package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateProvider validates a backend provider name
func (v *Validator) ValidateProvider(provider string) error {
	return oneOf("backend provider", provider, []string{"openai", "anthropic"})
}

// ValidateMergeOrder validates the sibling merge order
func (v *Validator) ValidateMergeOrder(order string) error {
	if order == "" {
		return nil // Use default
	}
	return oneOf("merge order", order, []string{"declared", "completion"})
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	return oneOf("log level", level, []string{"debug", "info", "warn", "error"})
}

// ValidateModels checks that configured model names carry no stray whitespace
func (v *Validator) ValidateModels(models ModelsConfig) error {
	for tier, name := range map[string]string{"text": models.Text, "baseline": models.Baseline, "premium": models.Premium} {
		if name != strings.TrimSpace(name) {
			return fmt.Errorf("model name for %s tier has surrounding whitespace: %q", tier, name)
		}
	}
	return nil
}

func oneOf(what, value string, valid []string) error {
	for _, candidate := range valid {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (must be one of: %s)", what, value, strings.Join(valid, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateProvider(cfg.Backend.Provider); err != nil {
		errors = append(errors, err)
	} else if cfg.Backend.APIKey != "" {
		if err := v.ValidateAPIKey(cfg.Backend.APIKey, cfg.Backend.Provider); err != nil {
			errors = append(errors, err)
		}
	}

	if cfg.Backend.MaxRetries < 0 {
		errors = append(errors, fmt.Errorf("backend.max_retries must be >= 0"))
	}
	if cfg.Backend.Timeout < 0 {
		errors = append(errors, fmt.Errorf("backend.timeout must be >= 0"))
	}
	if err := v.ValidateModels(cfg.Backend.Models); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateMergeOrder(cfg.Execution.MergeOrder); err != nil {
		errors = append(errors, err)
	}

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		errors = append(errors, fmt.Errorf("metrics.addr is required when metrics are enabled"))
	}

	return errors
}
