package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	t.Run("valid anthropic key", func(t *testing.T) {
		assert.NoError(t, v.ValidateAPIKey("sk-ant-test123", "anthropic"))
	})

	t.Run("invalid anthropic key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("invalid-key", "anthropic"))
	})

	t.Run("valid openai key", func(t *testing.T) {
		assert.NoError(t, v.ValidateAPIKey("sk-test123", "openai"))
	})

	t.Run("invalid openai key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("invalid-key", "openai"))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("", "anthropic"))
	})
}

func TestValidateEnums(t *testing.T) {
	v := NewValidator()

	t.Run("provider", func(t *testing.T) {
		assert.NoError(t, v.ValidateProvider("openai"))
		assert.NoError(t, v.ValidateProvider("anthropic"))
		assert.Error(t, v.ValidateProvider("gemini"))
	})

	t.Run("merge order", func(t *testing.T) {
		assert.NoError(t, v.ValidateMergeOrder(""))
		assert.NoError(t, v.ValidateMergeOrder("declared"))
		assert.NoError(t, v.ValidateMergeOrder("completion"))
		assert.Error(t, v.ValidateMergeOrder("random"))
	})

	t.Run("log level", func(t *testing.T) {
		assert.NoError(t, v.ValidateLogLevel("debug"))
		err := v.ValidateLogLevel("verbose")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "debug, info, warn, error")
	})

	t.Run("models", func(t *testing.T) {
		assert.NoError(t, v.ValidateModels(ModelsConfig{Premium: "gpt-4o"}))
		assert.Error(t, v.ValidateModels(ModelsConfig{Baseline: " gpt-4o"}))
	})
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.APIKey = "sk-test"
		assert.Empty(t, v.ValidateConfig(cfg))
	})

	t.Run("collects every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.Provider = "anthropic"
		cfg.Backend.APIKey = "sk-wrong-prefix"
		cfg.Backend.Timeout = -1
		cfg.Execution.MergeOrder = "random"
		cfg.Logging.Level = "verbose"

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 4)
	})
}
