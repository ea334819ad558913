package backend

import (
	"fmt"

	"github.com/harun/cheetah/pkg/chain"
)

// ModelMap resolves tiers to concrete model names.
type ModelMap struct {
	Text     string `json:"text" mapstructure:"text"`
	Baseline string `json:"baseline" mapstructure:"baseline"`
	Premium  string `json:"premium" mapstructure:"premium"`
}

// DefaultOpenAIModels returns the OpenAI model for each tier.
func DefaultOpenAIModels() ModelMap {
	return ModelMap{
		Text:     "gpt-3.5-turbo-instruct",
		Baseline: "gpt-3.5-turbo",
		Premium:  "gpt-4",
	}
}

// DefaultAnthropicModels returns the Anthropic model for each tier.
// Anthropic has no plain completion endpoint, so text prompts go to the baseline model.
func DefaultAnthropicModels() ModelMap {
	return ModelMap{
		Text:     "claude-3-5-haiku-latest",
		Baseline: "claude-3-5-haiku-latest",
		Premium:  "claude-sonnet-4-0",
	}
}

// WithDefaults fills empty entries from defaults.
func (m ModelMap) WithDefaults(defaults ModelMap) ModelMap {
	if m.Text == "" {
		m.Text = defaults.Text
	}
	if m.Baseline == "" {
		m.Baseline = defaults.Baseline
	}
	if m.Premium == "" {
		m.Premium = defaults.Premium
	}
	return m
}

// TextModel returns the model for a text tier.
func (m ModelMap) TextModel(tier chain.TextTier) (string, error) {
	switch tier {
	case chain.TextTierDavinci:
		return m.Text, nil
	default:
		return "", fmt.Errorf("unknown text tier: %s", tier)
	}
}

// ChatModel returns the model for a chat tier.
func (m ModelMap) ChatModel(tier chain.ChatTier) (string, error) {
	switch tier {
	case chain.ChatTierBaseline:
		return m.Baseline, nil
	case chain.ChatTierPremium:
		return m.Premium, nil
	default:
		return "", fmt.Errorf("unknown chat tier: %s", tier)
	}
}
