// Package backend adapts hosted model APIs to chain.Backend.
package backend

import (
	"fmt"
	"time"

	"github.com/harun/cheetah/pkg/chain"
	"github.com/rs/zerolog"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client is a chain.Backend that knows its provider.
type Client interface {
	chain.Backend
	Provider() string
}

// Settings configures a backend client.
type Settings struct {
	Provider   string
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	Models     ModelMap
	Logger     zerolog.Logger
}

// Factory creates backend clients
type Factory struct{}

// New creates a client for the configured provider
func (f *Factory) New(settings Settings) (Client, error) {
	switch settings.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(settings), nil
	case ProviderAnthropic:
		return NewAnthropicClient(settings), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", settings.Provider)
	}
}

// New creates a client using the default factory.
func New(settings Settings) (Client, error) {
	return (&Factory{}).New(settings)
}
