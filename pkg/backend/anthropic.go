package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/harun/cheetah/pkg/chain"
	"github.com/rs/zerolog"
)

// The messages API requires max_tokens on every request.
const defaultMaxTokens = 1024

// AnthropicClient implements chain.Backend for Anthropic Claude
type AnthropicClient struct {
	client anthropic.Client
	models ModelMap
	logger zerolog.Logger
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(settings Settings) *AnthropicClient {
	opts := []option.RequestOption{option.WithMaxRetries(settings.MaxRetries)}
	if settings.APIKey != "" {
		opts = append(opts, option.WithAPIKey(settings.APIKey))
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	if settings.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(settings.Timeout))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		models: settings.Models.WithDefaults(DefaultAnthropicModels()),
		logger: settings.Logger,
	}
}

// Provider returns the provider name
func (c *AnthropicClient) Provider() string {
	return ProviderAnthropic
}

// Complete sends the prompt as a single user message.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, tier chain.TextTier, maxTokens int) (string, error) {
	model, err := c.models.TextModel(tier)
	if err != nil {
		return "", err
	}
	return c.send(ctx, model, []chain.Message{{Role: chain.RoleUser, Content: prompt}}, maxTokens)
}

// Chat sends messages; system messages are lifted into the system prompt.
func (c *AnthropicClient) Chat(ctx context.Context, messages []chain.Message, tier chain.ChatTier, maxTokens int) (string, error) {
	model, err := c.models.ChatModel(tier)
	if err != nil {
		return "", err
	}
	return c.send(ctx, model, messages, maxTokens)
}

func (c *AnthropicClient) send(ctx context.Context, model string, messages []chain.Message, maxTokens int) (string, error) {
	var system []string
	anthropicMessages := []anthropic.MessageParam{}

	for _, msg := range messages {
		switch msg.Role {
		case chain.RoleSystem:
			system = append(system, msg.Content)
		case chain.RoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
			})
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if len(anthropicMessages) == 0 {
		return "", fmt.Errorf("anthropic request needs at least one non-system message")
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  anthropicMessages,
		MaxTokens: int64(maxTokens),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message failed: %w", err)
	}

	var content strings.Builder
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(b.Text)
		}
	}

	c.logger.Debug().
		Str("model", model).
		Int64("output_tokens", response.Usage.OutputTokens).
		Msg("Message received")
	return content.String(), nil
}
