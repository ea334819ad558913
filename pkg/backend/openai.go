package backend

import (
	"context"
	"fmt"

	"github.com/harun/cheetah/pkg/chain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// OpenAIClient implements chain.Backend for OpenAI
type OpenAIClient struct {
	client openai.Client
	models ModelMap
	logger zerolog.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(settings Settings) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(openAIOptions(settings)...),
		models: settings.Models.WithDefaults(DefaultOpenAIModels()),
		logger: settings.Logger,
	}
}

func openAIOptions(s Settings) []option.RequestOption {
	opts := []option.RequestOption{option.WithMaxRetries(s.MaxRetries)}
	if s.APIKey != "" {
		opts = append(opts, option.WithAPIKey(s.APIKey))
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(s.Timeout))
	}
	return opts
}

// Provider returns the provider name
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

// Complete calls the legacy completions endpoint.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, tier chain.TextTier, maxTokens int) (string, error) {
	model, err := c.models.TextModel(tier)
	if err != nil {
		return "", err
	}

	params := openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(model),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	response, err := c.client.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		c.logger.Debug().Str("model", model).Msg("No completion choices returned")
		return "", nil
	}

	c.logger.Debug().
		Str("model", model).
		Int64("output_tokens", response.Usage.CompletionTokens).
		Msg("Completion received")
	return response.Choices[0].Text, nil
}

// Chat calls the chat completions endpoint.
func (c *OpenAIClient) Chat(ctx context.Context, messages []chain.Message, tier chain.ChatTier, maxTokens int) (string, error) {
	model, err := c.models.ChatModel(tier)
	if err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	response, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		c.logger.Debug().Str("model", model).Msg("No chat choices returned")
		return "", nil
	}

	c.logger.Debug().
		Str("model", model).
		Int64("output_tokens", response.Usage.CompletionTokens).
		Msg("Chat completion received")
	return response.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []chain.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chain.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case chain.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
