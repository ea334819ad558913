package chain

import "context"

// Backend is the text generation service invoked by nodes.
//
// Both methods return an empty string and a nil error when the backend legitimately
// produced no content. Implementations must be safe for concurrent use.
type Backend interface {
	Complete(ctx context.Context, prompt string, tier TextTier, maxTokens int) (string, error)
	Chat(ctx context.Context, messages []Message, tier ChatTier, maxTokens int) (string, error)
}
