package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
	// CountTokens estimates the token count of text for this provider's
	// tokenizer. Providers without a local tokenizer fall back to the same
	// chars/4 estimate used for conversation-history budgeting.
	CountTokens(text string) int
}

// DefaultCountTokens is the conservative fallback token estimate
// (characters/4) shared by every HTTP-based provider in this package, none
// of which expose a local tokenizer.
func DefaultCountTokens(text string) int {
	return len([]rune(text)) / 4
}
