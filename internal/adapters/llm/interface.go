package llm

import "context"

// Client defines the contract each LLM provider implementation must satisfy.
type Client interface {
	// Name returns the provider identifier (e.g. "gemini", "openai").
	Name() string

	// Complete generates a text completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}
