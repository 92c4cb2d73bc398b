package llm

import (
	"context"
	"time"
)

// Completer is the text-completion collaborator: one prompt in, one generated
// response out. No determinism is guaranteed.
type Completer interface {
	// Name returns the provider name
	Name() string

	// Complete issues a single completion call against the given model
	Complete(ctx context.Context, model, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds completion provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific default when a call passes "")
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string

	// Timeout per request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60 * time.Second,
		MaxTokens: 1024,
	}
}
