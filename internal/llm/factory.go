package llm

import (
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/config"
)

// NewCompleter creates a completion provider based on configuration
func NewCompleter(cfg Config) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)

	case "ollama":
		return NewOllamaProvider(cfg)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", cfg.Provider)
	}
}

// ConfigFrom converts the application LLM section to llm.Config
func ConfigFrom(c config.LLMConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
	}
}
