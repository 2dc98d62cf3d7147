package llm

import (
	"fmt"

	"cardsage/internal/config"
	"cardsage/internal/eventbus"
)

// NewProvider creates an LLM provider from config.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "openrouter", "local":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewProviderChain creates the primary provider, wrapped in a fallback
// chain when a fallback config is present. Provider switches are
// announced on bus.
func NewProviderChain(primary config.LLMConfig, fallback *config.LLMConfig, bus *eventbus.Bus) (Provider, error) {
	p, err := NewProvider(primary)
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return p, nil
	}
	f, err := NewProvider(*fallback)
	if err != nil {
		return nil, err
	}
	return NewFallbackProvider(bus, p, f), nil
}
