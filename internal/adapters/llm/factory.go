package llm

import (
	"cortex/internal/adapters/config"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// NewFromConfig builds the configured LLM client.
// Returns (nil, nil) when no API key is configured: callers treat a nil
// client as "no LLM available" and fall back to template responses.
func NewFromConfig(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			logger.Warn("No Gemini API key configured, LLM responses disabled")
			return nil, nil
		}
		return NewGeminiClient(cfg.GeminiKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxTokens, cfg.RateLimitRPS)
	case "openai":
		if cfg.OpenAIKey == "" {
			logger.Warn("No OpenAI API key configured, LLM responses disabled")
			return nil, nil
		}
		return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Temperature, cfg.MaxTokens, cfg.RateLimitRPS)
	case "none", "":
		return nil, nil
	default:
		return nil, errors.Wrapf(errors.ErrConfiguration, "unknown LLM provider %q", cfg.Provider)
	}
}
