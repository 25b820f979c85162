package llm

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
)

// NewGenerator builds the configured chat generator, wrapped in the request budget.
func NewGenerator(cfg config.LLMConfig, logger zerolog.Logger) (*Limited, error) {
	logger = logger.With().Str("component", "llm").Logger()
	breaker := CircuitBreakerConfig{
		MaxFailures:          uint32(cfg.BreakerMaxFailures),
		Timeout:              cfg.BreakerTimeout,
		HalfOpenMaxSuccesses: 1,
	}

	var gen Generator
	switch cfg.Provider {
	case config.ProviderOpenAI:
		gen = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Breaker: breaker,
		}, logger)
	case config.ProviderAnthropic:
		gen = NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicURL,
			Timeout: cfg.Timeout,
			Breaker: breaker,
		}, logger)
	case config.ProviderOllama:
		gen = NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
			Breaker: breaker,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", config.ErrInvalid, cfg.Provider)
	}

	return NewLimited(gen, cfg.RequestsPerMinute, cfg.Burst), nil
}

// NewEmbeddingGenerator builds the embedding client used by semantic memory.
// OpenAI-style model names ("text-embedding-*") go to the chat provider's
// API; everything else is served by the local Ollama server.
func NewEmbeddingGenerator(cfg config.LLMConfig, logger zerolog.Logger) EmbeddingGenerator {
	logger = logger.With().Str("component", "llm.embeddings").Logger()
	breaker := CircuitBreakerConfig{
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		Timeout:     cfg.BreakerTimeout,
	}

	if cfg.Provider == config.ProviderOpenAI && strings.HasPrefix(cfg.EmbeddingModel, "text-embedding") {
		return NewOpenAIEmbeddingClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.EmbeddingModel,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Breaker: breaker,
		}, logger)
	}
	breaker.Name = "ollama-embeddings"
	return NewOllamaClient(OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.EmbeddingModel,
		Timeout: cfg.Timeout,
		Breaker: breaker,
	}, logger)
}
