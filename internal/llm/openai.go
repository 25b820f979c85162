package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OpenAIConfig holds configuration for any OpenAI-compatible chat API
// (OpenAI, Groq, OpenRouter, vLLM...).
type OpenAIConfig struct {
	APIKey  string
	Model   string        // default: llama-3.3-70b-versatile
	BaseURL string        // including the version segment, e.g. https://api.groq.com/openai/v1
	Timeout time.Duration // default: 60s
	Breaker CircuitBreakerConfig
}

// OpenAIClient implements Generator using the chat completions API.
type OpenAIClient struct {
	cfg            OpenAIConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewOpenAIClient creates a new OpenAI-compatible client with the given configuration.
func NewOpenAIClient(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "openai"
	}
	return &OpenAIClient{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreakerWithConfig(cfg.Breaker, logger),
	}
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []Message             `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the chat request and returns the first choice's text.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	return result.(string), nil
}

func (c *OpenAIClient) generate(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := openAIChatRequest{
		Model:       c.cfg.Model,
		Messages:    r.Messages(),
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
	if r.JSON {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	var respData openAIChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &respData); err != nil {
		return "", err
	}
	if len(respData.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformed)
	}
	text := strings.TrimSpace(respData.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return text, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrMalformed, err)
	}
	return nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.cfg.Model
}

// Breaker exposes the client's circuit breaker for status reporting.
func (c *OpenAIClient) Breaker() *CircuitBreaker {
	return c.circuitBreaker
}

// OpenAIEmbeddingClient implements EmbeddingGenerator using the embeddings API.
type OpenAIEmbeddingClient struct {
	*OpenAIClient
}

// NewOpenAIEmbeddingClient creates an embedding client. cfg.Model names the
// embedding model (default text-embedding-3-small).
func NewOpenAIEmbeddingClient(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIEmbeddingClient {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "openai-embeddings"
	}
	return &OpenAIEmbeddingClient{OpenAIClient: NewOpenAIClient(cfg, logger)}
}

type openAIEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding vector for the given text.
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		var respData openAIEmbeddingResponse
		if err := c.post(ctx, "/embeddings", openAIEmbeddingRequest{Model: c.cfg.Model, Input: text}, &respData); err != nil {
			return nil, err
		}
		if len(respData.Data) == 0 || len(respData.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding", ErrMalformed)
		}
		raw := respData.Data[0].Embedding
		vec := make([]float32, len(raw))
		for i, v := range raw {
			vec[i] = float32(v)
		}
		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	return result.([]float32), nil
}

// Compile-time assertions.
var (
	_ Generator          = (*OpenAIClient)(nil)
	_ EmbeddingGenerator = (*OpenAIEmbeddingClient)(nil)
)
