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

// OllamaClient handles communication with a local Ollama server.
// It wraps all HTTP calls with circuit breaker protection.
type OllamaClient struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *CircuitBreaker
	model          string
	timeout        time.Duration
}

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	// BaseURL is the base URL for the Ollama API (default: http://localhost:11434)
	BaseURL string

	// Model is the model used for chat or embeddings (default: qwen2.5:7b)
	Model string

	// Timeout is the request timeout duration (default: 60s)
	Timeout time.Duration

	Breaker CircuitBreakerConfig
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// embedRequest represents the request body for /api/embed endpoint
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse holds a 2D array; we always use the first embedding.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaClient creates a new Ollama client, applying defaults for empty fields.
func NewOllamaClient(config OllamaConfig, logger zerolog.Logger) *OllamaClient {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "qwen2.5:7b"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Breaker.Name == "" {
		config.Breaker.Name = "ollama"
	}

	return &OllamaClient{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		client:         &http.Client{Timeout: config.Timeout},
		circuitBreaker: NewCircuitBreakerWithConfig(config.Breaker, logger),
		model:          config.Model,
		timeout:        config.Timeout,
	}
}

// Generate sends a non-streaming chat request to Ollama.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return result.(string), nil
}

func (c *OllamaClient) generate(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	options := map[string]any{"temperature": r.Temperature}
	if r.MaxTokens > 0 {
		options["num_predict"] = r.MaxTokens
	}
	reqBody := ollamaChatRequest{
		Model:    c.model,
		Messages: r.Messages(),
		Stream:   false,
		Options:  options,
	}
	if r.JSON {
		reqBody.Format = "json"
	}

	var respData ollamaChatResponse
	if err := c.post(ctx, "/api/chat", reqBody, &respData); err != nil {
		return "", err
	}
	text := strings.TrimSpace(respData.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return text, nil
}

// Embed generates embeddings for the given text using the configured model.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var respData embedResponse
		if err := c.post(ctx, "/api/embed", embedRequest{Model: c.model, Input: text}, &respData); err != nil {
			return nil, err
		}
		if len(respData.Embeddings) == 0 || len(respData.Embeddings[0]) == 0 {
			return nil, fmt.Errorf("%w: empty embedding vector", ErrMalformed)
		}
		return respData.Embeddings[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	return result.([]float32), nil
}

func (c *OllamaClient) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrMalformed, err)
	}
	return nil
}

// HealthCheck verifies that Ollama is reachable via /api/version.
// It bypasses the circuit breaker since it's a health check itself.
func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: health check failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// GetModel returns the configured model name.
func (c *OllamaClient) GetModel() string {
	return c.model
}

// Breaker exposes the client's circuit breaker for status reporting.
func (c *OllamaClient) Breaker() *CircuitBreaker {
	return c.circuitBreaker
}

// Compile-time assertions that OllamaClient satisfies both LLM interfaces.
var (
	_ Generator          = (*OllamaClient)(nil)
	_ EmbeddingGenerator = (*OllamaClient)(nil)
)
