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

const anthropicVersion = "2023-06-01"

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	Model   string        // default: claude-haiku-4-5
	BaseURL string        // default: https://api.anthropic.com/v1
	Timeout time.Duration // default: 60s
	Breaker CircuitBreakerConfig
}

// AnthropicClient implements Generator using the Anthropic Messages API.
type AnthropicClient struct {
	cfg            AnthropicConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewAnthropicClient creates a new Anthropic client with the given configuration.
func NewAnthropicClient(cfg AnthropicConfig, logger zerolog.Logger) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "anthropic"
	}
	return &AnthropicClient{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreakerWithConfig(cfg.Breaker, logger),
	}
}

// anthropicMessagesRequest is the request body for POST /v1/messages.
// The system prompt is a top-level field, not a message.
type anthropicMessagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

type anthropicMessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the conversation to the Messages API and returns the text blocks.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	return result.(string), nil
}

func (c *AnthropicClient) generate(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	system := r.System
	if r.JSON {
		system = strings.TrimSpace(system + "\nRespond with a single JSON object and nothing else.")
	}

	msgs := make([]Message, 0, len(r.History)+1)
	for _, m := range r.History {
		if m.Role == RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	if r.User != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: r.User})
	}

	reqBody := anthropicMessagesRequest{
		Model:       c.cfg.Model,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: min(r.Temperature, 1),
		Messages:    msgs,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var respData anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrMalformed, err)
	}

	var text strings.Builder
	for _, block := range respData.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformed)
	}
	return out, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.cfg.Model
}

// Breaker exposes the client's circuit breaker for status reporting.
func (c *AnthropicClient) Breaker() *CircuitBreaker {
	return c.circuitBreaker
}

var _ Generator = (*AnthropicClient)(nil)
