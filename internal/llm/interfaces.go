// Package llm talks to the language-model collaborator. Every client is
// wrapped in a circuit breaker and reports failures with the sentinel errors
// below so callers can fall back to degraded behavior.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the provider could not be reached or refused the call.
	ErrUnavailable = errors.New("llm: collaborator unavailable")
	// ErrMalformed means the provider answered with something unusable.
	ErrMalformed = errors.New("llm: malformed response")
	// ErrRateLimited means the local request budget was exhausted.
	ErrRateLimited = errors.New("llm: rate limited")
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation call. System and User may be empty;
// History sits between them.
type Request struct {
	System      string
	History     []Message
	User        string
	Temperature float64
	// MaxTokens of zero leaves the provider default.
	MaxTokens int
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Messages flattens the request into the chat message list.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, len(r.History)+2)
	if r.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.System})
	}
	msgs = append(msgs, r.History...)
	if r.User != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: r.User})
	}
	return msgs
}

// Generator produces text from a chat request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}
