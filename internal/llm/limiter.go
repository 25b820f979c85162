package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limited wraps a Generator with a token-bucket request budget so the
// autonomy loop and the chat path together cannot exceed the provider quota.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited allows perMinute requests per minute with the given burst.
func NewLimited(next Generator, perMinute, burst int) *Limited {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(perMinute)
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Generate waits for a token (bounded by ctx) and forwards the request.
func (l *Limited) Generate(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return l.next.Generate(ctx, req)
}

// GetModel returns the wrapped generator's model.
func (l *Limited) GetModel() string {
	return l.next.GetModel()
}

// Breaker returns the wrapped generator's circuit breaker, if it has one.
func (l *Limited) Breaker() *CircuitBreaker {
	if b, ok := l.next.(interface{ Breaker() *CircuitBreaker }); ok {
		return b.Breaker()
	}
	return nil
}

var _ Generator = (*Limited)(nil)
