package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the circuit breaker is in open state
// and rejects requests to prevent cascading failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name appears in state-change logs.
	Name string

	// MaxFailures is the number of consecutive failures required to trip the circuit.
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning to half-open.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of probe requests allowed while half-open.
	HalfOpenMaxSuccesses uint32
}

// CircuitBreakerMetrics holds metrics about circuit breaker operations.
type CircuitBreakerMetrics struct {
	TotalRequests        uint64 `json:"total_requests"`
	TotalSuccesses       uint64 `json:"total_successes"`
	TotalFailures        uint64 `json:"total_failures"`
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
	ConsecutiveFailures  uint32 `json:"consecutive_failures"`
}

// CircuitBreaker wraps gobreaker to protect collaborator calls.
//
// When closed, requests pass through. After MaxFailures consecutive failures
// the circuit opens and rejects every request with ErrCircuitOpen (also
// matching ErrUnavailable). After Timeout it half-opens and lets probes through.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	metrics CircuitBreakerMetrics
}

// NewCircuitBreaker creates a breaker with three failures and a 30s open window.
func NewCircuitBreaker(logger zerolog.Logger) *CircuitBreaker {
	return NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		Name:                 "llm",
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	}, logger)
}

// NewCircuitBreakerWithConfig creates a new circuit breaker with custom configuration.
func NewCircuitBreakerWithConfig(config CircuitBreakerConfig, logger zerolog.Logger) *CircuitBreaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 3
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = 1
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		cb.record(false)
		return nil, err
	}

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})

	cb.record(err == nil)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrCircuitOpen)
	}
	return result, err
}

// State returns "closed", "open" or "half-open".
func (cb *CircuitBreaker) State() string {
	return cb.breaker.State().String()
}

// Metrics returns the current metrics for the circuit breaker.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	counts := cb.breaker.Counts()
	return CircuitBreakerMetrics{
		TotalRequests:        cb.metrics.TotalRequests,
		TotalSuccesses:       cb.metrics.TotalSuccesses,
		TotalFailures:        cb.metrics.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.TotalRequests++
	if success {
		cb.metrics.TotalSuccesses++
	} else {
		cb.metrics.TotalFailures++
	}
}
