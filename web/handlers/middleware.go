// Package handlers provides the HTTP handlers and middleware of the agent's
// API: chat, state inspection, mute control and the event stream.
package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/animus/internal/config"
)

// RequireAuth is middleware that enforces API token authentication in production mode.
// In development mode, all requests are allowed through.
func RequireAuth(next http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Security.Mode != config.ModeProduction {
			next.ServeHTTP(w, r)
			return
		}

		expectedToken := cfg.Security.APIToken
		if expectedToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimiter wraps a rate.Limiter for HTTP middleware.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// reqPerSec is the sustained rate, burst is the maximum burst size.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Duration(1000.0/reqPerSec)*time.Millisecond), burst),
	}
}

// RateLimitMiddleware enforces rate limiting on HTTP requests.
func RateLimitMiddleware(next http.Handler, rl *RateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE_LIMITED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
