// Package server provides HTTP server initialization and lifecycle management
// for the agent's API and event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/web/handlers"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the address being
// listened on (useful with port 0) and the WebSocketHub, which the caller
// registers as an event sink. The server shuts down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, agent handlers.Agent, logger zerolog.Logger) (string, *handlers.WebSocketHub, error) {
	logger = logger.With().Str("component", "server").Logger()
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub(cfg.Server.AllowedOrigins, logger)
	go wsHub.Run()

	rps, burst := cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	rateLimiter := handlers.NewRateLimiter(rps, burst)

	api := handlers.NewAPIHandlers(agent, logger)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/chat", api.Chat)
	apiMux.HandleFunc("/api/state", api.GetState)
	apiMux.HandleFunc("/api/status", api.GetStatus)
	apiMux.HandleFunc("/api/mute", api.Mute)

	// Health: no auth, used by monitoring.
	health := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		st := agent.Status(r.Context())
		w.Header().Set("Content-Type", "application/json")
		writeHealth(w, handlers.HealthResponse{
			Status:      "online",
			Version:     Version,
			Name:        agent.State().Name,
			Mood:        string(st.Mood),
			Creator:     st.Creator,
			Subscribers: wsHub.Clients(),
		})
	}
	mux.HandleFunc("/health", health)
	mux.HandleFunc("/api/health", health)

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Event stream: origin validation instead of bearer auth, since browsers
	// cannot set headers on a WebSocket handshake.
	mux.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chat turns wait on the language model
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		wsHub.Stop()
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("server shutdown error")
		}
		wsHub.Stop()
	}()

	logger.Info().Str("addr", actualAddr).Msg("listening")
	return actualAddr, wsHub, nil
}

func writeHealth(w http.ResponseWriter, h handlers.HealthResponse) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h)
}
