package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/web/handlers"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		token  string
		header string
		want   int
	}{
		{"development ignores missing header", config.ModeDevelopment, "secret", "", http.StatusOK},
		{"development ignores wrong token", config.ModeDevelopment, "secret", "Bearer nope", http.StatusOK},
		{"production rejects missing header", config.ModeProduction, "secret", "", http.StatusUnauthorized},
		{"production accepts bearer token", config.ModeProduction, "secret", "Bearer secret", http.StatusOK},
		{"production rejects wrong token", config.ModeProduction, "secret", "Bearer secreT", http.StatusUnauthorized},
		{"production rejects bare token", config.ModeProduction, "secret", "secret", http.StatusUnauthorized},
		{"production without configured token rejects all", config.ModeProduction, "", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Security: config.SecurityConfig{Mode: tt.mode, APIToken: tt.token}}
			req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handlers.RequireAuth(okHandler, cfg).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)

			if tt.want == http.StatusUnauthorized {
				var body handlers.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, "UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := handlers.RateLimitMiddleware(okHandler, handlers.NewRateLimiter(1, 3))

	codes := make([]int, 0, 4)
	for range 4 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
