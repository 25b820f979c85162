package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/agent"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Agent is the surface the API serves. *agent.Agent implements it.
type Agent interface {
	Chat(ctx context.Context, input string) agent.Reply
	State() agent.Snapshot
	Status(ctx context.Context) agent.Status
	Muted() bool
	SetMuted(ctx context.Context, muted bool) bool
}

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	agent  Agent
	logger zerolog.Logger
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(a Agent, logger zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		agent:  a,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Chat handles POST /api/chat. In-character failures are still 200 with
// success false; only malformed requests are errors.
func (h *APIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	reply := h.agent.Chat(r.Context(), req.Message)
	h.logger.Debug().
		Bool("success", reply.Success).
		Str("tool", string(reply.ToolUsed)).
		Str("mood", string(reply.Mood)).
		Msg("chat turn")
	respondJSON(w, http.StatusOK, reply)
}

// GetState handles GET /api/state.
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.agent.State())
}

// GetStatus handles GET /api/status.
func (h *APIHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.agent.Status(r.Context()))
}

// Mute handles GET /api/mute (read) and POST /api/mute (set).
func (h *APIHandlers) Mute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, MuteResponse{Muted: h.agent.Muted()})

	case http.MethodPost:
		var req MuteRequest
		if err := decodeBody(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		muted := h.agent.SetMuted(r.Context(), req.Muted)
		msg := "Voice enabled."
		if muted {
			msg = "Voice silenced."
		}
		respondJSON(w, http.StatusOK, MuteResponse{Muted: muted, Message: msg})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; an encoding failure cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}

// writeError writes an error response with a machine-readable code.
func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}
