package handlers

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// MuteRequest is the request body for POST /api/mute.
type MuteRequest struct {
	Muted bool `json:"muted"`
}

// MuteResponse is the response for GET and POST /api/mute.
type MuteResponse struct {
	Muted   bool   `json:"muted"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Mood        string `json:"mood"`
	Creator     string `json:"creator,omitempty"`
	Subscribers int    `json:"subscribers"`
}
