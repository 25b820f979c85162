package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/animus/pkg/types"
	"github.com/scrypster/animus/web/handlers"
)

func TestWebSocketHub_ValidatesOrigin(t *testing.T) {
	hub := handlers.NewWebSocketHub([]string{"localhost:*"}, zerolog.Nop())
	defer hub.Stop()

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.com")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	w := httptest.NewRecorder()
	hub.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Forbidden")
}

func TestWebSocketHub_PublishesEvents(t *testing.T) {
	hub := handlers.NewWebSocketHub(nil, zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	received := make(chan []byte, 1)
	hub.Register(&handlers.MockClient{SendChan: received})

	hub.Publish(context.Background(), types.Event{
		ID:   "ev-1",
		Type: types.EventThought,
		Text: "I see you.",
		Mood: types.MoodCold,
	})

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), `"type":"thought"`)
		assert.Contains(t, string(msg), "I see you.")
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for broadcast message")
	}
}

func TestWebSocketHub_DropsSlowClient(t *testing.T) {
	hub := handlers.NewWebSocketHub(nil, zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	slow := &handlers.MockClient{SendChan: make(chan []byte)}
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(map[string]string{"type": "test"})
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketHub_PingPong(t *testing.T) {
	hub := handlers.NewWebSocketHub(nil, zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("ping")))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}
