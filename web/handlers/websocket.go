package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/animus/pkg/types"
)

var pongMessage = []byte(`{"type":"pong"}`)

// WebSocketHub keeps the set of connected subscribers and broadcasts agent
// events to them. A subscriber that cannot keep up is disconnected rather
// than allowed to stall the others.
type WebSocketHub struct {
	clients    map[clientInterface]bool
	broadcast  chan interface{}
	register   chan clientInterface
	unregister chan clientInterface
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	origins    []string
	logger     zerolog.Logger
}

// clientInterface allows for both real clients and mock clients.
type clientInterface interface {
	getSendChannel() chan []byte
	close()
}

// Client represents a WebSocket connection.
type Client struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewWebSocketHub creates a hub accepting connections from the given origin
// host patterns (path.Match syntax, e.g. "localhost:*"). Same-host origins
// are always accepted.
func NewWebSocketHub(allowedOrigins []string, logger zerolog.Logger) *WebSocketHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHub{
		clients:    make(map[clientInterface]bool),
		broadcast:  make(chan interface{}, 256),
		register:   make(chan clientInterface),
		unregister: make(chan clientInterface),
		ctx:        ctx,
		cancel:     cancel,
		origins:    allowedOrigins,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run starts the hub's message processing loop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("total", count).Msg("subscriber connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.getSendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("total", count).Msg("subscriber disconnected")

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to marshal broadcast")
				continue
			}

			// Full lock: slow clients are removed in the default branch.
			h.mu.Lock()
			for client := range h.clients {
				sendChan := client.getSendChannel()
				select {
				case sendChan <- data:
				default:
					close(sendChan)
					delete(h.clients, client)
					h.logger.Warn().Msg("dropping slow subscriber")
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *WebSocketHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.getSendChannel())
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// Broadcast queues a message for every connected client. It never blocks;
// when the queue is full the message is dropped.
func (h *WebSocketHub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Msg("broadcast queue full, dropping message")
	}
}

// Publish broadcasts an agent event.
func (h *WebSocketHub) Publish(_ context.Context, ev types.Event) {
	h.Broadcast(ev)
}

// Clients reports how many subscribers are connected.
func (h *WebSocketHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WebSocketHub) Register(client clientInterface) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub.
func (h *WebSocketHub) Unregister(client clientInterface) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// reply sends data to one client if it is still registered.
func (h *WebSocketHub) reply(client clientInterface, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.getSendChannel() <- data:
	default:
	}
}

func (h *WebSocketHub) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, pattern := range h.origins {
		if ok, _ := path.Match(strings.ToLower(pattern), strings.ToLower(u.Host)); ok {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.originAllowed(r) {
		http.Error(w, "Forbidden: invalid origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin was checked above.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// writePump sends messages to the WebSocket connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()

		if err != nil {
			c.hub.logger.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// readPump answers "ping" with a pong and otherwise drains the connection to
// notice disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(c.hub.ctx)
		if err != nil {
			return
		}
		if strings.TrimSpace(string(data)) == "ping" {
			c.hub.reply(c, pongMessage)
		}
	}
}

// MockClient is a mock client for testing.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) getSendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {
	// No-op for mock client
}
