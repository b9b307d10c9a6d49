package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSConn wraps a WebSocket connection with its id and display name.
type WSConn struct {
	id      string
	name    string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// ID returns the connection id players are keyed by.
func (c *WSConn) ID() string { return c.id }

// Hub tracks live WebSocket connections by id.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*WSConn
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*WSConn)}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
}

// Unregister removes a connection and closes its send queue. It is safe to
// call more than once.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.connections[c.id]; !ok || cur != c {
		return
	}
	delete(h.connections, c.id)
	close(c.send)
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// deliver queues an encoded event without blocking. Callers hold h.mu.
func (h *Hub) deliver(c *WSConn, data []byte, event string) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn", c.id).Str("event", event).Msg("Dropping WebSocket message, buffer full")
	}
}
