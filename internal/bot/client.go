package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/pkg/conquest"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("bot: connection closed")

// Message is one server event as seen by a bot. Data stays raw until the
// player knows which payload to expect.
type Message struct {
	Event  string          `json:"event"`
	GameID string          `json:"game_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is an HTTP+WebSocket client for a single bot connection.
type Client struct {
	name     string
	wsURL    string
	token    string
	conn     *websocket.Conn
	events   chan Message
	done     chan struct{}
	readDone chan struct{}
	httpC    *http.Client
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a client that will dial the given websocket URL.
func NewClient(name, wsURL string) *Client {
	return &Client{
		name:   name,
		wsURL:  wsURL,
		events:   make(chan Message, 64),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
		httpC:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the bot name.
func (c *Client) Name() string { return c.name }

// SetToken sets the bearer token presented on dial.
func (c *Client) SetToken(token string) { c.token = token }

// WebSocketURL derives the /ws endpoint from an http(s) base URL.
func WebSocketURL(baseURL string) string {
	return strings.Replace(strings.TrimRight(baseURL, "/"), "http", "ws", 1) + "/ws"
}

// Login signs in as a guest via POST /auth/guest and keeps the access token.
func (c *Client) Login(ctx context.Context, baseURL string) error {
	endpoint := strings.TrimRight(baseURL, "/") + "/auth/guest?name=" + url.QueryEscape(c.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpC.Do(req)
	if err != nil {
		return fmt.Errorf("guest login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("guest login status %d: %s", resp.StatusCode, body)
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("decode tokens: %w", err)
	}
	c.token = tokens.AccessToken
	log.Debug().Str("bot", c.name).Msg("Bot logged in")
	return nil
}

// FetchBoard downloads the board the server plays on.
func (c *Client) FetchBoard(ctx context.Context, baseURL string) (*conquest.Board, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/v1/board", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpC.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET /api/v1/board: status %d: %s", resp.StatusCode, body)
	}
	return conquest.LoadBoard(resp.Body)
}

// Dial opens the websocket connection and starts delivering events.
func (c *Client) Dial(ctx context.Context) error {
	target := c.wsURL
	if c.token != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "token=" + url.QueryEscape(c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.conn = conn

	go c.readLoop()
	return nil
}

// Events returns the channel of incoming events. It is closed when the
// connection drops.
func (c *Client) Events() <-chan Message { return c.events }

// Send writes one event to the server.
func (c *Client) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(outbound{Event: event, Data: data})
}

// Close closes the websocket connection and returns once the reader has
// stopped. Events nobody consumed are dropped.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
	c.mu.Unlock()

	if conn != nil {
		<-c.readDone
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer close(c.events)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				log.Debug().Err(err).Str("bot", c.name).Msg("WS read error")
			}
			return
		}
		var ev Message
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
