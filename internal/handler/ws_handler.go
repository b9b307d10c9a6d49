package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/freeeve/conquest/internal/auth"
	"github.com/freeeve/conquest/internal/logger"
	"github.com/freeeve/conquest/internal/service"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 8192
	sendBufSize = 256
)

// ErrTooManyIntents is sent to a connection that exceeds its intent rate.
var ErrTooManyIntents = errors.New("too many requests, slow down")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware
	},
}

// WSOptions configures WSHandler.
type WSOptions struct {
	RequireAuth bool
	IntentRate  float64
	IntentBurst int
}

// WSHandler upgrades connections and feeds their intents to the match service.
type WSHandler struct {
	hub    *Hub
	svc    *service.MatchService
	jwtMgr *auth.JWTManager
	opts   WSOptions
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, svc *service.MatchService, jwtMgr *auth.JWTManager, opts WSOptions) *WSHandler {
	if opts.IntentRate <= 0 {
		opts.IntentRate = 20
	}
	if opts.IntentBurst <= 0 {
		opts.IntentBurst = 40
	}
	return &WSHandler{hub: hub, svc: svc, jwtMgr: jwtMgr, opts: opts}
}

// ServeWS handles GET /ws and upgrades to WebSocket.
// A token may be passed as ?token= (WebSocket can't send headers); it is
// required only when RequireAuth is set.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var name string
	token, err := auth.TokenFromRequest(r)
	switch {
	case err == nil:
		id, err := h.jwtMgr.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		name = id.Name
	case errors.Is(err, auth.ErrMissingToken) && !h.opts.RequireAuth:
	default:
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		id:      uuid.New().String(),
		name:    name,
		conn:    conn,
		send:    make(chan []byte, sendBufSize),
		limiter: rate.NewLimiter(rate.Limit(h.opts.IntentRate), h.opts.IntentBurst),
	}
	h.hub.Register(client)
	h.svc.Connect(client.id, name)

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("conn", client.id).Str("name", name).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// readPump reads intents from the WebSocket connection until it closes.
func (h *WSHandler) readPump(c *WSConn) {
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.ForConnection(c.id, "")
	defer func() {
		cancel()
		h.hub.Unregister(c)
		c.conn.Close()
		h.svc.Disconnect(context.Background(), c.id)
		l.Info().Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Event == "" {
			logger.LogBody(l, "malformed", message)
			continue
		}
		if !c.limiter.Allow() {
			l.Warn().Str("event", msg.Event).Msg("Intent rate exceeded")
			h.hub.Send(c.id, service.Event{Event: service.EventGameErrorNotification, Data: ErrTooManyIntents.Error()})
			continue
		}
		h.svc.Handle(ctx, service.Intent{ConnID: c.id, Event: msg.Event, Data: msg.Data})
	}
}

// writePump writes queued events, one frame each, and keeps the connection alive.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
