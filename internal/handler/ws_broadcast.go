package handler

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/service"
)

var _ service.Broadcaster = (*Hub)(nil)

// Send implements service.Broadcaster for a single connection.
func (h *Hub) Send(connID string, ev service.Event) {
	data, ok := encodeEvent(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.connections[connID]; ok {
		h.deliver(c, data, ev.Event)
	}
}

// Broadcast implements service.Broadcaster for a room.
func (h *Hub) Broadcast(connIDs []string, ev service.Event) {
	data, ok := encodeEvent(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := h.connections[id]; ok {
			h.deliver(c, data, ev.Event)
		}
	}
}

// BroadcastAll implements service.Broadcaster for every connection.
func (h *Hub) BroadcastAll(ev service.Event) {
	data, ok := encodeEvent(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		h.deliver(c, data, ev.Event)
	}
}

func encodeEvent(ev service.Event) ([]byte, bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Event).Str("gameId", ev.GameID).Msg("Failed to marshal WebSocket event")
		return nil, false
	}
	return data, true
}
