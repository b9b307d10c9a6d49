package service

// Event is the envelope for every message sent to a connection.
type Event struct {
	Event  string `json:"event"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// Broadcaster delivers events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	Send(connID string, ev Event)
	Broadcast(connIDs []string, ev Event)
	BroadcastAll(ev Event)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Send(string, Event)        {}
func (NoopBroadcaster) Broadcast([]string, Event) {}
func (NoopBroadcaster) BroadcastAll(Event)        {}
