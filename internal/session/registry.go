package session

import "github.com/freeeve/conquest/pkg/conquest"

// Registry bundles the session and connection maps. It is built once at
// startup and passed to the layers that resolve sessions.
type Registry struct {
	Games *GameManager
	Rooms *RoomManager
}

// NewRegistry creates a Registry whose matches are built by factory.
func NewRegistry(factory MatchFactory) *Registry {
	return &Registry{
		Games: NewGameManager(factory),
		Rooms: NewRoomManager(),
	}
}

// MatchFor resolves the match a connection is in. It returns nil when the
// connection is unassigned or its match is gone.
func (r *Registry) MatchFor(connID string) (string, *conquest.Match) {
	sessionID, ok := r.Rooms.Lookup(connID)
	if !ok {
		return Unassigned, nil
	}
	return sessionID, r.Games.Get(sessionID)
}
