package session

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Unassigned is returned by Lookup for connections not in any session.
const Unassigned = ""

// RoomManager maps connection ids to the session they are in.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]string
}

// NewRoomManager creates an empty RoomManager.
func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[string]string)}
}

// Assign puts a connection in a session, replacing any previous assignment.
func (rm *RoomManager) Assign(connID, sessionID string) {
	if connID == "" || sessionID == "" {
		log.Warn().Str("conn", connID).Str("session", sessionID).Msg("Ignoring assignment with empty id")
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.rooms[connID] = sessionID
}

// Unassign removes a connection from its session and returns the session it
// was in, or Unassigned.
func (rm *RoomManager) Unassign(connID string) string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	sessionID, ok := rm.rooms[connID]
	if !ok {
		return Unassigned
	}
	delete(rm.rooms, connID)
	return sessionID
}

// Lookup returns the session a connection is in.
func (rm *RoomManager) Lookup(connID string) (string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	sessionID, ok := rm.rooms[connID]
	if !ok {
		return Unassigned, false
	}
	return sessionID, true
}

// Members returns the connections assigned to a session, sorted.
func (rm *RoomManager) Members(sessionID string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	var out []string
	for conn, s := range rm.rooms {
		if s == sessionID {
			out = append(out, conn)
		}
	}
	sort.Strings(out)
	return out
}
