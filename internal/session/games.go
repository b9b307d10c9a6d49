package session

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/pkg/conquest"
)

// MatchFactory builds a new empty match for a session id.
type MatchFactory func(id string) *conquest.Match

// GameManager maps session ids to live matches.
type GameManager struct {
	mu      sync.RWMutex
	games   map[string]*conquest.Match
	factory MatchFactory
}

// NewGameManager creates a GameManager. A nil factory creates matches on the
// standard board with manual modes.
func NewGameManager(factory MatchFactory) *GameManager {
	if factory == nil {
		factory = func(id string) *conquest.Match {
			return conquest.NewMatch(id, conquest.StandardBoard(), conquest.Options{})
		}
	}
	return &GameManager{
		games:   make(map[string]*conquest.Match),
		factory: factory,
	}
}

// GetOrCreate returns the match for id, creating it on first reference.
// Repeated calls return the same instance until it is deleted.
func (gm *GameManager) GetOrCreate(id string) *conquest.Match {
	if id == "" {
		log.Warn().Msg("GetOrCreate called with empty session id")
		return nil
	}

	gm.mu.RLock()
	m, ok := gm.games[id]
	gm.mu.RUnlock()
	if ok {
		return m
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if m, ok := gm.games[id]; ok {
		return m
	}
	m = gm.factory(id)
	gm.games[id] = m
	log.Debug().Str("session", id).Msg("Match created")
	return m
}

// Get returns the match for id, or nil.
func (gm *GameManager) Get(id string) *conquest.Match {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.games[id]
}

// Delete removes the match for id. It reports whether one existed.
func (gm *GameManager) Delete(id string) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if _, ok := gm.games[id]; !ok {
		return false
	}
	delete(gm.games, id)
	log.Debug().Str("session", id).Msg("Match deleted")
	return true
}

// List returns every live session id, sorted.
func (gm *GameManager) List() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	ids := make([]string, 0, len(gm.games))
	for id := range gm.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live matches.
func (gm *GameManager) Len() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}
