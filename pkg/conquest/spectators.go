package conquest

import "slices"

// AddSpectator seats a connection as an observer.
func (m *Match) AddSpectator(id, name string) error {
	if m.member(id) {
		return invalid("spectate", ErrAlreadyJoined)
	}
	m.spectators = append(m.spectators, &Spectator{ID: id, Name: name})
	return nil
}

// RemoveSpectator drops a spectator.
func (m *Match) RemoveSpectator(id string) bool {
	idx := slices.IndexFunc(m.spectators, func(s *Spectator) bool { return s.ID == id })
	if idx < 0 {
		return false
	}
	m.spectators = slices.Delete(m.spectators, idx, idx+1)
	return true
}

// Spectator returns the spectator with the given id, or nil.
func (m *Match) Spectator(id string) *Spectator {
	for _, s := range m.spectators {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Spectators returns a copy of the spectators in join order.
func (m *Match) Spectators() []Spectator {
	out := make([]Spectator, len(m.spectators))
	for i, s := range m.spectators {
		out[i] = *s
	}
	return out
}

// IsSpectator reports whether id is watching this match.
func (m *Match) IsSpectator(id string) bool { return m.Spectator(id) != nil }
