package conquest

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// AddPlayer seats a connection as a player. Players can only join in the lobby.
func (m *Match) AddPlayer(id, name string) error {
	if m.started {
		return invalid("join", ErrAlreadyStarted)
	}
	if m.member(id) {
		return invalid("join", ErrAlreadyJoined)
	}
	m.players = append(m.players, &Player{ID: id, Name: name})
	if m.turn < 0 {
		m.turn = 0
	}
	return nil
}

// RemovePlayer drops a player and keeps the turn index pointing at a current
// player. Territories the player held stay under their id.
func (m *Match) RemovePlayer(id string) bool {
	idx := m.playerIndex(id)
	if idx < 0 {
		return false
	}
	hadTurn := idx == m.turn
	m.players = slices.Delete(m.players, idx, idx+1)

	switch {
	case len(m.players) == 0:
		m.turn = -1
	case idx < m.turn:
		m.turn--
	case hadTurn:
		m.turn %= len(m.players)
		if m.placementFinished && !m.Over() {
			m.grantTurn(m.players[m.turn])
		} else if m.started && !m.placementFinished {
			m.settlePlacement()
		}
	}
	return true
}

// Player returns the player with the given id, or nil.
func (m *Match) Player(id string) *Player {
	if i := m.playerIndex(id); i >= 0 {
		return m.players[i]
	}
	return nil
}

// Players returns a copy of the players in turn order.
func (m *Match) Players() []Player {
	out := make([]Player, len(m.players))
	for i, p := range m.players {
		out[i] = *p
	}
	return out
}

// PlayerIDs returns player ids in turn order.
func (m *Match) PlayerIDs() []string {
	ids := make([]string, len(m.players))
	for i, p := range m.players {
		ids[i] = p.ID
	}
	return ids
}

// IsPlayer reports whether id is seated as a player.
func (m *Match) IsPlayer(id string) bool { return m.playerIndex(id) >= 0 }

// PlayerTurn returns the index of the player whose turn it is, or -1.
func (m *Match) PlayerTurn() int { return m.turn }

// CurrentPlayer returns the player whose turn it is, or nil.
func (m *Match) CurrentPlayer() *Player {
	if m.turn < 0 || m.turn >= len(m.players) {
		return nil
	}
	return m.players[m.turn]
}

// IsPlayerTurn reports whether it is id's turn.
func (m *Match) IsPlayerTurn(id string) bool {
	p := m.CurrentPlayer()
	return p != nil && p.ID == id
}

// UpdateTurn passes the turn to the next player, wrapping after the last.
func (m *Match) UpdateTurn() {
	if len(m.players) == 0 {
		m.turn = -1
		return
	}
	m.turn = (m.turn + 1) % len(m.players)
}

// UpdatePlayer changes a player's or spectator's name and color. Nil leaves
// a field unchanged. Colors are fixed once the match has started.
func (m *Match) UpdatePlayer(id string, name, color *string) error {
	p, s := m.Player(id), m.Spectator(id)
	if p == nil && s == nil {
		log.Warn().Str("match", m.ID).Str("player", id).Msg("update for unknown player")
		return invalid("update-player", ErrUnknownPlayer)
	}

	if color != nil {
		if m.started && p != nil && *color != p.Color {
			return invalid("update-player", ErrAlreadyStarted)
		}
		if *color != "" {
			if !slices.Contains(Palette, *color) {
				return invalidf("update-player", ErrInvalidColor, "color %s is not available", *color)
			}
			if owner := m.colorOwner(*color); owner != "" && owner != id {
				return invalid("update-player", ErrColorTaken)
			}
		}
	}

	if p != nil {
		if name != nil {
			p.Name = *name
		}
		if color != nil {
			p.Color = *color
		}
		return nil
	}
	if name != nil {
		s.Name = *name
	}
	if color != nil {
		s.Color = *color
	}
	return nil
}

// ColorOptions returns the palette colors nobody has picked yet.
func (m *Match) ColorOptions() []string {
	out := []string{}
	for _, c := range Palette {
		if m.colorOwner(c) == "" {
			out = append(out, c)
		}
	}
	return out
}

// RemoveInactive drops every player and spectator for which active returns
// false and returns the removed ids.
func (m *Match) RemoveInactive(active func(id string) bool) []string {
	var removed []string
	for _, id := range m.PlayerIDs() {
		if !active(id) {
			m.RemovePlayer(id)
			removed = append(removed, id)
		}
	}
	for _, s := range m.Spectators() {
		if !active(s.ID) {
			m.RemoveSpectator(s.ID)
			removed = append(removed, s.ID)
		}
	}
	return removed
}

// TotalReinforcements sums every player's unplaced reinforcements.
func (m *Match) TotalReinforcements() int {
	n := 0
	for _, p := range m.players {
		n += p.Reinforcements
	}
	return n
}

func (m *Match) playerIndex(id string) int {
	return slices.IndexFunc(m.players, func(p *Player) bool { return p.ID == id })
}

func (m *Match) member(id string) bool {
	return m.IsPlayer(id) || m.IsSpectator(id)
}

func (m *Match) colorOwner(color string) string {
	for _, p := range m.players {
		if p.Color == color {
			return p.ID
		}
	}
	for _, s := range m.spectators {
		if s.Color == color {
			return s.ID
		}
	}
	return ""
}

// skipSpentPlayers moves the turn past players with nothing left to place
// while somebody still holds starting reinforcements.
func (m *Match) skipSpentPlayers() {
	if m.TotalReinforcements() == 0 {
		return
	}
	for range m.players {
		if p := m.CurrentPlayer(); p != nil && p.Reinforcements > 0 {
			return
		}
		m.UpdateTurn()
	}
}
