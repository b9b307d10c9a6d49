package conquest

import "github.com/rs/zerolog/log"

// Territory returns the claimed state of a territory. ok is false for
// unclaimed or unknown ids.
func (m *Match) Territory(id string) (Territory, bool) {
	t, ok := m.territories[id]
	if !ok {
		return Territory{}, false
	}
	return *t, true
}

// Territories returns a copy of every claimed territory.
func (m *Match) Territories() map[string]Territory {
	out := make(map[string]Territory, len(m.territories))
	for id, t := range m.territories {
		out[id] = *t
	}
	return out
}

// AvailableTerritories returns the unclaimed territories in board order.
func (m *Match) AvailableTerritories() []string {
	out := []string{}
	for _, id := range m.board.TerritoryIDs() {
		if _, claimed := m.territories[id]; !claimed {
			out = append(out, id)
		}
	}
	return out
}

// PlayerTerritories returns the territories owned by playerID in board order.
func (m *Match) PlayerTerritories(playerID string) []string {
	var out []string
	for _, id := range m.board.TerritoryIDs() {
		if t, ok := m.territories[id]; ok && t.Owner == playerID {
			out = append(out, id)
		}
	}
	return out
}

// TerritoryMap groups owned territories by current player.
func (m *Match) TerritoryMap() map[string][]string {
	out := make(map[string][]string, len(m.players))
	for _, p := range m.players {
		out[p.ID] = m.PlayerTerritories(p.ID)
	}
	return out
}

// ContinentOwnership returns the continents playerID holds in full, sorted.
// It is derived from current ownership on every call.
func (m *Match) ContinentOwnership(playerID string) []string {
	out := []string{}
	for _, id := range m.board.ContinentIDs() {
		c, _ := m.board.Continent(id)
		if m.ownsAll(playerID, c.Territories) {
			out = append(out, id)
		}
	}
	return out
}

// AllContinentOwnership returns ContinentOwnership for every current player.
func (m *Match) AllContinentOwnership() map[string][]string {
	out := make(map[string][]string, len(m.players))
	for _, p := range m.players {
		out[p.ID] = m.ContinentOwnership(p.ID)
	}
	return out
}

// IsPlayersTerritory reports whether playerID owns territory.
func (m *Match) IsPlayersTerritory(territory, playerID string) bool {
	t, ok := m.territories[territory]
	return ok && t.Owner == playerID
}

// ClaimTerritory gives an unclaimed territory to the player whose turn it is,
// paying one army from their reinforcements, then passes the turn.
func (m *Match) ClaimTerritory(territory, playerID string) error {
	const op = "claim"
	if err := m.placementGuard(op, playerID); err != nil {
		return err
	}
	if !m.knownTerritory(op, territory) {
		return invalidf(op, ErrUnknownTerritory, "territory %s does not exist", territory)
	}
	if _, claimed := m.territories[territory]; claimed {
		return invalidf(op, ErrTerritoryClaimed, "territory %s is already claimed", territory)
	}
	p := m.Player(playerID)
	if p.Color == "" {
		return invalid(op, ErrNoColor)
	}
	if p.Reinforcements < 1 {
		return invalid(op, ErrNoReinforcements)
	}

	m.territories[territory] = &Territory{Owner: p.ID, Color: p.Color, Armies: 1}
	p.Reinforcements--
	m.advancePlacement()
	return nil
}

// ClearTerritoryClaim returns a territory to the unclaimed pool. Its armies
// are discarded.
func (m *Match) ClearTerritoryClaim(territory string) error {
	if _, ok := m.territories[territory]; !ok {
		return invalidf("clear", ErrTerritoryUnclaimed, "territory %s has not been claimed yet", territory)
	}
	delete(m.territories, territory)
	return nil
}

// LoseArmies removes n armies from a claimed territory. Removing more armies
// than are present panics with *InvariantError.
func (m *Match) LoseArmies(territory string, n int) {
	t, ok := m.territories[territory]
	if !ok || n < 0 || n > t.Armies {
		have := 0
		if ok {
			have = t.Armies
		}
		panic(&InvariantError{Territory: territory, Armies: have, Remove: n})
	}
	t.Armies -= n
}

// TotalArmies sums armies over all claimed territories.
func (m *Match) TotalArmies() int {
	n := 0
	for _, t := range m.territories {
		n += t.Armies
	}
	return n
}

// ArmiesInPlay is the conserved quantity: armies on the board plus armies
// still held as reinforcements.
func (m *Match) ArmiesInPlay() int {
	return m.TotalArmies() + m.TotalReinforcements()
}

func (m *Match) ownsAll(playerID string, territories []string) bool {
	if len(territories) == 0 {
		return false
	}
	for _, id := range territories {
		if !m.IsPlayersTerritory(id, playerID) {
			return false
		}
	}
	return true
}

func (m *Match) knownTerritory(op, id string) bool {
	if m.board.HasTerritory(id) {
		return true
	}
	log.Warn().Str("match", m.ID).Str("op", op).Str("territory", id).Msg("territory does not exist")
	return false
}

// playerOf resolves a player id or logs the miss.
func (m *Match) playerOf(op, id string) *Player {
	p := m.Player(id)
	if p == nil {
		log.Warn().Str("match", m.ID).Str("op", op).Str("player", id).Msg("player does not exist")
	}
	return p
}
