package conquest

// StartingArmyPool is split evenly between players when a match starts.
const StartingArmyPool = 80

// StartingReinforcements returns each player's share of the starting pool.
func (m *Match) StartingReinforcements() int {
	if len(m.players) == 0 {
		return 0
	}
	return StartingArmyPool / len(m.players)
}

// PlayerReinforcements returns the per-turn allotment for playerID: one army
// per three territories plus the bonus of every continent held in full.
func (m *Match) PlayerReinforcements(playerID string) int {
	n := len(m.PlayerTerritories(playerID)) / 3
	for _, id := range m.ContinentOwnership(playerID) {
		c, _ := m.board.Continent(id)
		n += c.Bonus
	}
	return n
}

// ReinforceTerritory moves one army from playerID's reinforcements onto a
// territory they own. It does not check phase or turn.
func (m *Match) ReinforceTerritory(territory, playerID string) error {
	const op = "reinforce"
	p := m.playerOf(op, playerID)
	if p == nil {
		return invalid(op, ErrUnknownPlayer)
	}
	if !m.knownTerritory(op, territory) {
		return invalidf(op, ErrUnknownTerritory, "territory %s does not exist", territory)
	}
	if !m.IsPlayersTerritory(territory, playerID) {
		return invalidf(op, ErrNotOwner, "can't reinforce %s as you don't own it", territory)
	}
	if p.Reinforcements < 1 {
		return invalid(op, ErrNoReinforcements)
	}
	m.territories[territory].Armies++
	p.Reinforcements--
	return nil
}

// PlaceReinforcement places one starting army once every territory has been
// claimed, then passes the turn.
func (m *Match) PlaceReinforcement(territory, playerID string) error {
	const op = "place"
	if err := m.placementGuard(op, playerID); err != nil {
		return err
	}
	if len(m.AvailableTerritories()) > 0 {
		return invalidf(op, ErrWrongStage, "claim a territory first")
	}
	if err := m.ReinforceTerritory(territory, playerID); err != nil {
		return err
	}
	m.advancePlacement()
	return nil
}

// DraftReinforcement places one of the turn's reinforcements. The turn stays
// with the player; spending the last one opens the attack stage.
func (m *Match) DraftReinforcement(territory, playerID string) error {
	const op = "draft"
	if err := m.turnGuard(op, playerID); err != nil {
		return err
	}
	if m.stage != StageReinforce {
		return invalidf(op, ErrWrongStage, "reinforcements can only be placed at the start of the turn")
	}
	if err := m.ReinforceTerritory(territory, playerID); err != nil {
		return err
	}
	if m.Player(playerID).Reinforcements == 0 {
		m.stage = StageAttack
	}
	return nil
}

// ReinforceFromAnother moves amount armies between two territories the
// player owns. The source must keep at least one army.
func (m *Match) ReinforceFromAnother(playerID, from, to string, amount int) error {
	const op = "reinforce-from-another"
	if err := m.turnGuard(op, playerID); err != nil {
		return err
	}
	if m.stage == StageReinforce {
		return invalid(op, ErrReinforcementsLeft)
	}
	if !m.knownTerritory(op, from) || !m.knownTerritory(op, to) {
		return invalid(op, ErrUnknownTerritory)
	}
	if from == to || !m.IsPlayersTerritory(from, playerID) || !m.IsPlayersTerritory(to, playerID) {
		return invalidf(op, ErrNotOwner, "player must own both territories to reinforce")
	}
	src := m.territories[from]
	if amount < 0 || amount >= src.Armies {
		return invalidf(op, ErrInvalidAmount, "must leave at least one army in %s", from)
	}
	src.Armies -= amount
	m.territories[to].Armies += amount
	return nil
}

// grantTurn hands p their allotment and opens their turn.
func (m *Match) grantTurn(p *Player) {
	p.Reinforcements += m.PlayerReinforcements(p.ID)
	if p.Reinforcements > 0 {
		m.stage = StageReinforce
	} else {
		m.stage = StageAttack
	}
}
