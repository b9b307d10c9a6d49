package conquest

// FrontLine offers the attacker a follow-up move of 0..Max armies from the
// attacking territory into the one just taken.
type FrontLine struct {
	From string `json:"from"`
	To   string `json:"to"`
	Max  int    `json:"max"`
}

// AttackResult describes one resolved attack.
type AttackResult struct {
	From           string       `json:"from"`
	To             string       `json:"to"`
	Combat         CombatResult `json:"combat"`
	AttackerLosses int          `json:"attackerLosses"`
	DefenderLosses int          `json:"defenderLosses"`
	Conquered      bool         `json:"conquered"`
	Transferred    int          `json:"transferred"`
	FrontLine      *FrontLine   `json:"frontLine,omitempty"`
	Victory        bool         `json:"victory"`
}

// minTransferThreshold is the army count above which a takeover moves half
// the remaining armies instead of one per die.
const minTransferThreshold = 5

// Attack rolls one round of combat from one territory into an adjacent enemy
// territory and applies the losses. A territory reduced to zero armies is
// taken over by the attacker.
func (m *Match) Attack(playerID, from, to string) (*AttackResult, error) {
	const op = "attack"
	if err := m.turnGuard(op, playerID); err != nil {
		return nil, err
	}
	switch m.stage {
	case StageReinforce:
		return nil, invalid(op, ErrReinforcementsLeft)
	case StageFortify:
		return nil, invalidf(op, ErrWrongStage, "attack stage already ended")
	}
	if !m.knownTerritory(op, from) || !m.knownTerritory(op, to) {
		return nil, invalid(op, ErrUnknownTerritory)
	}
	if !m.IsPlayersTerritory(from, playerID) {
		return nil, invalidf(op, ErrNotOwner, "you don't own %s", from)
	}
	def, claimed := m.territories[to]
	if !claimed {
		return nil, invalidf(op, ErrTerritoryUnclaimed, "territory %s has not been claimed yet", to)
	}
	if def.Owner == playerID {
		return nil, invalid(op, ErrOwnTerritory)
	}
	if !m.board.Reaches(from, to) {
		return nil, invalidf(op, ErrNotAdjacent, "%s does not border %s", from, to)
	}
	att := m.territories[from]
	if att.Armies < 2 {
		return nil, invalidf(op, ErrNotEnoughArmies, "%s needs at least two armies to attack", from)
	}

	combat := Resolve(att.Armies, def.Armies, m.roller)
	res := &AttackResult{From: from, To: to, Combat: combat}

	losers := combat.Losers()
	for i := len(losers) - 1; i >= 0; i-- {
		if losers[i] == Attacker {
			m.LoseArmies(from, 1)
			res.AttackerLosses++
		} else {
			m.LoseArmies(to, 1)
			res.DefenderLosses++
		}
	}

	if def.Empty() {
		transfer := len(combat.AttackerRolls)
		if att.Armies > minTransferThreshold {
			transfer = att.Armies / 2
		}
		transfer = min(transfer, att.Armies-1)
		m.LoseArmies(from, transfer)
		p := m.Player(playerID)
		def.Owner, def.Color, def.Armies = p.ID, p.Color, transfer
		res.Conquered = true
		res.Transferred = transfer
		if att.Armies > 1 {
			res.FrontLine = &FrontLine{From: from, To: to, Max: att.Armies - 1}
		}
	}

	res.Victory = m.checkVictory(playerID)
	return res, nil
}
