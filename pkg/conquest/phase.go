package conquest

// Phase is the coarse state of a match.
type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhaseInitialPlacement Phase = "initial_placement"
	PhaseTurnCycle        Phase = "turn_cycle"
	PhaseVictory          Phase = "victory"
)

// Phase derives the match phase from its flags.
func (m *Match) Phase() Phase {
	switch {
	case m.winner != "":
		return PhaseVictory
	case !m.started:
		return PhaseLobby
	case !m.placementFinished:
		return PhaseInitialPlacement
	default:
		return PhaseTurnCycle
	}
}

// Action is what a player is expected to do next.
type Action string

const (
	ActionNone      Action = "noop"
	ActionVictory   Action = "victory"
	ActionSetup     Action = "setup"
	ActionWait      Action = "wait"
	ActionClaim     Action = "claim"
	ActionPlace     Action = "place"
	ActionReinforce Action = "reinforce"
	ActionAttack    Action = "attack"
	ActionFortify   Action = "fortify"
)

type actionRule struct {
	action Action
	when   func(m *Match, p *Player) bool
}

// actionRules is evaluated in order; the first match wins.
var actionRules = []actionRule{
	{ActionVictory, func(m *Match, _ *Player) bool { return m.winner != "" }},
	{ActionSetup, func(m *Match, _ *Player) bool { return !m.started }},
	{ActionWait, func(m *Match, p *Player) bool { return !m.IsPlayerTurn(p.ID) }},
	{ActionClaim, func(m *Match, p *Player) bool {
		return !m.placementFinished && p.Reinforcements > 0 && len(m.AvailableTerritories()) > 0
	}},
	{ActionPlace, func(m *Match, p *Player) bool {
		return !m.placementFinished && p.Reinforcements > 0 && len(m.AvailableTerritories()) == 0
	}},
	{ActionReinforce, func(m *Match, p *Player) bool {
		return m.placementFinished && m.stage == StageReinforce && p.Reinforcements > 0
	}},
	{ActionAttack, func(m *Match, _ *Player) bool { return m.placementFinished && m.stage == StageAttack }},
	{ActionFortify, func(m *Match, _ *Player) bool { return m.placementFinished && m.stage == StageFortify }},
}

// NextAction returns what playerID may do right now.
func (m *Match) NextAction(playerID string) Action {
	p := m.Player(playerID)
	if p == nil {
		return ActionNone
	}
	for _, r := range actionRules {
		if r.when(m, p) {
			return r.action
		}
	}
	return ActionNone
}

// TerritoryClicked applies the territory action NextAction selects.
func (m *Match) TerritoryClicked(playerID, territory string) (Action, error) {
	action := m.NextAction(playerID)
	var err error
	switch action {
	case ActionClaim:
		err = m.ClaimTerritory(territory, playerID)
	case ActionPlace:
		err = m.PlaceReinforcement(territory, playerID)
	case ActionReinforce:
		err = m.DraftReinforcement(territory, playerID)
	case ActionWait:
		err = invalid("territory-clicked", ErrNotYourTurn)
	case ActionVictory:
		err = invalid("territory-clicked", ErrMatchOver)
	default:
		err = invalidf("territory-clicked", ErrNoAction, "no territory action available (%s)", action)
	}
	return action, err
}

// Start leaves the lobby once every player has a color. Each player receives
// an equal share of the starting pool; automatic modes then place it.
func (m *Match) Start() error {
	const op = "start"
	if m.started {
		return invalid(op, ErrAlreadyStarted)
	}
	if len(m.players) == 0 {
		return invalid(op, ErrNoPlayers)
	}
	for _, p := range m.players {
		if p.Color == "" {
			return invalid(op, ErrPlayersNeedColors)
		}
	}

	share := m.StartingReinforcements()
	for _, p := range m.players {
		p.Reinforcements = share
	}
	m.started = true
	m.turn = 0
	m.stage = StageReinforce

	if m.placementMode == ModeAutomatic {
		m.autoPlace()
	}
	if m.reinforcementMode == ModeAutomatic {
		m.autoReinforce()
	}
	return nil
}

// EndAttack moves the acting player from the attack stage to fortify.
func (m *Match) EndAttack(playerID string) error {
	const op = "end-attack"
	if err := m.turnGuard(op, playerID); err != nil {
		return err
	}
	switch m.stage {
	case StageReinforce:
		return invalid(op, ErrReinforcementsLeft)
	case StageFortify:
		return invalidf(op, ErrWrongStage, "attack stage already ended")
	}
	m.stage = StageFortify
	return nil
}

// EndTurn passes the turn. During initial placement it is only allowed once
// the player has nothing left to place; afterwards the attack stage must have
// been ended first. The next player receives their allotment.
func (m *Match) EndTurn(playerID string) error {
	const op = "end-turn"
	if m.started && !m.placementFinished && !m.Over() {
		if err := m.placementGuard(op, playerID); err != nil {
			return err
		}
		if m.Player(playerID).Reinforcements > 0 {
			return invalid(op, ErrReinforcementsLeft)
		}
		m.advancePlacement()
		return nil
	}

	if err := m.turnGuard(op, playerID); err != nil {
		return err
	}
	if m.stage != StageFortify {
		return invalidf(op, ErrWrongStage, "end the attack stage before ending the turn")
	}
	m.UpdateTurn()
	m.grantTurn(m.CurrentPlayer())
	return nil
}

// VictoryCondition reports whether playerID holds every territory on the board.
func (m *Match) VictoryCondition(playerID string) bool {
	if !m.placementFinished {
		return false
	}
	return len(m.PlayerTerritories(playerID)) == m.board.TerritoryCount()
}

// SetPlacementMode chooses how territories are claimed. Manual placement
// forces manual reinforcement.
func (m *Match) SetPlacementMode(mode string) error {
	const op = "placement-mode"
	if m.started {
		return invalid(op, ErrAlreadyStarted)
	}
	md, ok := ParseMode(mode)
	if !ok {
		return invalidf(op, ErrInvalidMode, "invalid placement mode selected")
	}
	m.placementMode = md
	if md == ModeManual {
		m.reinforcementMode = ModeManual
	}
	return nil
}

// SetReinforcementMode chooses how the starting pool is placed. Automatic
// reinforcement needs automatic placement.
func (m *Match) SetReinforcementMode(mode string) error {
	const op = "reinforcement-mode"
	if m.started {
		return invalid(op, ErrAlreadyStarted)
	}
	md, ok := ParseMode(mode)
	if !ok {
		return invalidf(op, ErrInvalidMode, "invalid reinforcement mode selected")
	}
	if md == ModeAutomatic && m.placementMode == ModeManual {
		return invalidf(op, ErrInvalidMode, "automatic reinforcement needs automatic placement")
	}
	m.reinforcementMode = md
	return nil
}

func (m *Match) placementGuard(op, playerID string) error {
	switch {
	case m.Over():
		return invalid(op, ErrMatchOver)
	case !m.started:
		return invalid(op, ErrNotStarted)
	case m.placementFinished:
		return invalidf(op, ErrWrongStage, "initial placement is over")
	case m.playerOf(op, playerID) == nil:
		return invalid(op, ErrUnknownPlayer)
	case !m.IsPlayerTurn(playerID):
		return invalid(op, ErrNotYourTurn)
	}
	return nil
}

func (m *Match) turnGuard(op, playerID string) error {
	switch {
	case m.Over():
		return invalid(op, ErrMatchOver)
	case !m.started:
		return invalid(op, ErrNotStarted)
	case !m.placementFinished:
		return invalidf(op, ErrWrongStage, "initial placement is not finished")
	case m.playerOf(op, playerID) == nil:
		return invalid(op, ErrUnknownPlayer)
	case !m.IsPlayerTurn(playerID):
		return invalid(op, ErrNotYourTurn)
	}
	return nil
}

// advancePlacement passes the turn after a placement action and, once the
// pool is spent, opens the turn cycle for whoever is next.
func (m *Match) advancePlacement() {
	m.UpdateTurn()
	m.settlePlacement()
}

// settlePlacement moves the turn to someone with starting reinforcements
// left. Once none remain it checks victory and opens the turn cycle.
func (m *Match) settlePlacement() {
	m.skipSpentPlayers()
	if !m.checkPlacementFinished() {
		return
	}
	for _, p := range m.players {
		if m.checkVictory(p.ID) {
			return
		}
	}
	m.grantTurn(m.CurrentPlayer())
}

// checkPlacementFinished flips the placement flag once no reinforcements are
// left and reports whether it flipped just now.
func (m *Match) checkPlacementFinished() bool {
	if !m.started || m.placementFinished || m.TotalReinforcements() > 0 {
		return false
	}
	m.placementFinished = true
	return true
}

func (m *Match) checkVictory(playerID string) bool {
	if m.winner != "" {
		return m.winner == playerID
	}
	if !m.VictoryCondition(playerID) {
		return false
	}
	m.winner = playerID
	return true
}

// autoPlace claims every free territory in random order, round robin.
func (m *Match) autoPlace() {
	free := m.AvailableTerritories()
	m.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	for _, t := range free {
		p := m.CurrentPlayer()
		if p == nil || m.placementFinished {
			return
		}
		if err := m.ClaimTerritory(t, p.ID); err != nil {
			return
		}
	}
}

// autoReinforce spends the rest of the starting pool on random owned
// territories, round robin.
func (m *Match) autoReinforce() {
	for !m.placementFinished && !m.Over() {
		p := m.CurrentPlayer()
		owned := m.PlayerTerritories(p.ID)
		if len(owned) == 0 {
			return
		}
		if err := m.PlaceReinforcement(owned[m.rng.Intn(len(owned))], p.ID); err != nil {
			return
		}
	}
}
