package conquest

import (
	"math/rand"
	"time"
)

// Stage is the step of a player's turn once initial placement is over.
type Stage string

const (
	StageReinforce Stage = "reinforce"
	StageAttack    Stage = "attack"
	StageFortify   Stage = "fortify"
)

// Options configures a new match.
type Options struct {
	PlacementMode     Mode
	ReinforcementMode Mode
	// Roller draws combat dice. Defaults to RandomRoller.
	Roller DiceRoller
	// Rand picks territories in automatic modes. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Match is the full state of one running game. It is not safe for
// concurrent use; callers serialize access.
type Match struct {
	ID        string
	CreatedAt time.Time

	board  *Board
	roller DiceRoller
	rng    *rand.Rand

	players     []*Player
	spectators  []*Spectator
	territories map[string]*Territory
	turn        int
	stage       Stage

	placementMode     Mode
	reinforcementMode Mode
	started           bool
	placementFinished bool
	winner            string

	chat []ChatMessage
}

// NewMatch creates an empty match in the lobby.
func NewMatch(id string, board *Board, opts Options) *Match {
	if board == nil {
		board = StandardBoard()
	}
	m := &Match{
		ID:                id,
		CreatedAt:         time.Now().UTC(),
		board:             board,
		roller:            opts.Roller,
		rng:               opts.Rand,
		territories:       make(map[string]*Territory),
		turn:              -1,
		stage:             StageReinforce,
		placementMode:     ModeManual,
		reinforcementMode: ModeManual,
	}
	if m.roller == nil {
		m.roller = RandomRoller
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if _, ok := ParseMode(string(opts.PlacementMode)); ok {
		m.placementMode = opts.PlacementMode
	}
	if _, ok := ParseMode(string(opts.ReinforcementMode)); ok && m.placementMode == ModeAutomatic {
		m.reinforcementMode = opts.ReinforcementMode
	}
	return m
}

// Board returns the map this match is played on.
func (m *Match) Board() *Board { return m.board }

// Started reports whether the match has left the lobby.
func (m *Match) Started() bool { return m.started }

// InitialPlacementFinished reports whether the starting pool has been spent.
func (m *Match) InitialPlacementFinished() bool { return m.placementFinished }

// Winner returns the winning player's id, or "".
func (m *Match) Winner() string { return m.winner }

// Over reports whether a winner has been decided.
func (m *Match) Over() bool { return m.winner != "" }

// Stage returns the current turn stage.
func (m *Match) Stage() Stage { return m.stage }

// PlacementMode returns how territories are claimed at start.
func (m *Match) PlacementMode() Mode { return m.placementMode }

// ReinforcementMode returns how the starting pool is placed.
func (m *Match) ReinforcementMode() Mode { return m.reinforcementMode }

// Empty reports whether nobody is left in the match.
func (m *Match) Empty() bool {
	return len(m.players) == 0 && len(m.spectators) == 0
}

// SetRoller replaces the dice source.
func (m *Match) SetRoller(r DiceRoller) {
	if r != nil {
		m.roller = r
	}
}
