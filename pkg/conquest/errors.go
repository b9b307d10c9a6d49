package conquest

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted     = errors.New("game already started")
	ErrNotStarted         = errors.New("game has not started")
	ErrMatchOver          = errors.New("game is over")
	ErrPlayersNeedColors  = errors.New("all players must have colors assigned before starting")
	ErrNoPlayers          = errors.New("game has no players")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongStage         = errors.New("action not allowed at this stage of the turn")
	ErrNoColor            = errors.New("player has no color")
	ErrColorTaken         = errors.New("color already taken")
	ErrInvalidColor       = errors.New("color is not in the palette")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrTerritoryClaimed   = errors.New("territory already claimed")
	ErrTerritoryUnclaimed = errors.New("territory is not claimed")
	ErrNotOwner           = errors.New("territory not owned by player")
	ErrOwnTerritory       = errors.New("cannot attack your own territory")
	ErrNotAdjacent        = errors.New("territories are not adjacent")
	ErrNoReinforcements   = errors.New("no reinforcements left")
	ErrReinforcementsLeft = errors.New("reinforcements must be placed first")
	ErrNotEnoughArmies    = errors.New("not enough armies")
	ErrInvalidAmount      = errors.New("invalid army amount")
	ErrNoAction           = errors.New("no action available")
	ErrUnknownTerritory   = errors.New("unknown territory")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrAlreadyJoined      = errors.New("connection already in game")
	ErrEmptyMessage       = errors.New("message is empty")
)

// ValidationError is a rejected intent. The match is left unchanged.
type ValidationError struct {
	Op      string
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Reason is the message shown to the player who sent the intent.
func (e *ValidationError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Op
}

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

func invalidf(op string, err error, format string, args ...any) error {
	return &ValidationError{Op: op, Err: err, Message: fmt.Sprintf(format, args...)}
}

// InvariantError reports a broken engine invariant. It is only ever raised
// with panic; callers at the request boundary recover it.
type InvariantError struct {
	Territory string
	Armies    int
	Remove    int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("cannot remove %d armies from %s holding %d", e.Remove, e.Territory, e.Armies)
}
