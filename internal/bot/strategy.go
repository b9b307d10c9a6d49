package bot

import (
	"errors"
	"fmt"

	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/pkg/conquest"
)

// ErrUnknownStrategy is returned for strategy names StrategyForName does not know.
var ErrUnknownStrategy = errors.New("unknown bot strategy")

// minAttackArmies is the smallest garrison a bot attacks from.
const minAttackArmies = 3

// View is what a strategy sees when it is asked for a move.
type View struct {
	Snapshot conquest.Snapshot
	Board    *conquest.Board
	Self     string
}

// Mine returns the territories the bot holds.
func (v *View) Mine() []string {
	return v.Snapshot.TerritoryMap[v.Self]
}

// Armies returns the garrison of a territory, 0 when unclaimed.
func (v *View) Armies(id string) int {
	return v.Snapshot.Territories[id].Armies
}

// Me returns the bot's own player entry.
func (v *View) Me() (conquest.Player, bool) {
	for _, p := range v.Snapshot.Players {
		if p.ID == v.Self {
			return p, true
		}
	}
	return conquest.Player{}, false
}

// Strategy picks a bot's moves during the turn cycle. Claiming during
// initial placement is shared by every strategy.
type Strategy interface {
	Name() string
	// Reinforce returns the territory to draft one army onto.
	Reinforce(v *View) string
	// Attack returns the next attack, or false to end the attack stage.
	Attack(v *View) (service.AttackRequest, bool)
}

// StrategyForName returns the strategy registered under name. An empty
// name selects the continent strategy.
func StrategyForName(name string) (Strategy, error) {
	switch name {
	case "", "default", "continent":
		return ContinentStrategy{}, nil
	case "challenger", "point":
		return PointStrategy{}, nil
	case "random", "base":
		return RandomStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// --- RandomStrategy ---

// RandomStrategy reinforces random territories and never attacks.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Reinforce(v *View) string { return pick(v.Mine()) }

func (RandomStrategy) Attack(*View) (service.AttackRequest, bool) {
	return service.AttackRequest{}, false
}

// --- ContinentStrategy ---

// ContinentStrategy pushes into the continent it holds the largest share of
// without owning it outright.
type ContinentStrategy struct{}

func (ContinentStrategy) Name() string { return "continent" }

func (ContinentStrategy) Reinforce(v *View) string {
	target, ok := mostHeld(continentStatuses(v))
	return reinforceToward(v, target, ok)
}

func (ContinentStrategy) Attack(v *View) (service.AttackRequest, bool) {
	target, ok := mostHeld(continentStatuses(v))
	if !ok {
		return service.AttackRequest{}, false
	}
	return attackInto(v, target)
}

// --- PointStrategy ---

// PointStrategy opens a foothold on a continent where it holds nothing,
// and otherwise plays like ContinentStrategy.
type PointStrategy struct{}

func (PointStrategy) Name() string { return "challenger" }

func (PointStrategy) Reinforce(v *View) string {
	target, ok := pointTarget(v)
	return reinforceToward(v, target, ok)
}

func (PointStrategy) Attack(v *View) (service.AttackRequest, bool) {
	target, ok := pointTarget(v)
	if !ok {
		return service.AttackRequest{}, false
	}
	return attackInto(v, target)
}

func pointTarget(v *View) (continentStatus, bool) {
	statuses := continentStatuses(v)
	least, ok := leastHeld(statuses)
	if !ok {
		return continentStatus{}, false
	}
	if least.Share > 0 {
		return mostHeld(statuses)
	}
	return least, true
}

// reinforceToward drafts onto a territory that can strike the target
// continent, or any owned territory when none can.
func reinforceToward(v *View, target continentStatus, ok bool) string {
	if ok {
		if from := attackFrom(v, target); len(from) > 0 {
			return pick(from)
		}
	}
	return pick(v.Mine())
}

// attackInto attacks from the strongest staging territory into a random
// bordering enemy territory on the target continent.
func attackInto(v *View, target continentStatus) (service.AttackRequest, bool) {
	from := strongest(v, attackFrom(v, target))
	if from == "" || v.Armies(from) < minAttackArmies {
		return service.AttackRequest{}, false
	}
	var targets []string
	for _, id := range v.Board.Adjacent(from) {
		if containsID(target.Enemy, id) {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return service.AttackRequest{}, false
	}
	return service.AttackRequest{AttackerID: from, DefenderID: pick(targets)}, true
}

// strongest returns the territory with the most armies; ties keep the first.
func strongest(v *View, ids []string) string {
	best, armies := "", -1
	for _, id := range ids {
		if a := v.Armies(id); a > armies {
			best, armies = id, a
		}
	}
	return best
}
