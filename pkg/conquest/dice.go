package conquest

import (
	"math/rand"
	"sort"
)

const (
	// MaxAttackerDice caps how many dice an attacking territory may roll.
	MaxAttackerDice = 3
	// MaxDefenderDice caps how many dice a defending territory may roll.
	MaxDefenderDice = 2
	dieFaces        = 6
)

// DiceRoller draws a single die value in [1,6].
type DiceRoller interface {
	Roll() int
}

// RollerFunc adapts a plain function to DiceRoller.
type RollerFunc func() int

func (f RollerFunc) Roll() int { return f() }

// RandomRoller draws from the global math/rand source.
var RandomRoller DiceRoller = RollerFunc(func() int { return rand.Intn(dieFaces) + 1 })

// SeededRoller returns a deterministic roller for reproducible matches.
// It is not safe for concurrent use.
func SeededRoller(seed int64) DiceRoller {
	rng := rand.New(rand.NewSource(seed))
	return RollerFunc(func() int { return rng.Intn(dieFaces) + 1 })
}

// FixedRolls replays the given values in order and then repeats the last one.
func FixedRolls(values ...int) DiceRoller {
	i := 0
	return RollerFunc(func() int {
		if len(values) == 0 {
			return 1
		}
		v := values[min(i, len(values)-1)]
		i++
		return v
	})
}

// Side identifies a combatant.
type Side int

const (
	Attacker Side = iota
	Defender
)

func (s Side) String() string {
	if s == Attacker {
		return "attacker"
	}
	return "defender"
}

// CombatResult is the outcome of one round of dice.
//
// Winners is indexed by comparison pair. The side that rolled fewer dice
// (the defender on equal counts) is the reference side, and Winners[i]
// reports whether the reference side took pair i.
type CombatResult struct {
	DefenderBased bool   `json:"isDefenderBased"`
	Winners       []bool `json:"winners"`
	AttackerRolls []int  `json:"attackerRolls"`
	DefenderRolls []int  `json:"defenderRolls"`
}

// AttackerDice returns how many dice a territory with the given armies attacks with.
func AttackerDice(armies int) int {
	return max(0, min(armies-1, MaxAttackerDice))
}

// DefenderDice returns how many dice a territory with the given armies defends with.
func DefenderDice(armies int) int {
	return max(0, min(armies, MaxDefenderDice))
}

// SortedRolls rolls n dice and returns them highest first.
func SortedRolls(n int, roller DiceRoller) []int {
	rolls := make([]int, max(n, 0))
	for i := range rolls {
		rolls[i] = roller.Roll()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rolls)))
	return rolls
}

// Resolve rolls for both sides and compares the results.
func Resolve(attackerArmies, defenderArmies int, roller DiceRoller) CombatResult {
	attackerRolls := SortedRolls(AttackerDice(attackerArmies), roller)
	defenderRolls := SortedRolls(DefenderDice(defenderArmies), roller)
	return CompareRolls(attackerRolls, defenderRolls)
}

// CompareRolls pairs two descending roll sets. Ties go to the defender.
func CompareRolls(attackerRolls, defenderRolls []int) CombatResult {
	defenderBased := len(defenderRolls) <= len(attackerRolls)

	reference, other := attackerRolls, defenderRolls
	if defenderBased {
		reference, other = defenderRolls, attackerRolls
	}

	winners := make([]bool, len(reference))
	for i, v := range reference {
		if defenderBased {
			winners[i] = v >= other[i]
		} else {
			winners[i] = v > other[i]
		}
	}

	return CombatResult{
		DefenderBased: defenderBased,
		Winners:       winners,
		AttackerRolls: attackerRolls,
		DefenderRolls: defenderRolls,
	}
}

// Losers returns, per compared pair, the side that loses one army.
func (r CombatResult) Losers() []Side {
	losers := make([]Side, len(r.Winners))
	for i, referenceWon := range r.Winners {
		attackerLost := referenceWon == r.DefenderBased
		if attackerLost {
			losers[i] = Attacker
		} else {
			losers[i] = Defender
		}
	}
	return losers
}

// AttackerLosses counts the armies the attacker loses.
func (r CombatResult) AttackerLosses() int {
	n := 0
	for _, s := range r.Losers() {
		if s == Attacker {
			n++
		}
	}
	return n
}

// DefenderLosses counts the armies the defender loses.
func (r CombatResult) DefenderLosses() int {
	return len(r.Winners) - r.AttackerLosses()
}
