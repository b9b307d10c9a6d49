package conquest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

// Continent is a fixed set of territories that pays a reinforcement bonus
// to the player holding all of them.
type Continent struct {
	ID          string
	Territories []string
	Bonus       int
}

// Board holds the territory adjacency graph and its continent partition.
// A Board is read-only once built; callers must not mutate the returned slices.
type Board struct {
	territories []string
	continents  map[string]*Continent
	graph       map[string][]string
	continentOf map[string]string
}

// boardFile is the persisted shape of a board dataset.
type boardFile struct {
	Territories             []string            `json:"territories"`
	Continents              map[string][]string `json:"continents"`
	ContinentReinforcements map[string]int      `json:"continentReinforcements"`
	TerritoryGraph          map[string][]string `json:"territoryGraph"`
}

// NewBoard builds a board from the persisted dataset shape. It does not validate
// the graph; call Validate for that.
func NewBoard(territories []string, continents map[string][]string, bonuses map[string]int, graph map[string][]string) *Board {
	b := &Board{
		territories: slices.Clone(territories),
		continents:  make(map[string]*Continent, len(continents)),
		graph:       make(map[string][]string, len(graph)),
		continentOf: make(map[string]string, len(territories)),
	}
	for id, members := range continents {
		b.continents[id] = &Continent{ID: id, Territories: slices.Clone(members), Bonus: bonuses[id]}
		for _, t := range members {
			b.continentOf[t] = id
		}
	}
	for id, reach := range graph {
		b.graph[id] = slices.Clone(reach)
	}
	return b
}

// LoadBoard decodes a board dataset from JSON.
func LoadBoard(r io.Reader) (*Board, error) {
	var f boardFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if len(f.Territories) == 0 {
		return nil, errors.New("board has no territories")
	}
	return NewBoard(f.Territories, f.Continents, f.ContinentReinforcements, f.TerritoryGraph), nil
}

// MarshalJSON encodes the board in its persisted dataset shape.
func (b *Board) MarshalJSON() ([]byte, error) {
	f := boardFile{
		Territories:             b.territories,
		Continents:              make(map[string][]string, len(b.continents)),
		ContinentReinforcements: make(map[string]int, len(b.continents)),
		TerritoryGraph:          b.graph,
	}
	for id, c := range b.continents {
		f.Continents[id] = c.Territories
		f.ContinentReinforcements[id] = c.Bonus
	}
	return json.Marshal(f)
}

// TerritoryIDs returns every territory id in dataset order.
func (b *Board) TerritoryIDs() []string {
	return b.territories
}

// TerritoryCount returns the number of territories on the board.
func (b *Board) TerritoryCount() int {
	return len(b.territories)
}

// HasTerritory reports whether id is a territory on this board.
func (b *Board) HasTerritory(id string) bool {
	_, ok := b.graph[id]
	return ok
}

// Adjacent returns the territories directly reachable from id.
func (b *Board) Adjacent(id string) []string {
	return b.graph[id]
}

// Reaches reports whether to is directly reachable from from.
func (b *Board) Reaches(from, to string) bool {
	return slices.Contains(b.graph[from], to)
}

// ContinentIDs returns all continent ids, sorted.
func (b *Board) ContinentIDs() []string {
	ids := make([]string, 0, len(b.continents))
	for id := range b.continents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Continent returns the continent with the given id.
func (b *Board) Continent(id string) (Continent, bool) {
	c, ok := b.continents[id]
	if !ok {
		return Continent{}, false
	}
	return *c, true
}

// ContinentOf returns the continent a territory belongs to, or "".
func (b *Board) ContinentOf(territory string) string {
	return b.continentOf[territory]
}

// Validate checks the dataset for integrity faults: one-way adjacencies,
// dangling references, and territories outside exactly one continent.
func (b *Board) Validate() error {
	var problems []string

	listed := make(map[string]bool, len(b.territories))
	for _, t := range b.territories {
		if listed[t] {
			problems = append(problems, "duplicate territory "+t)
		}
		listed[t] = true
		if _, ok := b.graph[t]; !ok {
			problems = append(problems, "territory "+t+" missing from graph")
		}
	}

	for from, reach := range b.graph {
		if !listed[from] {
			problems = append(problems, "graph node "+from+" is not a listed territory")
		}
		for _, to := range reach {
			back, ok := b.graph[to]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s reaches unknown territory %s", from, to))
				continue
			}
			if !slices.Contains(back, from) {
				problems = append(problems, fmt.Sprintf("%s reaches %s but not the reverse", from, to))
			}
		}
	}

	seen := make(map[string]string, len(b.territories))
	for _, id := range b.ContinentIDs() {
		c := b.continents[id]
		if len(c.Territories) == 0 {
			problems = append(problems, "continent "+id+" is empty")
		}
		if c.Bonus < 0 {
			problems = append(problems, "continent "+id+" has a negative bonus")
		}
		for _, t := range c.Territories {
			if !listed[t] {
				problems = append(problems, fmt.Sprintf("continent %s lists unknown territory %s", id, t))
			}
			if other, dup := seen[t]; dup {
				problems = append(problems, fmt.Sprintf("territory %s is in both %s and %s", t, other, id))
			}
			seen[t] = id
		}
	}
	for _, t := range b.territories {
		if _, ok := seen[t]; !ok {
			problems = append(problems, "territory "+t+" belongs to no continent")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid board: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ShortestPath returns the territories on a shortest path from from to to,
// inclusive of both ends. Returns nil when no path exists.
func (b *Board) ShortestPath(from, to string) []string {
	if !b.HasTerritory(from) || !b.HasTerritory(to) {
		return nil
	}
	if from == to {
		return []string{from}
	}

	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range b.graph[cur] {
			if _, visited := prev[next]; visited {
				continue
			}
			prev[next] = cur
			if next == to {
				return backtrace(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func backtrace(prev map[string]string, from, to string) []string {
	path := []string{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}
