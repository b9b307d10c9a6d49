package conquest

import "sync"

var (
	stdBoardOnce sync.Once
	stdBoardInst *Board
)

// StandardBoard returns the classic 42-territory board with six continents.
// It is built once and cached; callers must not mutate it.
func StandardBoard() *Board {
	stdBoardOnce.Do(func() {
		stdBoardInst = buildStandardBoard()
	})
	return stdBoardInst
}

func buildStandardBoard() *Board {
	var territories []string
	continents := make(map[string][]string, 6)
	bonuses := make(map[string]int, 6)
	graph := make(map[string][]string, 42)

	continent := func(id string, bonus int, members ...string) {
		continents[id] = members
		bonuses[id] = bonus
		territories = append(territories, members...)
		for _, t := range members {
			if graph[t] == nil {
				graph[t] = []string{}
			}
		}
	}

	// link adds a two-way border between a and b.
	link := func(a string, others ...string) {
		for _, b := range others {
			graph[a] = append(graph[a], b)
			graph[b] = append(graph[b], a)
		}
	}

	continent("north-america", 5,
		"alaska", "northwest-territory", "greenland", "alberta", "ontario",
		"quebec", "western-united-states", "eastern-united-states", "central-america")
	continent("south-america", 2,
		"venezuela", "peru", "brazil", "argentina")
	continent("europe", 5,
		"iceland", "great-britain", "scandinavia", "northern-europe",
		"western-europe", "southern-europe", "ukraine")
	continent("africa", 3,
		"north-africa", "egypt", "east-africa", "congo", "south-africa", "madagascar")
	continent("asia", 7,
		"ural", "siberia", "yakutsk", "kamchatka", "irkutsk", "mongolia",
		"japan", "afghanistan", "china", "middle-east", "india", "siam")
	continent("australia", 2,
		"indonesia", "new-guinea", "western-australia", "eastern-australia")

	// North America
	link("alaska", "northwest-territory", "alberta", "kamchatka")
	link("northwest-territory", "alberta", "ontario", "greenland")
	link("greenland", "ontario", "quebec", "iceland")
	link("alberta", "ontario", "western-united-states")
	link("ontario", "quebec", "western-united-states", "eastern-united-states")
	link("quebec", "eastern-united-states")
	link("western-united-states", "eastern-united-states", "central-america")
	link("eastern-united-states", "central-america")
	link("central-america", "venezuela")

	// South America
	link("venezuela", "peru", "brazil")
	link("peru", "brazil", "argentina")
	link("brazil", "argentina", "north-africa")

	// Europe
	link("iceland", "great-britain", "scandinavia")
	link("great-britain", "scandinavia", "northern-europe", "western-europe")
	link("scandinavia", "northern-europe", "ukraine")
	link("northern-europe", "ukraine", "southern-europe", "western-europe")
	link("western-europe", "southern-europe", "north-africa")
	link("southern-europe", "ukraine", "middle-east", "egypt", "north-africa")
	link("ukraine", "ural", "afghanistan", "middle-east")

	// Africa
	link("north-africa", "egypt", "east-africa", "congo")
	link("egypt", "middle-east", "east-africa")
	link("east-africa", "congo", "south-africa", "madagascar", "middle-east")
	link("congo", "south-africa")
	link("south-africa", "madagascar")

	// Asia
	link("ural", "siberia", "china", "afghanistan")
	link("siberia", "yakutsk", "irkutsk", "mongolia", "china")
	link("yakutsk", "kamchatka", "irkutsk")
	link("kamchatka", "irkutsk", "mongolia", "japan")
	link("irkutsk", "mongolia")
	link("mongolia", "japan", "china")
	link("afghanistan", "china", "india", "middle-east")
	link("china", "siam", "india")
	link("middle-east", "india")
	link("india", "siam")
	link("siam", "indonesia")

	// Australia
	link("indonesia", "new-guinea", "western-australia")
	link("new-guinea", "eastern-australia", "western-australia")
	link("western-australia", "eastern-australia")

	return NewBoard(territories, continents, bonuses, graph)
}
