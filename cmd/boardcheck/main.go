// Command boardcheck validates a board dataset and reports its shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/pkg/conquest"
)

func main() {
	path := flag.String("board", "", "board JSON file (default: the standard board)")
	from := flag.String("from", "", "print the shortest path starting here")
	to := flag.String("to", "", "destination for -from")
	dump := flag.Bool("dump", false, "print the board as JSON")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	board := conquest.StandardBoard()
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatal().Err(err).Msg("Open board")
		}
		board, err = conquest.LoadBoard(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("Load board")
		}
	}

	if err := board.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Board is invalid")
	}

	log.Info().Int("territories", board.TerritoryCount()).Int("continents", len(board.ContinentIDs())).Msg("Board is valid")
	for _, id := range board.ContinentIDs() {
		c, _ := board.Continent(id)
		fmt.Printf("%-16s bonus %d  %d territories\n", id, c.Bonus, len(c.Territories))
	}

	if *from != "" && *to != "" {
		route := board.ShortestPath(*from, *to)
		if route == nil {
			log.Fatal().Str("from", *from).Str("to", *to).Msg("No path")
		}
		fmt.Printf("%s (%d hops)\n", strings.Join(route, " -> "), len(route)-1)
	}

	if *dump {
		data, err := board.MarshalJSON()
		if err != nil {
			log.Fatal().Err(err).Msg("Encode board")
		}
		os.Stdout.Write(append(data, '\n'))
	}
}
