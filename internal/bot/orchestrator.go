package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/pkg/conquest"
)

// Orchestrator plays a whole match between bots against a running server.
type Orchestrator struct {
	baseURL  string
	strategy string
	players  int
	pace     time.Duration
	login    bool
}

// NewOrchestrator creates an orchestrator for n bots. When login is set each
// bot signs in as a guest before dialing.
func NewOrchestrator(baseURL, strategy string, players int, pace time.Duration, login bool) *Orchestrator {
	return &Orchestrator{
		baseURL:  baseURL,
		strategy: strategy,
		players:  players,
		pace:     pace,
		login:    login,
	}
}

type result struct {
	name string
	won  bool
	err  error
}

// Run creates game, seats the bots, starts the match and plays it out. It
// returns the winning bot's name.
func (o *Orchestrator) Run(ctx context.Context, game string) (string, error) {
	if o.players < 1 || o.players > len(conquest.Palette) {
		return "", fmt.Errorf("bot count must be between 1 and %d", len(conquest.Palette))
	}
	log.Info().Str("strategy", o.strategy).Int("players", o.players).Str("game", game).Msg("Starting bot game")

	var board *conquest.Board
	bots := make([]*Player, 0, o.players)
	for i := 1; i <= o.players; i++ {
		st, err := StrategyForName(o.strategy)
		if err != nil {
			return "", err
		}
		c := NewClient(fmt.Sprintf("Bot%d", i), WebSocketURL(o.baseURL))
		if o.login {
			if err := c.Login(ctx, o.baseURL); err != nil {
				return "", fmt.Errorf("login %s: %w", c.Name(), err)
			}
		}
		if board == nil {
			if board, err = c.FetchBoard(ctx, o.baseURL); err != nil {
				return "", err
			}
		}
		bots = append(bots, NewPlayer(c, st, board, o.pace))
	}
	bots[0].HostAt(o.players)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(bots))
	var wg sync.WaitGroup
	play := func(p *Player, create bool) {
		defer wg.Done()
		won, err := p.Play(ctx, game, create)
		results <- result{name: p.client.Name(), won: won, err: err}
	}

	// The host creates the game before anyone joins it.
	wg.Add(1)
	go play(bots[0], true)
	select {
	case <-bots[0].Joined():
	case r := <-results:
		return "", fmt.Errorf("host %s: %w", r.name, errOrClosed(r.err))
	case <-ctx.Done():
		return "", ctx.Err()
	}
	for _, p := range bots[1:] {
		wg.Add(1)
		go play(p, false)
	}

	winner := ""
	var firstErr error
	for range bots {
		r := <-results
		switch {
		case r.err != nil && firstErr == nil:
			firstErr = fmt.Errorf("%s: %w", r.name, r.err)
			cancel()
		case r.won:
			winner = r.name
		}
	}
	wg.Wait()

	if winner != "" {
		log.Info().Str("winner", winner).Msg("Bot game completed")
		return winner, nil
	}
	return "", errOrClosed(firstErr)
}

func errOrClosed(err error) error {
	if err == nil {
		return errors.New("game ended without a winner")
	}
	return err
}
