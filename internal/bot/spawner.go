package bot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/pkg/conquest"
)

var _ service.BotSpawner = (*Spawner)(nil)

// TokenSource issues an access token for a bot name.
type TokenSource func(name string) (string, error)

// Spawner runs requested bots in-process. Each bot dials the server like
// any other client.
type Spawner struct {
	ctx    context.Context
	wsURL  string
	board  *conquest.Board
	pace   time.Duration
	tokens TokenSource
	wg     sync.WaitGroup
}

// NewSpawner creates a spawner whose bots dial wsURL and live until ctx is
// cancelled or their match ends. tokens may be nil when the server does not
// require auth.
func NewSpawner(ctx context.Context, wsURL string, board *conquest.Board, pace time.Duration, tokens TokenSource) *Spawner {
	if board == nil {
		board = conquest.StandardBoard()
	}
	return &Spawner{ctx: ctx, wsURL: wsURL, board: board, pace: pace, tokens: tokens}
}

// Spawn starts a bot that joins sessionID. It returns without waiting for
// the bot to connect.
func (s *Spawner) Spawn(sessionID, strategy string) error {
	st, err := StrategyForName(strategy)
	if err != nil {
		return err
	}
	name := st.Name() + "-" + uuid.NewString()[:8]
	c := NewClient(name, s.wsURL)
	if s.tokens != nil {
		token, err := s.tokens(name)
		if err != nil {
			return err
		}
		c.SetToken(token)
	}

	p := NewPlayer(c, st, s.board, s.pace)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		won, err := p.Play(s.ctx, sessionID, false)
		if err != nil && s.ctx.Err() == nil {
			log.Warn().Err(err).Str("bot", name).Str("session", sessionID).Msg("Bot stopped")
			return
		}
		log.Info().Str("bot", name).Bool("won", won).Msg("Bot finished")
	}()
	return nil
}

// Wait blocks until every spawned bot has returned.
func (s *Spawner) Wait() {
	s.wg.Wait()
}
