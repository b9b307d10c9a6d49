package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/pkg/conquest"
)

// maxStrikes bounds how many rejected moves a bot retries before it gives up
// on the current turn.
const maxStrikes = 5

// Move is one outbound intent.
type Move struct {
	Event string
	Data  any
}

// Player drives one bot connection through a match.
type Player struct {
	client   *Client
	strategy Strategy
	board    *conquest.Board
	pace     time.Duration

	// startAt makes the bot host: it starts the match once that many
	// players have picked colors.
	startAt int

	id      string
	game    string
	strikes int

	joinOnce sync.Once
	joined   chan struct{}
}

// NewPlayer creates a bot player on an undialed client.
func NewPlayer(client *Client, strategy Strategy, board *conquest.Board, pace time.Duration) *Player {
	return &Player{
		client:   client,
		strategy: strategy,
		board:    board,
		pace:     pace,
		joined:   make(chan struct{}),
	}
}

// HostAt makes the player start the match once n players are ready.
func (p *Player) HostAt(n int) { p.startAt = n }

// Joined is closed once the server has seated the bot.
func (p *Player) Joined() <-chan struct{} { return p.joined }

// Play creates or joins game and plays until the match ends. It reports
// whether this bot won.
func (p *Player) Play(ctx context.Context, game string, create bool) (bool, error) {
	if err := p.client.Dial(ctx); err != nil {
		return false, err
	}
	defer p.client.Close()

	p.game = service.SessionID(game)
	logger := log.With().Str("bot", p.client.Name()).Str("strategy", p.strategy.Name()).Str("session", p.game).Logger()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case msg, ok := <-p.client.Events():
			if !ok {
				return false, errors.New("bot: server closed the connection")
			}
			switch msg.Event {
			case service.EventConnected:
				var hello struct {
					ID string `json:"id"`
				}
				if err := json.Unmarshal(msg.Data, &hello); err != nil {
					return false, fmt.Errorf("decode connected: %w", err)
				}
				p.id = hello.ID
				if create {
					p.send(ctx, Move{service.EventCreateGame, service.CreateGameRequest{Name: game}})
				} else {
					p.send(ctx, Move{service.EventJoinGame, service.JoinGameRequest{SelectedGame: game}})
				}

			case service.EventCreateGameSuccess, service.EventJoinGameSuccess:
				p.strikes = 0
				p.joinOnce.Do(func() { close(p.joined) })
				logger.Info().Msg("Bot joined game")

			case service.EventGameDetails:
				var snap conquest.Snapshot
				if err := json.Unmarshal(msg.Data, &snap); err != nil {
					logger.Warn().Err(err).Msg("Undecodable game details")
					continue
				}
				if snap.ID != p.game {
					continue
				}
				if mv, ok := p.decide(snap); ok {
					logger.Debug().Str("event", mv.Event).Interface("data", mv.Data).Msg("Bot move")
					p.send(ctx, mv)
				}

			case service.EventUpdateTurn:
				p.strikes = 0

			case service.EventGameErrorNotification, service.EventCreateGameError:
				var reason string
				json.Unmarshal(msg.Data, &reason)
				p.strikes++
				logger.Debug().Str("reason", reason).Int("strikes", p.strikes).Msg("Bot move rejected")
				if p.strikes <= maxStrikes {
					p.send(ctx, Move{service.EventGetGameDetails, nil})
				} else if p.strikes == maxStrikes+1 {
					logger.Warn().Str("reason", reason).Msg("Bot giving up on turn")
					p.send(ctx, Move{service.EventTurnEndAttack, nil})
					p.send(ctx, Move{service.EventTurnEnd, nil})
				}

			case service.EventGameVictory:
				var winner string
				json.Unmarshal(msg.Data, &winner)
				won := winner == p.id
				logger.Info().Bool("won", won).Msg("Game ended")
				return won, nil
			}
		}
	}
}

// send waits out the pace and writes a move.
func (p *Player) send(ctx context.Context, mv Move) {
	if p.pace > 0 {
		t := time.NewTimer(p.pace)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	if err := p.client.Send(mv.Event, mv.Data); err != nil {
		log.Debug().Err(err).Str("bot", p.client.Name()).Str("event", mv.Event).Msg("Bot send failed")
	}
}

// decide picks the bot's next move for a snapshot.
func (p *Player) decide(snap conquest.Snapshot) (Move, bool) {
	v := &View{Snapshot: snap, Board: p.board, Self: p.id}
	me, seated := v.Me()
	if !seated || snap.Winner != "" {
		return Move{}, false
	}

	if !snap.GameStarted {
		return p.lobby(v, me)
	}
	if snap.CurrentPlayer != p.id {
		return Move{}, false
	}

	if !snap.InitialPlacementFinished {
		if len(snap.AvailableTerritories) > 0 {
			return clickMove(pick(snap.AvailableTerritories))
		}
		if me.Reinforcements > 0 {
			return clickMove(pick(v.Mine()))
		}
		return Move{service.EventTurnEnd, nil}, true
	}

	switch snap.TurnStage {
	case conquest.StageReinforce:
		if me.Reinforcements > 0 {
			return clickMove(p.strategy.Reinforce(v))
		}
		return Move{service.EventTurnEndAttack, nil}, true
	case conquest.StageAttack:
		if req, ok := p.strategy.Attack(v); ok {
			return Move{service.EventAttackTerritory, req}, true
		}
		return Move{service.EventTurnEndAttack, nil}, true
	case conquest.StageFortify:
		return Move{service.EventTurnEnd, nil}, true
	}
	return Move{}, false
}

// lobby picks a name and color, then starts the match when hosting.
func (p *Player) lobby(v *View, me conquest.Player) (Move, bool) {
	if me.Color == "" {
		color := pick(v.Snapshot.ColorOptions)
		if color == "" {
			return Move{}, false
		}
		name := p.client.Name()
		return Move{service.EventUpdatePlayer, service.UpdatePlayerRequest{Name: &name, Color: &color}}, true
	}
	if p.startAt == 0 || len(v.Snapshot.Players) < p.startAt {
		return Move{}, false
	}
	for _, other := range v.Snapshot.Players {
		if other.Color == "" {
			return Move{}, false
		}
	}
	return Move{service.EventStartGame, nil}, true
}

func clickMove(territory string) (Move, bool) {
	if territory == "" {
		return Move{}, false
	}
	return Move{service.EventTerritoryClicked, territory}, true
}
