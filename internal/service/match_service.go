package service

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/model"
	"github.com/freeeve/conquest/internal/session"
	"github.com/freeeve/conquest/pkg/conquest"
)

var (
	ErrNotInGame       = errors.New("you are not in a game")
	ErrGameNameMissing = errors.New("game name is required")
	ErrBadPayload      = errors.New("malformed request")
	ErrBotsDisabled    = errors.New("bot players are not available")
	ErrInternal        = errors.New("internal error, the action was not applied")
)

// BotSpawner starts an autonomous player that joins a session.
type BotSpawner interface {
	Spawn(sessionID, strategy string) error
}

type intentHandler func(ctx context.Context, in Intent)

// MatchService translates connection intents into match operations and
// broadcasts the resulting state. Every intent runs to completion under one
// lock, so no two intents interleave.
type MatchService struct {
	mu       sync.Mutex
	reg      *session.Registry
	out      Broadcaster
	recorder *Recorder
	bots     BotSpawner

	names     map[string]string
	startedAt map[string]time.Time
	handlers  map[string]intentHandler
}

// NewMatchService creates a MatchService. recorder and bots may be nil.
func NewMatchService(reg *session.Registry, out Broadcaster, recorder *Recorder, bots BotSpawner) *MatchService {
	s := &MatchService{
		reg:       reg,
		out:       out,
		recorder:  recorder,
		bots:      bots,
		names:     make(map[string]string),
		startedAt: make(map[string]time.Time),
	}
	s.handlers = map[string]intentHandler{
		EventCreateGame:                s.createGame,
		EventJoinGame:                  s.joinGame,
		EventLeaveGame:                 s.leaveGame,
		EventListGames:                 func(context.Context, Intent) { s.listGames() },
		EventUpdatePlayer:              s.updatePlayer,
		EventStartGame:                 s.startGame,
		EventUpdatePlacementConfig:     s.updatePlacementConfig,
		EventUpdateReinforcementConfig: s.updateReinforcementConfig,
		EventGetGameDetails:            s.getGameDetails,
		EventTerritoryClicked:          s.territoryClicked,
		EventAttackTerritory:           s.attackTerritory,
		EventTurnReinforceTerritory:    s.reinforceTerritory,
		EventTurnReinforceStart:        s.endAttack,
		EventTurnEndAttack:             s.endAttack,
		EventTurnEnd:                   s.endTurn,
		EventChatSendMessage:           s.sendChat,
		EventRequestBotPlayer:          s.requestBot,
	}
	return s
}

// SetBotSpawner installs the bot spawner after construction.
func (s *MatchService) SetBotSpawner(bots BotSpawner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots = bots
}

// Connect registers a new connection and tells it its id. name is the
// display name from its token, if any.
func (s *MatchService) Connect(connID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.names[connID] = name
	}
	s.out.Send(connID, Event{Event: EventConnected, Data: map[string]string{"id": connID}})
}

// Disconnect removes a closed connection from its match.
func (s *MatchService) Disconnect(ctx context.Context, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leave(ctx, connID) {
		s.listGames()
	}
	delete(s.names, connID)
}

// Handle applies one intent. Unknown events are logged and ignored.
func (s *MatchService) Handle(ctx context.Context, in Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(in)

	h, ok := s.handlers[in.Event]
	if !ok {
		log.Warn().Str("conn", in.ConnID).Str("event", in.Event).Msg("Unknown event")
		return
	}
	h(ctx, in)
}

// recoverIntent turns a panic raised while applying an intent into an error
// notification for the sender. The match keeps running.
func (s *MatchService) recoverIntent(in Intent) {
	r := recover()
	if r == nil {
		return
	}
	l := log.Error().Str("conn", in.ConnID).Str("event", in.Event).Bytes("stack", debug.Stack())
	var ie *conquest.InvariantError
	if err, ok := r.(error); ok && errors.As(err, &ie) {
		l.Err(ie).Msg("Invariant violated while handling intent")
	} else {
		l.Interface("panic", r).Msg("Intent handler panicked")
	}
	sid, _ := s.reg.MatchFor(in.ConnID)
	s.fail(in.ConnID, sid, ErrInternal)
}

// Snapshot returns the current state of a session.
func (s *MatchService) Snapshot(sessionID string) (conquest.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.reg.Games.Get(sessionID)
	if m == nil {
		return conquest.Snapshot{}, false
	}
	return m.Snapshot(), true
}

// PruneCache closes cached lobby entries for matches this process does not
// hold. It returns the number closed.
func (s *MatchService) PruneCache(ctx context.Context) int {
	n, err := s.recorder.Prune(ctx, func(sid string) bool { return s.reg.Games.Get(sid) != nil })
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune cached lobby")
	}
	return n
}

// Games lists the live matches.
func (s *MatchService) Games() []conquest.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaries()
}

// Sweep prunes members that no longer hold a room assignment and deletes
// matches left empty. It returns the number of deleted matches.
func (s *MatchService) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, sid := range s.reg.Games.List() {
		m := s.reg.Games.Get(sid)
		if m == nil {
			continue
		}
		removed := m.RemoveInactive(s.inRoom(sid))
		if m.Empty() {
			s.deleteMatch(sid)
			deleted++
			continue
		}
		if len(removed) > 0 {
			log.Info().Str("session", sid).Strs("removed", removed).Msg("Pruned inactive members")
			s.details(sid, m)
		}
	}
	if deleted > 0 {
		s.listGames()
	}
	return deleted
}

func (s *MatchService) createGame(ctx context.Context, in Intent) {
	var req CreateGameRequest
	if err := decode(in.Data, &req); err != nil {
		s.out.Send(in.ConnID, Event{Event: EventCreateGameError, Data: ErrBadPayload.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.out.Send(in.ConnID, Event{Event: EventCreateGameError, Data: ErrGameNameMissing.Error()})
		return
	}
	sid := SessionID(name)
	if len(s.reg.Rooms.Members(sid)) > 0 {
		log.Debug().Str("conn", in.ConnID).Str("session", sid).Msg("Game name taken")
		s.out.Send(in.ConnID, Event{Event: EventCreateGameError, GameID: sid, Data: sid})
		return
	}

	s.leave(ctx, in.ConnID)
	if s.reg.Games.Get(sid) != nil {
		s.deleteMatch(sid)
	}
	m := s.reg.Games.GetOrCreate(sid)
	s.reg.Rooms.Assign(in.ConnID, sid)
	if err := s.seat(m, in.ConnID, req.JoinAsSpectator); err != nil {
		s.fail(in.ConnID, sid, err)
	}

	log.Info().Str("conn", in.ConnID).Str("session", sid).Msg("Game created")
	s.out.Send(in.ConnID, Event{Event: EventCreateGameSuccess, GameID: sid, Data: sid})
	s.details(sid, m)
	s.listGames()
}

func (s *MatchService) joinGame(ctx context.Context, in Intent) {
	var req JoinGameRequest
	if err := decode(in.Data, &req); err != nil {
		s.fail(in.ConnID, "", ErrBadPayload)
		return
	}
	sid := SessionID(req.SelectedGame)
	if sid == "" {
		s.fail(in.ConnID, "", ErrGameNameMissing)
		return
	}

	if current, ok := s.reg.Rooms.Lookup(in.ConnID); !ok || current != sid {
		s.leave(ctx, in.ConnID)
	}
	m := s.reg.Games.GetOrCreate(sid)
	s.reg.Rooms.Assign(in.ConnID, sid)
	if err := s.seat(m, in.ConnID, req.JoinAsSpectator); err != nil && !errors.Is(err, conquest.ErrAlreadyJoined) {
		s.fail(in.ConnID, sid, err)
	}

	log.Info().Str("conn", in.ConnID).Str("session", sid).Bool("spectator", m.IsSpectator(in.ConnID)).Msg("Joined game")
	s.out.Send(in.ConnID, Event{Event: EventJoinGameSuccess, GameID: sid, Data: sid})
	s.details(sid, m)
	s.listGames()
}

func (s *MatchService) leaveGame(ctx context.Context, in Intent) {
	if s.leave(ctx, in.ConnID) {
		s.listGames()
	}
}

func (s *MatchService) updatePlayer(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var req UpdatePlayerRequest
	if err := decode(in.Data, &req); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := m.UpdatePlayer(in.ConnID, req.Name, req.Color); err != nil {
		s.fail(in.ConnID, sid, err)
	}
	s.details(sid, m)
	s.listGames()
}

func (s *MatchService) startGame(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	if m.Started() {
		if m.IsSpectator(in.ConnID) {
			s.out.Send(in.ConnID, Event{Event: EventStartGame, GameID: sid})
		}
		return
	}

	if err := m.Start(); err != nil {
		if errors.Is(err, conquest.ErrPlayersNeedColors) || errors.Is(err, conquest.ErrNoPlayers) {
			s.toRoom(sid, EventStartGameError, reason(err))
			return
		}
		s.fail(in.ConnID, sid, err)
		return
	}

	s.startedAt[sid] = time.Now().UTC()
	log.Info().Str("session", sid).Int("players", len(m.PlayerIDs())).
		Str("placement", string(m.PlacementMode())).Str("reinforcement", string(m.ReinforcementMode())).
		Msg("Game started")
	s.toRoom(sid, EventStartGame, nil)
	s.toRoom(sid, EventUpdateTurn, currentPlayer(m))
	s.details(sid, m)
	s.listGames()
	if m.Over() {
		s.victory(sid, m)
	}
}

func (s *MatchService) updatePlacementConfig(_ context.Context, in Intent) {
	s.updateMode(in, (*conquest.Match).SetPlacementMode)
}

func (s *MatchService) updateReinforcementConfig(_ context.Context, in Intent) {
	s.updateMode(in, (*conquest.Match).SetReinforcementMode)
}

func (s *MatchService) updateMode(in Intent, set func(*conquest.Match, string) error) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var mode string
	if err := decode(in.Data, &mode); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		s.details(sid, m)
		return
	}
	if err := set(m, mode); err != nil {
		s.fail(in.ConnID, sid, err)
	}
	s.details(sid, m)
}

func (s *MatchService) getGameDetails(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var requested string
	if len(in.Data) > 0 {
		if err := decode(in.Data, &requested); err != nil {
			s.fail(in.ConnID, sid, ErrBadPayload)
			return
		}
	}
	if requested != "" && SessionID(requested) != sid {
		log.Debug().Str("conn", in.ConnID).Str("requested", requested).Str("session", sid).Msg("Details requested for another game")
		return
	}
	if removed := m.RemoveInactive(s.inRoom(sid)); len(removed) > 0 {
		log.Info().Str("session", sid).Strs("removed", removed).Msg("Pruned inactive members")
	}
	s.details(sid, m)
}

func (s *MatchService) territoryClicked(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var territory string
	if err := decode(in.Data, &territory); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		s.details(sid, m)
		return
	}

	action, err := m.TerritoryClicked(in.ConnID, territory)
	if err != nil {
		log.Debug().Err(err).Str("conn", in.ConnID).Str("territory", territory).Str("action", string(action)).Msg("Territory click rejected")
		if errors.Is(err, conquest.ErrNotYourTurn) {
			s.toRoom(sid, EventUpdateTurn, currentPlayer(m))
		} else {
			s.fail(in.ConnID, sid, err)
		}
		s.details(sid, m)
		return
	}

	if action == conquest.ActionClaim || action == conquest.ActionPlace {
		s.toRoom(sid, EventUpdateTurn, currentPlayer(m))
	}
	s.details(sid, m)
	if m.Over() {
		s.victory(sid, m)
	}
}

func (s *MatchService) attackTerritory(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var req AttackRequest
	if err := decode(in.Data, &req); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		s.details(sid, m)
		return
	}

	res, err := m.Attack(in.ConnID, req.AttackerID, req.DefenderID)
	if err != nil {
		s.fail(in.ConnID, sid, err)
		if errors.Is(err, conquest.ErrNotOwner) || errors.Is(err, conquest.ErrOwnTerritory) {
			s.details(sid, m)
		}
		return
	}

	log.Debug().Str("session", sid).Str("from", res.From).Str("to", res.To).
		Ints("attacker", res.Combat.AttackerRolls).Ints("defender", res.Combat.DefenderRolls).
		Int("attackerLosses", res.AttackerLosses).Int("defenderLosses", res.DefenderLosses).
		Bool("conquered", res.Conquered).Msg("Attack resolved")

	if res.FrontLine != nil {
		from, _ := m.Territory(res.From)
		to, _ := m.Territory(res.To)
		s.out.Send(in.ConnID, Event{Event: EventAttackTerritorySuccess, GameID: sid, Data: AttackSuccess{
			AttackerReinforceConfig: ReinforceConfig{
				AttackerTerritory:  TerritoryView{ID: res.From, Territory: from},
				DefendingTerritory: TerritoryView{ID: res.To, Territory: to},
				Max:                res.FrontLine.Max,
			},
			GameDetails: m.Snapshot(),
		}})
	}
	if res.Victory {
		s.victory(sid, m)
	}
	s.details(sid, m)
}

func (s *MatchService) reinforceTerritory(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var req ReinforceRequest
	if err := decode(in.Data, &req); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		return
	}
	if err := m.ReinforceFromAnother(in.ConnID, req.ReinforceFrom, req.ReinforceTo, int(req.Amount)); err != nil {
		s.fail(in.ConnID, sid, err)
		return
	}
	s.out.Send(in.ConnID, Event{Event: EventTurnReinforceTerritory, GameID: sid, Data: true})
	s.details(sid, m)
}

func (s *MatchService) endAttack(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	if err := m.EndAttack(in.ConnID); err != nil {
		s.fail(in.ConnID, sid, err)
		s.details(sid, m)
		return
	}
	s.toRoom(sid, EventTurnReinforceDone, nil)
	s.details(sid, m)
}

func (s *MatchService) endTurn(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	if err := m.EndTurn(in.ConnID); err != nil {
		if !errors.Is(err, conquest.ErrNotYourTurn) {
			s.fail(in.ConnID, sid, err)
		}
		s.details(sid, m)
		return
	}
	s.toRoom(sid, EventUpdateTurn, currentPlayer(m))
	s.details(sid, m)
	if m.Over() {
		s.victory(sid, m)
	}
}

func (s *MatchService) sendChat(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var text string
	if err := decode(in.Data, &text); err != nil {
		s.fail(in.ConnID, sid, ErrBadPayload)
		return
	}
	msg, err := m.AddChatMessage(in.ConnID, text)
	if err != nil {
		s.fail(in.ConnID, sid, err)
		return
	}
	s.recorder.Chat(&model.ChatRecord{
		SessionID: sid,
		SenderID:  msg.PlayerID,
		Name:      msg.Name,
		Color:     msg.Color,
		Message:   msg.Message,
		CreatedAt: msg.SentAt,
	})
	s.details(sid, m)
}

func (s *MatchService) requestBot(_ context.Context, in Intent) {
	sid, m := s.match(in.ConnID)
	if m == nil {
		return
	}
	var req BotRequest
	if len(in.Data) > 0 && string(in.Data) != "null" {
		if err := decode(in.Data, &req); err != nil {
			s.fail(in.ConnID, sid, ErrBadPayload)
			return
		}
	}
	if s.bots == nil {
		s.fail(in.ConnID, sid, ErrBotsDisabled)
		return
	}
	if m.Started() {
		s.fail(in.ConnID, sid, conquest.ErrAlreadyStarted)
		return
	}
	if err := s.bots.Spawn(sid, req.Strategy); err != nil {
		log.Error().Err(err).Str("session", sid).Str("strategy", req.Strategy).Msg("Failed to spawn bot")
		s.fail(in.ConnID, sid, err)
		return
	}
	log.Info().Str("session", sid).Str("strategy", req.Strategy).Msg("Bot requested")
}

// match resolves the connection's match, notifying it when there is none.
func (s *MatchService) match(connID string) (string, *conquest.Match) {
	sid, m := s.reg.MatchFor(connID)
	if m == nil {
		s.fail(connID, sid, ErrNotInGame)
	}
	return sid, m
}

// seat adds a connection as a player, or as a spectator when asked to or
// when the match has already started.
func (s *MatchService) seat(m *conquest.Match, connID string, spectator bool) error {
	name := s.names[connID]
	if spectator || m.Started() {
		return m.AddSpectator(connID, name)
	}
	return m.AddPlayer(connID, name)
}

// leave removes a connection from its match and room. It reports whether
// the connection was in a match.
func (s *MatchService) leave(_ context.Context, connID string) bool {
	sid, m := s.reg.MatchFor(connID)
	s.reg.Rooms.Unassign(connID)
	if m == nil {
		return sid != session.Unassigned
	}

	hadTurn := m.IsPlayerTurn(connID)
	m.RemovePlayer(connID)
	m.RemoveSpectator(connID)
	if m.Empty() {
		s.deleteMatch(sid)
		log.Info().Str("conn", connID).Str("session", sid).Msg("Last member left, game deleted")
		return true
	}

	m.RemoveInactive(s.inRoom(sid))
	log.Info().Str("conn", connID).Str("session", sid).Msg("Left game")
	if hadTurn && m.Started() && !m.Over() {
		s.toRoom(sid, EventUpdateTurn, currentPlayer(m))
	}
	s.details(sid, m)
	if m.Over() {
		s.victory(sid, m)
	}
	return true
}

func (s *MatchService) deleteMatch(sid string) {
	s.reg.Games.Delete(sid)
	delete(s.startedAt, sid)
	s.recorder.Forget(sid)
}

// victory announces the winner and archives the result.
func (s *MatchService) victory(sid string, m *conquest.Match) {
	winner := m.Winner()
	log.Info().Str("session", sid).Str("winner", winner).Msg("Game won")
	s.toRoom(sid, EventGameVictory, winner)

	snap := m.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Str("session", sid).Msg("Failed to encode final snapshot")
	}
	res := &model.MatchResult{
		SessionID:  sid,
		WinnerID:   winner,
		Snapshot:   data,
		FinishedAt: time.Now().UTC(),
	}
	if p := m.Player(winner); p != nil {
		res.WinnerName = p.Name
	}
	if t, ok := s.startedAt[sid]; ok {
		res.StartedAt = &t
	}
	for _, p := range m.Players() {
		res.Players = append(res.Players, model.ResultPlayer{
			ID:          p.ID,
			Name:        p.Name,
			Color:       p.Color,
			Territories: len(m.PlayerTerritories(p.ID)),
		})
	}
	s.recorder.Result(res)
}

// details broadcasts the full snapshot to the room and caches it.
func (s *MatchService) details(sid string, m *conquest.Match) {
	snap := m.Snapshot()
	s.toRoom(sid, EventGameDetails, snap)
	s.recorder.Snapshot(sid, snap, m.Summary())
}

func (s *MatchService) listGames() {
	s.out.BroadcastAll(Event{Event: EventListGames, Data: GameList{Games: s.summaries()}})
}

func (s *MatchService) summaries() []conquest.Summary {
	ids := s.reg.Games.List()
	games := make([]conquest.Summary, 0, len(ids))
	for _, id := range ids {
		if m := s.reg.Games.Get(id); m != nil {
			games = append(games, m.Summary())
		}
	}
	return games
}

func (s *MatchService) toRoom(sid, event string, data any) {
	s.out.Broadcast(s.reg.Rooms.Members(sid), Event{Event: event, GameID: sid, Data: data})
}

// fail sends a validation failure privately to the connection.
func (s *MatchService) fail(connID, sid string, err error) {
	s.out.Send(connID, Event{Event: EventGameErrorNotification, GameID: sid, Data: reason(err)})
}

func (s *MatchService) inRoom(sid string) func(string) bool {
	return func(id string) bool {
		room, ok := s.reg.Rooms.Lookup(id)
		return ok && room == sid
	}
}

// currentPlayer copies the player holding the turn, or returns nil.
func currentPlayer(m *conquest.Match) any {
	if p := m.CurrentPlayer(); p != nil {
		return *p
	}
	return nil
}

func reason(err error) string {
	var ve *conquest.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason()
	}
	return err.Error()
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return ErrBadPayload
	}
	return json.Unmarshal(data, v)
}
