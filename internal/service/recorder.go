package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/model"
	"github.com/freeeve/conquest/internal/repository"
	"github.com/freeeve/conquest/pkg/conquest"
)

const recordTimeout = 5 * time.Second

type recordKind int

const (
	recordSnapshot recordKind = iota
	recordForget
	recordResult
	recordChat
)

type record struct {
	kind      recordKind
	sessionID string
	snapshot  conquest.Snapshot
	summary   conquest.Summary
	result    *model.MatchResult
	chat      *model.ChatRecord
}

// Recorder writes match side effects (cached snapshots, lobby entries,
// results, chat) on a background goroutine. Records are dropped when the
// buffer is full so intents never wait on storage.
type Recorder struct {
	cache    repository.MatchCache
	results  repository.ResultRepository
	messages repository.MessageRepository
	records  chan record
}

// NewRecorder creates a Recorder. Any repository may be nil to disable it.
func NewRecorder(cache repository.MatchCache, results repository.ResultRepository, messages repository.MessageRepository, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		cache:    cache,
		results:  results,
		messages: messages,
		records:  make(chan record, buffer),
	}
}

// Run processes records until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	log.Info().Int("buffer", cap(r.records)).Msg("Recorder started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("pending", len(r.records)).Msg("Recorder stopped")
			return
		case rec := <-r.records:
			r.write(ctx, rec)
		}
	}
}

// Snapshot caches the latest state of a match and its lobby entry.
func (r *Recorder) Snapshot(sessionID string, snap conquest.Snapshot, summary conquest.Summary) {
	if r == nil || r.cache == nil {
		return
	}
	r.enqueue(record{kind: recordSnapshot, sessionID: sessionID, snapshot: snap, summary: summary})
}

// Forget takes a deleted match out of the cached lobby index.
func (r *Recorder) Forget(sessionID string) {
	if r == nil || r.cache == nil {
		return
	}
	r.enqueue(record{kind: recordForget, sessionID: sessionID})
}

// Result archives a finished match.
func (r *Recorder) Result(res *model.MatchResult) {
	if r == nil || r.results == nil {
		return
	}
	r.enqueue(record{kind: recordResult, sessionID: res.SessionID, result: res})
}

// Chat archives a chat line.
func (r *Recorder) Chat(rec *model.ChatRecord) {
	if r == nil || r.messages == nil {
		return
	}
	r.enqueue(record{kind: recordChat, sessionID: rec.SessionID, chat: rec})
}

// Prune closes cached lobby entries whose match is not live, such as those
// left by a previous process, and returns how many it closed.
func (r *Recorder) Prune(ctx context.Context, live func(sessionID string) bool) (int, error) {
	if r == nil || r.cache == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	entries, err := r.cache.LobbyEntries(ctx)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, e := range entries {
		if live(e.ID) {
			continue
		}
		if err := r.cache.CloseMatch(ctx, e.ID); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.records <- rec:
	default:
		log.Warn().Str("session", rec.sessionID).Int("kind", int(rec.kind)).Msg("Recorder buffer full, dropping record")
	}
}

func (r *Recorder) write(ctx context.Context, rec record) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	var err error
	switch rec.kind {
	case recordSnapshot:
		err = r.writeSnapshot(ctx, rec)
	case recordForget:
		err = r.cache.CloseMatch(ctx, rec.sessionID)
	case recordResult:
		_, err = r.results.SaveResult(ctx, rec.result)
	case recordChat:
		_, err = r.messages.Create(ctx, rec.chat)
	}
	if err != nil {
		log.Error().Err(err).Str("session", rec.sessionID).Int("kind", int(rec.kind)).Msg("Failed to record match data")
	}
}

func (r *Recorder) writeSnapshot(ctx context.Context, rec record) error {
	data, err := json.Marshal(rec.snapshot)
	if err != nil {
		return err
	}
	if err := r.cache.SetSnapshot(ctx, rec.sessionID, data); err != nil {
		return err
	}
	return r.cache.SetLobbyEntry(ctx, model.LobbyEntry{
		ID:         rec.sessionID,
		Players:    rec.summary.Players,
		Spectators: rec.summary.Spectators,
		Started:    rec.summary.Started,
		Winner:     rec.summary.Winner,
		UpdatedAt:  time.Now().UTC(),
	})
}
