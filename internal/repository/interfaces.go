package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/conquest/internal/model"
)

// ResultRepository archives finished matches.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *model.MatchResult) (*model.MatchResult, error)
	ListResults(ctx context.Context, limit int) ([]model.MatchResult, error)
	FindResult(ctx context.Context, id string) (*model.MatchResult, error)
}

// MessageRepository archives chat lines.
type MessageRepository interface {
	Create(ctx context.Context, rec *model.ChatRecord) (*model.ChatRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ChatRecord, error)
}

// MatchCache holds the latest snapshot of every match and a lobby index of
// the open ones (Redis). Closed matches leave the index but their snapshot
// stays readable for a while.
type MatchCache interface {
	SetSnapshot(ctx context.Context, sessionID string, snapshot json.RawMessage) error
	GetSnapshot(ctx context.Context, sessionID string) (json.RawMessage, error)
	SetLobbyEntry(ctx context.Context, entry model.LobbyEntry) error
	LobbyEntries(ctx context.Context) ([]model.LobbyEntry, error)
	CloseMatch(ctx context.Context, sessionID string) error
}
