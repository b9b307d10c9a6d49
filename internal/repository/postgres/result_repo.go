package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/freeeve/conquest/internal/model"
)

// ResultRepo archives finished matches.
type ResultRepo struct {
	db *sql.DB
}

// NewResultRepo creates a ResultRepo.
func NewResultRepo(db *sql.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

const resultColumns = `id, session_id, winner_id, winner_name, players, snapshot, started_at, finished_at`

// SaveResult inserts a match result and returns it with its generated id.
func (r *ResultRepo) SaveResult(ctx context.Context, res *model.MatchResult) (*model.MatchResult, error) {
	players, err := json.Marshal(res.Players)
	if err != nil {
		return nil, fmt.Errorf("encode result players: %w", err)
	}
	var snapshot []byte
	if len(res.Snapshot) > 0 {
		snapshot = res.Snapshot
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO match_results (session_id, winner_id, winner_name, players, snapshot, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+resultColumns,
		res.SessionID, res.WinnerID, res.WinnerName, players, snapshot, res.StartedAt, res.FinishedAt,
	)
	out, err := scanResult(row)
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	return out, nil
}

// ListResults returns the most recent results, newest first.
func (r *ResultRepo) ListResults(ctx context.Context, limit int) ([]model.MatchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM match_results ORDER BY finished_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []model.MatchResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// FindResult returns one result, or nil when it does not exist. Ids that
// are not UUIDs never match.
func (r *ResultRepo) FindResult(ctx context.Context, id string) (*model.MatchResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM match_results WHERE id = $1`, id)
	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find result: %w", err)
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*model.MatchResult, error) {
	var (
		res       model.MatchResult
		players   []byte
		snapshot  []byte
		startedAt sql.NullTime
	)
	if err := s.Scan(&res.ID, &res.SessionID, &res.WinnerID, &res.WinnerName, &players, &snapshot, &startedAt, &res.FinishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(players, &res.Players); err != nil {
		return nil, fmt.Errorf("decode result players: %w", err)
	}
	if len(snapshot) > 0 {
		res.Snapshot = json.RawMessage(snapshot)
	}
	if startedAt.Valid {
		t := startedAt.Time
		res.StartedAt = &t
	}
	return &res, nil
}
