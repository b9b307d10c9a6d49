package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/conquest/internal/model"
)

// MessageRepo archives chat lines.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a chat line.
func (r *MessageRepo) Create(ctx context.Context, rec *model.ChatRecord) (*model.ChatRecord, error) {
	var m model.ChatRecord
	var name, color sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (session_id, sender_id, name, color, message, created_at)
		 VALUES ($1, $2, COALESCE($3, ''), COALESCE($4, ''), $5, $6)
		 RETURNING id, session_id, sender_id, name, color, message, created_at`,
		rec.SessionID, rec.SenderID, nullStr(rec.Name), nullStr(rec.Color), rec.Message, rec.CreatedAt,
	).Scan(&m.ID, &m.SessionID, &m.SenderID, &name, &color, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	m.Name = name.String
	m.Color = color.String
	return &m, nil
}

// ListBySession returns a session's archived chat in send order.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ChatRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, sender_id, name, color, message, created_at
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at, id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []model.ChatRecord
	for rows.Next() {
		var m model.ChatRecord
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderID, &m.Name, &m.Color, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
