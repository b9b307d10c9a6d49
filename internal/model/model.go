package model

import (
	"encoding/json"
	"time"
)

// MatchResult is the archived outcome of a finished match.
type MatchResult struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	WinnerID   string          `json:"winner_id"`
	WinnerName string          `json:"winner_name"`
	Players    []ResultPlayer  `json:"players"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at"`
}

// ResultPlayer is one participant of an archived match.
type ResultPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Territories int    `json:"territories"`
}

// ChatRecord is an archived chat line.
type ChatRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// LobbyEntry is the cached lobby view of a live match.
type LobbyEntry struct {
	ID         string    `json:"id"`
	Players    []string  `json:"players"`
	Spectators int       `json:"spectators"`
	Started    bool      `json:"started"`
	Winner     string    `json:"winner,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
