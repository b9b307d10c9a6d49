package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/conquest/internal/model"
)

const lobbyKey = "conquest:lobby"

// closedTTL bounds how long a closed match stays readable when snapshots
// otherwise never expire.
const closedTTL = time.Hour

func snapshotKey(sessionID string) string { return "conquest:" + sessionID + ":snapshot" }

// SetSnapshot stores the latest snapshot JSON of a live match.
func (c *Client) SetSnapshot(ctx context.Context, sessionID string, snapshot json.RawMessage) error {
	if err := c.rdb.Set(ctx, snapshotKey(sessionID), []byte(snapshot), c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot, or nil when none is stored.
func (c *Client) GetSnapshot(ctx context.Context, sessionID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetLobbyEntry upserts a match in the lobby index.
func (c *Client) SetLobbyEntry(ctx context.Context, entry model.LobbyEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode lobby entry: %w", err)
	}
	return c.rdb.HSet(ctx, lobbyKey, entry.ID, data).Err()
}

// LobbyEntries returns every indexed match sorted by id. Entries that fail
// to decode are skipped.
func (c *Client) LobbyEntries(ctx context.Context) ([]model.LobbyEntry, error) {
	raw, err := c.rdb.HGetAll(ctx, lobbyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list lobby: %w", err)
	}
	entries := make([]model.LobbyEntry, 0, len(raw))
	for _, v := range raw {
		var e model.LobbyEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// CloseMatch removes a match from the lobby index. Its last snapshot stays
// readable until it expires.
func (c *Client) CloseMatch(ctx context.Context, sessionID string) error {
	ttl := c.ttl
	if ttl <= 0 {
		ttl = closedTTL
	}
	pipe := c.rdb.TxPipeline()
	pipe.HDel(ctx, lobbyKey, sessionID)
	pipe.Expire(ctx, snapshotKey(sessionID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("close match: %w", err)
	}
	return nil
}
