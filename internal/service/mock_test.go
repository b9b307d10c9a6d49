package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/freeeve/conquest/internal/model"
)

// everyone marks events sent with BroadcastAll.
const everyone = "*"

type sentEvent struct {
	to string
	ev Event
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (f *fakeBroadcaster) Send(connID string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{to: connID, ev: ev})
}

func (f *fakeBroadcaster) Broadcast(connIDs []string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range connIDs {
		f.sent = append(f.sent, sentEvent{to: id, ev: ev})
	}
}

func (f *fakeBroadcaster) BroadcastAll(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{to: everyone, ev: ev})
}

// events returns the events named name delivered to connID, oldest first.
func (f *fakeBroadcaster) events(connID, name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, s := range f.sent {
		if s.to == connID && s.ev.Event == name {
			out = append(out, s.ev)
		}
	}
	return out
}

func (f *fakeBroadcaster) last(connID, name string) (Event, bool) {
	evs := f.events(connID, name)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

func (f *fakeBroadcaster) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type mockCache struct {
	snapshots map[string]json.RawMessage
	lobby     map[string]model.LobbyEntry
}

func newMockCache() *mockCache {
	return &mockCache{
		snapshots: make(map[string]json.RawMessage),
		lobby:     make(map[string]model.LobbyEntry),
	}
}

func (m *mockCache) SetSnapshot(_ context.Context, sessionID string, snapshot json.RawMessage) error {
	m.snapshots[sessionID] = snapshot
	return nil
}

func (m *mockCache) GetSnapshot(_ context.Context, sessionID string) (json.RawMessage, error) {
	return m.snapshots[sessionID], nil
}

func (m *mockCache) SetLobbyEntry(_ context.Context, entry model.LobbyEntry) error {
	m.lobby[entry.ID] = entry
	return nil
}

func (m *mockCache) LobbyEntries(_ context.Context) ([]model.LobbyEntry, error) {
	var out []model.LobbyEntry
	for _, e := range m.lobby {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCache) CloseMatch(_ context.Context, sessionID string) error {
	delete(m.lobby, sessionID)
	return nil
}

type mockResultRepo struct {
	results []model.MatchResult
}

func (m *mockResultRepo) SaveResult(_ context.Context, res *model.MatchResult) (*model.MatchResult, error) {
	cp := *res
	cp.ID = fmt.Sprintf("result-%d", len(m.results)+1)
	m.results = append(m.results, cp)
	return &cp, nil
}

func (m *mockResultRepo) ListResults(_ context.Context, limit int) ([]model.MatchResult, error) {
	if limit > len(m.results) {
		limit = len(m.results)
	}
	return m.results[:limit], nil
}

func (m *mockResultRepo) FindResult(_ context.Context, id string) (*model.MatchResult, error) {
	for i := range m.results {
		if m.results[i].ID == id {
			return &m.results[i], nil
		}
	}
	return nil, nil
}

type mockMessageRepo struct {
	messages []model.ChatRecord
}

func (m *mockMessageRepo) Create(_ context.Context, rec *model.ChatRecord) (*model.ChatRecord, error) {
	cp := *rec
	cp.ID = fmt.Sprintf("msg-%d", len(m.messages)+1)
	m.messages = append(m.messages, cp)
	return &cp, nil
}

func (m *mockMessageRepo) ListBySession(_ context.Context, sessionID string) ([]model.ChatRecord, error) {
	var out []model.ChatRecord
	for _, rec := range m.messages {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeSpawner struct {
	err      error
	sessions []string
	kinds    []string
}

func (f *fakeSpawner) Spawn(sessionID, strategy string) error {
	if f.err != nil {
		return f.err
	}
	f.sessions = append(f.sessions, sessionID)
	f.kinds = append(f.kinds, strategy)
	return nil
}
