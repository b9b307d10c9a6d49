package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/freeeve/conquest/internal/auth"
	"github.com/freeeve/conquest/internal/model"
	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/internal/session"
	"github.com/freeeve/conquest/pkg/conquest"
)

// --- Mock Repositories ---

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
	if limit <= 0 || limit > len(m.results) {
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
	m.messages = append(m.messages, *rec)
	return rec, nil
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

type mockMatchCache struct {
	snapshots map[string]json.RawMessage
	err       error
}

func (m *mockMatchCache) SetSnapshot(_ context.Context, sessionID string, snapshot json.RawMessage) error {
	m.snapshots[sessionID] = snapshot
	return nil
}

func (m *mockMatchCache) GetSnapshot(_ context.Context, sessionID string) (json.RawMessage, error) {
	return m.snapshots[sessionID], m.err
}

func (m *mockMatchCache) SetLobbyEntry(context.Context, model.LobbyEntry) error { return nil }

func (m *mockMatchCache) LobbyEntries(context.Context) ([]model.LobbyEntry, error) { return nil, nil }

func (m *mockMatchCache) CloseMatch(context.Context, string) error { return nil }

// --- Helpers ---

func newTestService() *service.MatchService {
	reg := session.NewRegistry(func(id string) *conquest.Match {
		return conquest.NewMatch(id, nil, conquest.Options{})
	})
	return service.NewMatchService(reg, service.NoopBroadcaster{}, nil, nil)
}

func createGame(svc *service.MatchService, connID, name string) {
	data, _ := json.Marshal(service.CreateGameRequest{Name: name})
	svc.Handle(context.Background(), service.Intent{ConnID: connID, Event: service.EventCreateGame, Data: data})
}

func reqWithIdentity(method, path string, id auth.Identity) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

// --- Game Handler Tests ---

func TestListGames(t *testing.T) {
	svc := newTestService()
	createGame(svc, "c1", "alpha")
	createGame(svc, "c2", "beta")
	h := NewGameHandler(svc, conquest.StandardBoard(), nil, nil)

	rec := httptest.NewRecorder()
	h.ListGames(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list service.GameList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Games) != 2 || list.Games[0].ID != "game:alpha" || list.Games[1].ID != "game:beta" {
		t.Errorf("unexpected games %+v", list.Games)
	}
}

func TestListGamesEmpty(t *testing.T) {
	h := NewGameHandler(newTestService(), conquest.StandardBoard(), nil, nil)
	rec := httptest.NewRecorder()
	h.ListGames(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))

	if body := strings.TrimSpace(rec.Body.String()); body != `{"games":[]}` {
		t.Errorf("expected empty games list, got %s", body)
	}
}

func TestGetGame(t *testing.T) {
	svc := newTestService()
	createGame(svc, "c1", "alpha")
	h := NewGameHandler(svc, conquest.StandardBoard(), nil, nil)

	tests := []struct {
		id   string
		want int
	}{
		{"alpha", http.StatusOK},
		{"game:alpha", http.StatusOK},
		{"missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/games/"+tt.id, nil)
		req.SetPathValue("id", tt.id)
		rec := httptest.NewRecorder()
		h.GetGame(rec, req)

		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.id, tt.want, rec.Code)
			continue
		}
		if tt.want != http.StatusOK {
			continue
		}
		var snap conquest.Snapshot
		json.Unmarshal(rec.Body.Bytes(), &snap)
		if snap.ID != "game:alpha" || len(snap.Players) != 1 || snap.Phase != conquest.PhaseLobby {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	}
}

func TestGetGameFromCache(t *testing.T) {
	svc := newTestService()
	createGame(svc, "c1", "alpha")
	cache := &mockMatchCache{snapshots: map[string]json.RawMessage{
		"game:alpha": json.RawMessage(`{"id":"game:alpha","phase":"victory"}`),
		"game:old":   json.RawMessage(`{"id":"game:old","phase":"victory","winner":"c9"}`),
	}}

	tests := []struct {
		name  string
		id    string
		cache *mockMatchCache
		code  int
		phase conquest.Phase
	}{
		{"live game wins over cache", "alpha", cache, http.StatusOK, conquest.PhaseLobby},
		{"closed game from cache", "old", cache, http.StatusOK, conquest.PhaseVictory},
		{"expired", "gone", cache, http.StatusNotFound, ""},
		{"cache error", "old", &mockMatchCache{err: fmt.Errorf("redis down")}, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGameHandler(svc, conquest.StandardBoard(), nil, tt.cache)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/games/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()
			h.GetGame(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var snap conquest.Snapshot
			if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if snap.Phase != tt.phase {
				t.Errorf("expected phase %s, got %s", tt.phase, snap.Phase)
			}
		})
	}
}

func TestBoard(t *testing.T) {
	board := conquest.StandardBoard()
	h := NewGameHandler(newTestService(), board, nil, nil)
	rec := httptest.NewRecorder()
	h.Board(rec, httptest.NewRequest(http.MethodGet, "/api/v1/board", nil))

	loaded, err := conquest.LoadBoard(rec.Body)
	if err != nil {
		t.Fatalf("load served board: %v", err)
	}
	if loaded.TerritoryCount() != board.TerritoryCount() {
		t.Errorf("expected %d territories, got %d", board.TerritoryCount(), loaded.TerritoryCount())
	}
}

func TestListResults(t *testing.T) {
	repo := &mockResultRepo{}
	for _, w := range []string{"c1", "c2", "c3"} {
		repo.SaveResult(context.Background(), &model.MatchResult{SessionID: "game:" + w, WinnerID: w})
	}

	tests := []struct {
		name  string
		repo  *mockResultRepo
		query string
		code  int
		count int
	}{
		{"disabled", nil, "", http.StatusServiceUnavailable, 0},
		{"all", repo, "", http.StatusOK, 3},
		{"limited", repo, "?limit=2", http.StatusOK, 2},
		{"bad limit", repo, "?limit=lots", http.StatusBadRequest, 0},
		{"negative limit", repo, "?limit=-1", http.StatusBadRequest, 0},
		{"empty archive", &mockResultRepo{}, "", http.StatusOK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h *GameHandler
			if tt.repo == nil {
				h = NewGameHandler(newTestService(), conquest.StandardBoard(), nil, nil)
			} else {
				h = NewGameHandler(newTestService(), conquest.StandardBoard(), tt.repo, nil)
			}
			rec := httptest.NewRecorder()
			h.ListResults(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results"+tt.query, nil))

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var results []model.MatchResult
			if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(results) != tt.count {
				t.Errorf("expected %d results, got %d", tt.count, len(results))
			}
		})
	}
}

func TestGetResult(t *testing.T) {
	repo := &mockResultRepo{}
	repo.SaveResult(context.Background(), &model.MatchResult{SessionID: "game:alpha", WinnerID: "c1", WinnerName: "Ana"})
	h := NewGameHandler(newTestService(), conquest.StandardBoard(), repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results/result-1", nil)
	req.SetPathValue("id", "result-1")
	rec := httptest.NewRecorder()
	h.GetResult(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res model.MatchResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.WinnerName != "Ana" {
		t.Errorf("expected Ana, got %q", res.WinnerName)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/results/result-9", nil)
	req.SetPathValue("id", "result-9")
	rec = httptest.NewRecorder()
	h.GetResult(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Message Handler Tests ---

func TestListMessages(t *testing.T) {
	repo := &mockMessageRepo{}
	repo.Create(context.Background(), &model.ChatRecord{SessionID: "game:alpha", Name: "Ana", Message: "hi"})
	repo.Create(context.Background(), &model.ChatRecord{SessionID: "game:beta", Name: "Bea", Message: "yo"})
	h := NewMessageHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/alpha/chat", nil)
	req.SetPathValue("id", "alpha")
	rec := httptest.NewRecorder()
	h.ListMessages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var msgs []model.ChatRecord
	json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 1 || msgs[0].Message != "hi" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestListMessagesEmpty(t *testing.T) {
	h := NewMessageHandler(&mockMessageRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/none/chat", nil)
	req.SetPathValue("id", "none")
	rec := httptest.NewRecorder()
	h.ListMessages(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestListMessagesDisabled(t *testing.T) {
	h := NewMessageHandler(nil)
	rec := httptest.NewRecorder()
	h.ListMessages(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games/alpha/chat", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// --- User Handler Tests ---

func TestGetMe(t *testing.T) {
	req := reqWithIdentity(http.MethodGet, "/api/v1/me", auth.Identity{UserID: "guest-1", Name: "Ana", Guest: true})
	rec := httptest.NewRecorder()
	GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me map[string]any
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me["user_id"] != "guest-1" || me["name"] != "Ana" || me["guest"] != true {
		t.Errorf("unexpected identity %v", me)
	}
}

func TestGetMeAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	GetMe(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// --- Auth Handler Tests ---

func TestGuest(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(nil, jwtMgr)

	rec := httptest.NewRecorder()
	h.Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest?name=%20Ana%20", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	id, err := jwtMgr.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if id.Name != "Ana" || !id.Guest {
		t.Errorf("unexpected identity %+v", id)
	}

	rec = httptest.NewRecorder()
	h.Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a name, got %d", rec.Code)
	}
}

func TestGoogleLoginDisabled(t *testing.T) {
	h := NewAuthHandler(nil, auth.NewJWTManager("test-secret"))
	for _, fn := range []http.HandlerFunc{h.GoogleLogin, h.GoogleCallback} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	}
}

func TestGoogleLoginSetsState(t *testing.T) {
	google := auth.NewGoogleOAuth("client-id", "client-secret", "http://localhost/auth/google/callback")
	h := NewAuthHandler(google, auth.NewJWTManager("test-secret"))

	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != stateCookie || cookies[0].Value == "" {
		t.Fatalf("expected state cookie, got %+v", cookies)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Query().Get("state") != cookies[0].Value {
		t.Errorf("redirect state %q does not match cookie %q", loc.Query().Get("state"), cookies[0].Value)
	}
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	google := auth.NewGoogleOAuth("client-id", "client-secret", "http://localhost/auth/google/callback")
	h := NewAuthHandler(google, auth.NewJWTManager("test-secret"))

	tests := []struct {
		name   string
		cookie string
		query  string
	}{
		{"no cookie", "", "?state=abc&code=x"},
		{"mismatch", "abc", "?state=def&code=x"},
		{"empty", "", "?code=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: stateCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.GoogleCallback(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestGoogleCallbackMissingCode(t *testing.T) {
	google := auth.NewGoogleOAuth("client-id", "client-secret", "http://localhost/auth/google/callback")
	h := NewAuthHandler(google, auth.NewJWTManager("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "abc"})
	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(nil, jwtMgr)

	pair, err := jwtMgr.IssueGuest("Ana")
	if err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, pair.RefreshToken)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" || tokens.UserID != pair.UserID {
		t.Errorf("unexpected tokens %+v", tokens)
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(nil, jwtMgr)

	pair, _ := jwtMgr.IssueGuest("Ana")
	for _, token := range []string{"invalid", pair.AccessToken} {
		body := fmt.Sprintf(`{"refresh_token":"%s"}`, token)
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.RefreshToken(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	}
}

func TestRefreshTokenBadBody(t *testing.T) {
	h := NewAuthHandler(nil, auth.NewJWTManager("test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
