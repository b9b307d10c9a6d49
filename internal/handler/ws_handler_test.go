package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freeeve/conquest/internal/auth"
	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/internal/session"
	"github.com/freeeve/conquest/internal/testutil"
	"github.com/freeeve/conquest/pkg/conquest"
)

type wsFixture struct {
	srv    *httptest.Server
	hub    *Hub
	svc    *service.MatchService
	jwtMgr *auth.JWTManager
}

func newWSFixture(t *testing.T, opts WSOptions) *wsFixture {
	t.Helper()
	reg := session.NewRegistry(func(id string) *conquest.Match {
		return conquest.NewMatch(id, nil, conquest.Options{})
	})
	hub := NewHub()
	svc := service.NewMatchService(reg, hub, nil, nil)
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewWSHandler(hub, svc, jwtMgr, opts)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &wsFixture{srv: srv, hub: hub, svc: svc, jwtMgr: jwtMgr}
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads events until one named name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, name string) service.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev service.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %s: %v", name, err)
		}
		if ev.Event == name {
			return ev
		}
	}
}

func TestWSConnectAndCreateGame(t *testing.T) {
	f := newWSFixture(t, WSOptions{})
	conn := f.dial(t, "")

	connected := readEvent(t, conn, service.EventConnected)
	id, _ := connected.Data.(map[string]any)["id"].(string)
	if id == "" {
		t.Fatalf("expected connection id, got %+v", connected.Data)
	}

	if err := conn.WriteJSON(map[string]any{"event": "create-game", "data": map[string]string{"name": "alpha"}}); err != nil {
		t.Fatal(err)
	}
	ev := readEvent(t, conn, service.EventCreateGameSuccess)
	if ev.Data != "game:alpha" || ev.GameID != "game:alpha" {
		t.Errorf("unexpected create-game-success %+v", ev)
	}

	snap, ok := f.svc.Snapshot("game:alpha")
	if !ok || len(snap.Players) != 1 || snap.Players[0].ID != id {
		t.Errorf("expected %s seated, got %+v", id, snap.Players)
	}
}

func TestWSMalformedMessagesIgnored(t *testing.T) {
	f := newWSFixture(t, WSOptions{})
	conn := f.dial(t, "")
	readEvent(t, conn, service.EventConnected)

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"data":"no event"}`))
	conn.WriteJSON(map[string]any{"event": "list-games"})

	ev := readEvent(t, conn, service.EventListGames)
	if ev.Event != service.EventListGames {
		t.Errorf("connection should survive malformed input, got %+v", ev)
	}
}

func TestWSTokenNameUsed(t *testing.T) {
	f := newWSFixture(t, WSOptions{RequireAuth: true})
	pair, err := f.jwtMgr.IssueGuest("Ana")
	if err != nil {
		t.Fatal(err)
	}
	conn := f.dial(t, "?token="+pair.AccessToken)
	readEvent(t, conn, service.EventConnected)

	conn.WriteJSON(map[string]any{"event": "create-game", "data": map[string]string{"name": "alpha"}})
	readEvent(t, conn, service.EventCreateGameSuccess)

	snap, _ := f.svc.Snapshot("game:alpha")
	if len(snap.Players) != 1 || snap.Players[0].Name != "Ana" {
		t.Errorf("expected token name on player, got %+v", snap.Players)
	}
}

func TestWSAuthRejected(t *testing.T) {
	tests := []struct {
		name  string
		opts  WSOptions
		query string
	}{
		{"missing token when required", WSOptions{RequireAuth: true}, ""},
		{"bad token", WSOptions{}, "?token=garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWSFixture(t, tt.opts)
			url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws" + tt.query
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatal("expected dial to fail")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %+v", resp)
			}
		})
	}
}

func TestWSRateLimit(t *testing.T) {
	f := newWSFixture(t, WSOptions{IntentRate: 0.001, IntentBurst: 1})
	conn := f.dial(t, "")
	readEvent(t, conn, service.EventConnected)

	conn.WriteJSON(map[string]any{"event": "list-games"})
	conn.WriteJSON(map[string]any{"event": "list-games"})

	ev := readEvent(t, conn, service.EventGameErrorNotification)
	if ev.Data != ErrTooManyIntents.Error() {
		t.Errorf("expected rate limit notification, got %+v", ev)
	}
}

func TestWSDisconnectLeavesGame(t *testing.T) {
	f := newWSFixture(t, WSOptions{})
	conn := f.dial(t, "")
	readEvent(t, conn, service.EventConnected)
	conn.WriteJSON(map[string]any{"event": "create-game", "data": map[string]string{"name": "alpha"}})
	readEvent(t, conn, service.EventCreateGameSuccess)

	conn.Close()
	testutil.Eventually(t, 2*time.Second, func() bool {
		_, ok := f.svc.Snapshot("game:alpha")
		return !ok && f.hub.ConnectionCount() == 0
	}, "empty game was not removed on disconnect")
}
