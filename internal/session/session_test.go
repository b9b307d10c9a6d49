package session

import (
	"slices"
	"sync"
	"testing"

	"github.com/freeeve/conquest/pkg/conquest"
)

func TestGameManager_GetOrCreateIdentity(t *testing.T) {
	gm := NewGameManager(nil)
	a := gm.GetOrCreate("game:one")
	b := gm.GetOrCreate("game:one")
	if a == nil || a != b {
		t.Fatal("GetOrCreate should return the same instance for the same id")
	}
	if gm.Get("game:one") != a {
		t.Error("Get should return the created instance")
	}
	if gm.GetOrCreate("game:two") == a {
		t.Error("different ids should get different matches")
	}

	if !gm.Delete("game:one") {
		t.Error("Delete should report an existing match")
	}
	if gm.Delete("game:one") {
		t.Error("second Delete should report false")
	}
	if c := gm.GetOrCreate("game:one"); c == a {
		t.Error("re-created match should be a new instance")
	}
}

func TestGameManager_AbsentKeys(t *testing.T) {
	gm := NewGameManager(nil)
	if gm.Get("missing") != nil {
		t.Error("Get on a missing id should be nil")
	}
	if gm.GetOrCreate("") != nil {
		t.Error("empty id should not create a match")
	}
	if gm.Len() != 0 {
		t.Errorf("expected no matches, got %d", gm.Len())
	}
}

func TestGameManager_ListSorted(t *testing.T) {
	gm := NewGameManager(nil)
	for _, id := range []string{"game:c", "game:a", "game:b"} {
		gm.GetOrCreate(id)
	}
	if got := gm.List(); !slices.Equal(got, []string{"game:a", "game:b", "game:c"}) {
		t.Errorf("unexpected list %v", got)
	}
}

func TestGameManager_Factory(t *testing.T) {
	gm := NewGameManager(func(id string) *conquest.Match {
		return conquest.NewMatch(id, nil, conquest.Options{PlacementMode: conquest.ModeAutomatic})
	})
	if m := gm.GetOrCreate("game:auto"); m.PlacementMode() != conquest.ModeAutomatic {
		t.Errorf("factory options not applied, got %s", m.PlacementMode())
	}
}

func TestGameManager_ConcurrentGetOrCreate(t *testing.T) {
	gm := NewGameManager(nil)
	results := make([]*conquest.Match, 32)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gm.GetOrCreate("game:race")
		}(i)
	}
	wg.Wait()
	for _, m := range results {
		if m != results[0] {
			t.Fatal("concurrent GetOrCreate returned different instances")
		}
	}
}

func TestRoomManager(t *testing.T) {
	rm := NewRoomManager()
	if s, ok := rm.Lookup("c1"); ok || s != Unassigned {
		t.Errorf("unassigned lookup returned %q, %v", s, ok)
	}

	rm.Assign("c1", "game:a")
	rm.Assign("c2", "game:a")
	rm.Assign("c3", "game:b")
	rm.Assign("", "game:b")
	rm.Assign("c4", "")

	if s, ok := rm.Lookup("c1"); !ok || s != "game:a" {
		t.Errorf("expected game:a, got %q", s)
	}
	if got := rm.Members("game:a"); !slices.Equal(got, []string{"c1", "c2"}) {
		t.Errorf("unexpected members %v", got)
	}
	if _, ok := rm.Lookup("c4"); ok {
		t.Error("empty session should not be assigned")
	}

	rm.Assign("c1", "game:b")
	if got := rm.Members("game:b"); !slices.Equal(got, []string{"c1", "c3"}) {
		t.Errorf("reassignment not reflected: %v", got)
	}

	if s := rm.Unassign("c1"); s != "game:b" {
		t.Errorf("Unassign returned %q", s)
	}
	if s := rm.Unassign("c1"); s != Unassigned {
		t.Errorf("second Unassign returned %q", s)
	}
}

func TestRegistry_MatchFor(t *testing.T) {
	r := NewRegistry(nil)
	if id, m := r.MatchFor("c1"); id != Unassigned || m != nil {
		t.Error("unassigned connection should resolve to nothing")
	}
	m := r.Games.GetOrCreate("game:x")
	r.Rooms.Assign("c1", "game:x")
	if id, got := r.MatchFor("c1"); id != "game:x" || got != m {
		t.Errorf("expected game:x, got %q", id)
	}
	r.Games.Delete("game:x")
	if _, got := r.MatchFor("c1"); got != nil {
		t.Error("deleted match should resolve to nil")
	}
}
