package bot

import (
	"slices"
	"testing"

	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/pkg/conquest"
)

func testPlayer() *Player {
	p := NewPlayer(NewClient("Bot1", "ws://unused/ws"), ContinentStrategy{}, testBoard(), 0)
	p.id = "me"
	return p
}

func turnSnapshot(stage conquest.Stage, reinforcements int) conquest.Snapshot {
	v := testView([]string{"n1", "n2", "s1"}, []string{"n3", "s2"}, map[string]int{"n2": 5})
	snap := v.Snapshot
	snap.GameStarted = true
	snap.InitialPlacementFinished = true
	snap.CurrentPlayer = "me"
	snap.TurnStage = stage
	snap.Players[0].Reinforcements = reinforcements
	return snap
}

func TestDecide_TurnCycle(t *testing.T) {
	tests := []struct {
		name  string
		snap  func() conquest.Snapshot
		event string
		data  any
	}{
		{
			name:  "drafts toward target continent",
			snap:  func() conquest.Snapshot { return turnSnapshot(conquest.StageReinforce, 2) },
			event: service.EventTerritoryClicked,
			data:  "n2",
		},
		{
			name:  "nothing left to draft",
			snap:  func() conquest.Snapshot { return turnSnapshot(conquest.StageReinforce, 0) },
			event: service.EventTurnEndAttack,
		},
		{
			name:  "attacks",
			snap:  func() conquest.Snapshot { return turnSnapshot(conquest.StageAttack, 0) },
			event: service.EventAttackTerritory,
			data:  service.AttackRequest{AttackerID: "n2", DefenderID: "n3"},
		},
		{
			name: "ends attack when too weak",
			snap: func() conquest.Snapshot {
				s := turnSnapshot(conquest.StageAttack, 0)
				s.Territories["n2"] = conquest.Territory{Owner: "me", Armies: 1}
				return s
			},
			event: service.EventTurnEndAttack,
		},
		{
			name:  "fortify ends the turn",
			snap:  func() conquest.Snapshot { return turnSnapshot(conquest.StageFortify, 0) },
			event: service.EventTurnEnd,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv, ok := testPlayer().decide(tt.snap())
			if !ok {
				t.Fatal("expected a move")
			}
			if mv.Event != tt.event || mv.Data != tt.data {
				t.Errorf("expected %s %v, got %s %v", tt.event, tt.data, mv.Event, mv.Data)
			}
		})
	}
}

func TestDecide_Idle(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*conquest.Snapshot)
	}{
		{"not my turn", func(s *conquest.Snapshot) { s.CurrentPlayer = "foe" }},
		{"match won", func(s *conquest.Snapshot) { s.Winner = "foe" }},
		{"not seated", func(s *conquest.Snapshot) { s.Players = s.Players[1:] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := turnSnapshot(conquest.StageAttack, 0)
			tt.mutate(&snap)
			if mv, ok := testPlayer().decide(snap); ok {
				t.Errorf("expected no move, got %+v", mv)
			}
		})
	}
}

func TestDecide_InitialPlacement(t *testing.T) {
	snap := turnSnapshot(conquest.StageReinforce, 10)
	snap.InitialPlacementFinished = false
	snap.AvailableTerritories = []string{"s2"}

	mv, ok := testPlayer().decide(snap)
	if !ok || mv.Event != service.EventTerritoryClicked || mv.Data != "s2" {
		t.Errorf("expected claim of s2, got %+v", mv)
	}

	snap.AvailableTerritories = nil
	mv, ok = testPlayer().decide(snap)
	territory, _ := mv.Data.(string)
	if !ok || mv.Event != service.EventTerritoryClicked || !slices.Contains([]string{"n1", "n2", "s1"}, territory) {
		t.Errorf("expected placement on an owned territory, got %+v", mv)
	}

	snap.Players[0].Reinforcements = 0
	mv, _ = testPlayer().decide(snap)
	if mv.Event != service.EventTurnEnd {
		t.Errorf("expected turn-end with nothing left to place, got %+v", mv)
	}
}

func TestDecide_Lobby(t *testing.T) {
	lobby := func() conquest.Snapshot {
		return conquest.Snapshot{
			ID:           "game:test",
			Players:      []conquest.Player{{ID: "me", Name: "player-1"}, {ID: "foe", Name: "Ana", Color: "blue"}},
			ColorOptions: []string{"red"},
		}
	}

	mv, ok := testPlayer().decide(lobby())
	if !ok || mv.Event != service.EventUpdatePlayer {
		t.Fatalf("expected update-player, got %+v", mv)
	}
	req := mv.Data.(service.UpdatePlayerRequest)
	if *req.Name != "Bot1" || *req.Color != "red" {
		t.Errorf("expected Bot1/red, got %s/%s", *req.Name, *req.Color)
	}

	snap := lobby()
	snap.Players[0].Color = "red"
	if mv, ok := testPlayer().decide(snap); ok {
		t.Errorf("guest bot should wait for the host, got %+v", mv)
	}

	host := testPlayer()
	host.HostAt(2)
	mv, ok = host.decide(snap)
	if !ok || mv.Event != service.EventStartGame {
		t.Errorf("host should start once everyone has a color, got %+v", mv)
	}

	snap.Players[1].Color = ""
	if mv, ok := host.decide(snap); ok {
		t.Errorf("host should wait for colors, got %+v", mv)
	}

	snap = lobby()
	snap.ColorOptions = nil
	if mv, ok := testPlayer().decide(snap); ok {
		t.Errorf("no colors left, got %+v", mv)
	}
}
