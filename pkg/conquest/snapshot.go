package conquest

// Snapshot is a read-only view of a match: stored state plus the derived
// views clients render from.
type Snapshot struct {
	ID                       string               `json:"id"`
	Players                  []Player             `json:"players"`
	Spectators               []Spectator          `json:"spectators"`
	Territories              map[string]Territory `json:"territories"`
	PlayerTurn               int                  `json:"playerTurn"`
	CurrentPlayer            string               `json:"currentPlayer,omitempty"`
	Phase                    Phase                `json:"phase"`
	TurnStage                Stage                `json:"turnStage"`
	GameStarted              bool                 `json:"gameStarted"`
	InitialPlacementFinished bool                 `json:"isInitialPlacementFinished"`
	PlacementMode            Mode                 `json:"placementMode"`
	ReinforcementMode        Mode                 `json:"reinforcementMode"`
	Winner                   string               `json:"winner,omitempty"`
	Chat                     []ChatMessage        `json:"chat"`

	AvailableTerritories     []string            `json:"availableTerritories"`
	TerritoryMap             map[string][]string `json:"territoryMap"`
	ContinentOwnership       map[string][]string `json:"continentOwnership"`
	ColorOptions             []string            `json:"colorOptions"`
	PlacementModeOptions     []Mode              `json:"placementModeOptions"`
	ReinforcementModeOptions []Mode              `json:"reinforcementModeOptions"`
}

// Snapshot copies the current state of the match.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		ID:                       m.ID,
		Players:                  m.Players(),
		Spectators:               m.Spectators(),
		Territories:              m.Territories(),
		PlayerTurn:               m.turn,
		Phase:                    m.Phase(),
		TurnStage:                m.stage,
		GameStarted:              m.started,
		InitialPlacementFinished: m.placementFinished,
		PlacementMode:            m.placementMode,
		ReinforcementMode:        m.reinforcementMode,
		Winner:                   m.winner,
		Chat:                     m.ChatLog(),
		AvailableTerritories:     m.AvailableTerritories(),
		TerritoryMap:             m.TerritoryMap(),
		ContinentOwnership:       m.AllContinentOwnership(),
		ColorOptions:             m.ColorOptions(),
		PlacementModeOptions:     append([]Mode(nil), ModeOptions...),
		ReinforcementModeOptions: append([]Mode(nil), ModeOptions...),
	}
	if p := m.CurrentPlayer(); p != nil {
		s.CurrentPlayer = p.ID
	}
	return s
}

// Summary is the lobby listing entry for a match.
type Summary struct {
	ID         string   `json:"id"`
	Players    []string `json:"players"`
	Spectators int      `json:"spectators"`
	Started    bool     `json:"started"`
	Winner     string   `json:"winner,omitempty"`
}

// Summary returns the lobby listing entry for the match.
func (m *Match) Summary() Summary {
	names := make([]string, len(m.players))
	for i, p := range m.players {
		names[i] = p.Name
	}
	return Summary{
		ID:         m.ID,
		Players:    names,
		Spectators: len(m.spectators),
		Started:    m.started,
		Winner:     m.winner,
	}
}
