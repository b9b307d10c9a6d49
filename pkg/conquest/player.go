package conquest

import "time"

// Palette is the fixed set of player colors.
var Palette = []string{"#000", "#720000", "#025839", "#4013AF", "#04859D"}

// Mode selects whether a setup step is done by the players or by the server.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomatic Mode = "automatic"
)

// ModeOptions lists the valid placement and reinforcement modes.
var ModeOptions = []Mode{ModeAutomatic, ModeManual}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, bool) {
	for _, m := range ModeOptions {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Player takes turns and owns territories. ID is the connection id.
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	Reinforcements int    `json:"reinforcements"`
}

// Spectator watches and chats but never owns territory.
type Spectator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Territory is a claimed board territory.
type Territory struct {
	Owner  string `json:"claimedBy"`
	Color  string `json:"color"`
	Armies int    `json:"armies"`
}

// Empty reports whether the territory can be taken over.
func (t Territory) Empty() bool { return t.Armies == 0 }

// ChatMessage is one entry of a match chat log.
type ChatMessage struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Color    string    `json:"color,omitempty"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}
