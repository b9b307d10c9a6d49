package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/conquest/pkg/conquest"
)

// Inbound events.
const (
	EventCreateGame                = "create-game"
	EventJoinGame                  = "join-game"
	EventLeaveGame                 = "leave-game"
	EventListGames                 = "list-games"
	EventUpdatePlayer              = "update-player"
	EventStartGame                 = "start-game"
	EventUpdatePlacementConfig     = "update-placement-config"
	EventUpdateReinforcementConfig = "update-reinforcement-config"
	EventGetGameDetails            = "get-game-details"
	EventTerritoryClicked          = "territory-clicked"
	EventAttackTerritory           = "attack-territory"
	EventTurnReinforceTerritory    = "turn-reinforce-territory"
	EventTurnReinforceStart        = "turn-reinforce-territories-start"
	EventTurnEndAttack             = "turn-end-attack"
	EventTurnEnd                   = "turn-end"
	EventChatSendMessage           = "chat-send-message"
	EventRequestBotPlayer          = "request-bot-player"
)

// Outbound events.
const (
	EventConnected              = "connected"
	EventCreateGameSuccess      = "create-game-success"
	EventCreateGameError        = "create-game-error"
	EventJoinGameSuccess        = "join-game-success"
	EventGameDetails            = "game-details"
	EventUpdateTurn             = "update-turn"
	EventStartGameError         = "start-game-error"
	EventAttackTerritorySuccess = "attack-territory-success"
	EventTurnReinforceDone      = "turn-reinforce-territories"
	EventGameVictory            = "game-victory"
	EventGameErrorNotification  = "game-error-notification"
)

// SessionPrefix namespaces session ids derived from game names.
const SessionPrefix = "game:"

// SessionID returns the session id for a game name. Ids that already carry
// the prefix are returned unchanged.
func SessionID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, SessionPrefix) {
		return name
	}
	return SessionPrefix + name
}

// Intent is one decoded inbound message from a connection.
type Intent struct {
	ConnID string
	Event  string
	Data   json.RawMessage
}

// CreateGameRequest is the create-game payload.
type CreateGameRequest struct {
	Name            string `json:"name"`
	JoinAsSpectator bool   `json:"joinAsSpectator"`
}

// JoinGameRequest is the join-game payload.
type JoinGameRequest struct {
	SelectedGame    string `json:"selectedGame"`
	JoinAsSpectator bool   `json:"joinAsSpectator"`
}

// UpdatePlayerRequest is the update-player payload. Absent fields are left unchanged.
type UpdatePlayerRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// AttackRequest is the attack-territory payload.
type AttackRequest struct {
	AttackerID string `json:"attackerID"`
	DefenderID string `json:"defenderID"`
}

// ReinforceRequest is the turn-reinforce-territory payload.
type ReinforceRequest struct {
	ReinforceFrom string `json:"reinforceFrom"`
	ReinforceTo   string `json:"reinforceTo"`
	Amount        Armies `json:"amount"`
}

// BotRequest is the request-bot-player payload.
type BotRequest struct {
	Strategy string `json:"strategy"`
}

// Armies is an army count that also accepts a numeric string on the wire.
type Armies int

func (a *Armies) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("amount must be a number")
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if v, err := strconv.Atoi(n.String()); err == nil {
		*a = Armies(v)
		return nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return fmt.Errorf("amount must be a number")
	}
	*a = Armies(int(f))
	return nil
}

// GameList is the list-games payload.
type GameList struct {
	Games []conquest.Summary `json:"games"`
}

// TerritoryView is a territory together with its id.
type TerritoryView struct {
	ID string `json:"id"`
	conquest.Territory
}

// ReinforceConfig describes the follow-up move offered after a conquest.
type ReinforceConfig struct {
	AttackerTerritory  TerritoryView `json:"attackerTerritory"`
	DefendingTerritory TerritoryView `json:"defendingTerritory"`
	Max                int           `json:"max"`
}

// AttackSuccess is the private attack-territory-success payload.
type AttackSuccess struct {
	AttackerReinforceConfig ReinforceConfig   `json:"attackerReinforceConfig"`
	GameDetails             conquest.Snapshot `json:"gameDetails"`
}
