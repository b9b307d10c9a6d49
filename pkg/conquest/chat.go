package conquest

import (
	"strings"
	"time"
)

// MaxChatMessageLength bounds a single chat message in bytes.
const MaxChatMessageLength = 500

// AddChatMessage appends a message from a player or spectator to the log.
func (m *Match) AddChatMessage(senderID, message string) (ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatMessage{}, invalid("chat", ErrEmptyMessage)
	}
	if len(message) > MaxChatMessageLength {
		message = strings.ToValidUTF8(message[:MaxChatMessageLength], "")
	}

	var msg ChatMessage
	switch {
	case m.Player(senderID) != nil:
		p := m.Player(senderID)
		msg = ChatMessage{PlayerID: p.ID, Name: p.Name, Color: p.Color}
	case m.Spectator(senderID) != nil:
		s := m.Spectator(senderID)
		msg = ChatMessage{PlayerID: s.ID, Name: s.Name, Color: s.Color}
	default:
		return ChatMessage{}, invalid("chat", ErrUnknownPlayer)
	}
	msg.Message = message
	msg.SentAt = time.Now().UTC()
	m.chat = append(m.chat, msg)
	return msg, nil
}

// ChatLog returns the chat messages oldest first.
func (m *Match) ChatLog() []ChatMessage {
	out := make([]ChatMessage, len(m.chat))
	copy(out, m.chat)
	return out
}
