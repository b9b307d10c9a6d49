package handler

import (
	"net/http"

	"github.com/freeeve/conquest/internal/repository"
	"github.com/freeeve/conquest/internal/service"
)

// MessageHandler serves the archived chat of a game.
type MessageHandler struct {
	messageRepo repository.MessageRepository
}

// NewMessageHandler creates a MessageHandler. messageRepo may be nil.
func NewMessageHandler(messageRepo repository.MessageRepository) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo}
}

// ListMessages handles GET /api/v1/games/{id}/chat
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if h.messageRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "chat archive is not configured")
		return
	}
	sid := service.SessionID(r.PathValue("id"))
	messages, err := h.messageRepo.ListBySession(r.Context(), sid)
	if err != nil {
		writeInternal(w, r, err, "failed to list chat")
		return
	}
	writeList(w, messages)
}
