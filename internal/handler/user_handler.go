package handler

import (
	"net/http"

	"github.com/freeeve/conquest/internal/auth"
)

// GetMe handles GET /api/v1/me and returns the caller's token identity.
func GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": id.UserID,
		"name":    id.Name,
		"guest":   id.Guest,
	})
}
