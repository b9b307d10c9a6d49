package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/auth"
)

const stateCookie = "oauth_state"

// AuthHandler issues guest tokens, handles Google sign-in and token refresh.
type AuthHandler struct {
	google *auth.OAuthProvider
	jwtMgr *auth.JWTManager
}

// NewAuthHandler creates an AuthHandler. google may be nil when sign-in
// with Google is not configured.
func NewAuthHandler(google *auth.OAuthProvider, jwtMgr *auth.JWTManager) *AuthHandler {
	return &AuthHandler{google: google, jwtMgr: jwtMgr}
}

// Guest handles POST /auth/guest?name= and returns a token pair for a
// display name.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.jwtMgr.IssueGuest(r.URL.Query().Get("name"))
	if errors.Is(err, auth.ErrInvalidName) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	log.Info().Str("userId", tokens.UserID).Str("name", tokens.Name).Msg("Guest signed in")
	writeJSON(w, http.StatusOK, tokens)
}

// GoogleLogin redirects to Google's OAuth2 consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth2 callback from Google.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	info, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google exchange failed")
		writeError(w, http.StatusUnauthorized, "oauth exchange failed")
		return
	}

	tokens, err := h.jwtMgr.Issue(info.Identity())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	log.Info().Str("userId", tokens.UserID).Msg("Google user signed in")
	writeJSON(w, http.StatusOK, tokens)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.jwtMgr.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func randomState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
