package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/conquest/internal/repository"
	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/pkg/conquest"
)

const maxResultsLimit = 200

// GameHandler serves read-only views of live matches, the board and the
// results archive.
type GameHandler struct {
	svc     *service.MatchService
	board   *conquest.Board
	results repository.ResultRepository
	cache   repository.MatchCache
}

// NewGameHandler creates a GameHandler. results and cache may be nil when
// the archive or the snapshot cache is not configured.
func NewGameHandler(svc *service.MatchService, board *conquest.Board, results repository.ResultRepository, cache repository.MatchCache) *GameHandler {
	return &GameHandler{svc: svc, board: board, results: results, cache: cache}
}

// Board handles GET /api/v1/board
func (h *GameHandler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.GameList{Games: h.svc.Games()})
}

// GetGame handles GET /api/v1/games/{id}. Matches that have closed are
// served from their last cached snapshot while it lasts.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	sid := service.SessionID(r.PathValue("id"))
	if snap, ok := h.svc.Snapshot(sid); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	if h.cache != nil {
		data, err := h.cache.GetSnapshot(r.Context(), sid)
		if err != nil {
			writeInternal(w, r, err, "failed to load game")
			return
		}
		if data != nil {
			writeJSON(w, http.StatusOK, data)
			return
		}
	}
	writeError(w, http.StatusNotFound, "game not found")
}

// ListResults handles GET /api/v1/results?limit=
func (h *GameHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusServiceUnavailable, "results archive is not configured")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(n, maxResultsLimit)
	}

	results, err := h.results.ListResults(r.Context(), limit)
	if err != nil {
		writeInternal(w, r, err, "failed to list results")
		return
	}
	writeList(w, results)
}

// GetResult handles GET /api/v1/results/{id}
func (h *GameHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusServiceUnavailable, "results archive is not configured")
		return
	}
	res, err := h.results.FindResult(r.Context(), r.PathValue("id"))
	if err != nil {
		writeInternal(w, r, err, "failed to load result")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
