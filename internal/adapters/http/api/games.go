package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/types"
)

const defaultGamesLimit = 50

// GamesDependencies defines the game log reads the handler needs.
type GamesDependencies interface {
	RecentGames(ctx context.Context, limit int) ([]types.GameSummary, error)
	Game(ctx context.Context, id string) (*types.GameLog, error)
	ActiveGames(ctx context.Context) []service.ActiveGame
}

// GamesHandler serves archived and in-flight games.
type GamesHandler struct {
	deps GamesDependencies
}

func NewGamesHandler(deps GamesDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

type gamesResponse struct {
	Count int                 `json:"count"`
	Games []types.GameSummary `json:"games"`
}

// HandleList handles GET /api/games?limit=N.
func (h *GamesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultGamesLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidLimit)
			return
		}
		limit = n
	}
	games, err := h.deps.RecentGames(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if games == nil {
		games = []types.GameSummary{}
	}
	writeJSON(w, http.StatusOK, gamesResponse{Count: len(games), Games: games})
}

// HandleGet handles GET /api/games/{id}.
func (h *GamesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log, err := h.deps.Game(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	default:
		writeJSON(w, http.StatusOK, log)
	}
}

type activeResponse struct {
	Count int                  `json:"count"`
	Games []service.ActiveGame `json:"games"`
}

// HandleActive handles GET /api/active-games.
func (h *GamesHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	games := h.deps.ActiveGames(r.Context())
	writeJSON(w, http.StatusOK, activeResponse{Count: len(games), Games: games})
}
