// Package api serves the read-only tournament status API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/rating"
	"github.com/okian/arena/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Leaderboard(ctx context.Context) []types.Entry
	Statistics(ctx context.Context) rating.Statistics
	Predict(ctx context.Context, a, b model.AgentID) rating.Prediction

	Progress(ctx context.Context) (service.ProgressView, error)

	RecentGames(ctx context.Context, limit int) ([]types.GameSummary, error)
	Game(ctx context.Context, id string) (*types.GameLog, error)
	ActiveGames(ctx context.Context) []service.ActiveGame
}

// Server wires HTTP routes for the status API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	progressHandler    *ProgressHandler
	gamesHandler       *GamesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		progressHandler:    NewProgressHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware)

		r.Get("/healthz", s.healthHandler.HandleHealth)
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/api", func(r chi.Router) {
			r.Get("/leaderboard", s.leaderboardHandler.HandleLeaderboard)
			r.Get("/statistics", s.leaderboardHandler.HandleStatistics)
			r.Get("/predict", s.leaderboardHandler.HandlePredict)
			r.Get("/progress", s.progressHandler.HandleProgress)
			r.Get("/games", s.gamesHandler.HandleList)
			r.Get("/games/{id}", s.gamesHandler.HandleGet)
			r.Get("/active-games", s.gamesHandler.HandleActive)
		})
	})
}

// Routes returns a router with every route registered.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
