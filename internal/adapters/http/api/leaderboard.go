package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/rating"
	"github.com/okian/arena/internal/domain/types"
)

// RatingDependencies defines the rating reads the handler needs.
type RatingDependencies interface {
	Leaderboard(ctx context.Context) []types.Entry
	Statistics(ctx context.Context) rating.Statistics
	Predict(ctx context.Context, a, b model.AgentID) rating.Prediction
}

// LeaderboardHandler serves standings, statistics and predictions.
type LeaderboardHandler struct {
	deps RatingDependencies
}

func NewLeaderboardHandler(deps RatingDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

type leaderboardResponse struct {
	Agents  int           `json:"agents"`
	Entries []types.Entry `json:"entries"`
}

// HandleLeaderboard handles GET /api/leaderboard.
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Leaderboard(r.Context())
	if entries == nil {
		entries = []types.Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Agents: len(entries), Entries: entries})
}

// HandleStatistics handles GET /api/statistics.
func (h *LeaderboardHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Statistics(r.Context()))
}

// HandlePredict handles GET /api/predict?a=..&b=..
func (h *LeaderboardHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a := model.AgentID(strings.TrimSpace(q.Get("a")))
	b := model.AgentID(strings.TrimSpace(q.Get("b")))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingAgent)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Predict(r.Context(), a, b))
}
