package rating

import (
	"context"

	"github.com/okian/arena/internal/domain/model"
)

// AgentStats aggregates one agent's record from the history.
type AgentStats struct {
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
	Rating      float64 `json:"rating"`
}

// Statistics summarises the whole tournament.
type Statistics struct {
	TotalGames    int                           `json:"total_games"`
	TotalDraws    int                           `json:"total_draws"`
	Agents        int                           `json:"agents"`
	AverageRating float64                       `json:"average_rating"`
	AgentStats    map[model.AgentID]*AgentStats `json:"agent_stats"`
	Leaderboard   []Standing                    `json:"leaderboard"`
}

// Statistics derives per-agent records from the history.
func (e *Engine) Statistics(_ context.Context) Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	board := e.standings.Top(0)
	st := Statistics{
		TotalGames:    len(e.history),
		Agents:        len(board),
		AverageRating: e.initial,
		AgentStats:    make(map[model.AgentID]*AgentStats, len(board)),
		Leaderboard:   board,
	}
	if len(board) > 0 {
		var sum float64
		for _, row := range board {
			sum += row.Rating
		}
		st.AverageRating = sum / float64(len(board))
	}

	get := func(id model.AgentID) *AgentStats {
		s, ok := st.AgentStats[id]
		if !ok {
			s = &AgentStats{}
			st.AgentStats[id] = s
		}
		return s
	}
	for _, h := range e.history {
		w, l := get(h.Winner), get(h.Loser)
		if h.Draw {
			st.TotalDraws++
			w.Draws++
			l.Draws++
			continue
		}
		w.Wins++
		l.Losses++
	}
	for _, row := range board {
		get(row.Agent).Rating = row.Rating
	}
	for _, s := range st.AgentStats {
		s.GamesPlayed = s.Wins + s.Losses + s.Draws
		if s.GamesPlayed > 0 {
			s.WinRate = float64(s.Wins) / float64(s.GamesPlayed)
		}
	}
	return st
}
