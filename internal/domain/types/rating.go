package types

import (
	"time"

	"github.com/okian/arena/internal/domain/model"
)

// HistoryEntry records one rating update. For a draw, Winner and Loser are the
// two participants in the order they were passed in.
type HistoryEntry struct {
	Timestamp          time.Time     `json:"timestamp"`
	Winner             model.AgentID `json:"winner"`
	Loser              model.AgentID `json:"loser"`
	Draw               bool          `json:"draw"`
	WinnerRatingBefore float64       `json:"winner_rating_before"`
	LoserRatingBefore  float64       `json:"loser_rating_before"`
	WinnerRatingAfter  float64       `json:"winner_rating_after"`
	LoserRatingAfter   float64       `json:"loser_rating_after"`
}

// MatchupResult is the outcome of one scheduled unit.
type MatchupResult struct {
	MatchupID  string        `json:"matchup_id"`
	Model1     model.AgentID `json:"model1"`
	Model2     model.AgentID `json:"model2"`
	GameNum    int           `json:"game_num"`
	Winner     model.AgentID `json:"winner,omitempty"`
	Loser      model.AgentID `json:"loser,omitempty"`
	Draw       bool          `json:"draw"`
	TotalTurns int           `json:"total_turns"`
	GameID     string        `json:"game_id,omitempty"`
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
