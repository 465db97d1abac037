package types

import (
	"time"

	"github.com/okian/arena/internal/domain/model"
)

// GameLog is the archived record of one played game.
type GameLog struct {
	GameID string `json:"game_id"`
	// Players maps seat to agent; filler seats are included.
	Players     map[string]model.AgentID `json:"players"`
	Actions     []ActionRecord           `json:"actions"`
	StartTime   time.Time                `json:"start_time"`
	EndTime     time.Time                `json:"end_time"`
	Winner      string                   `json:"winner,omitempty"`
	WinnerModel model.AgentID            `json:"winner_model,omitempty"`
	Draw        bool                     `json:"draw"`
	TotalTurns  int                      `json:"total_turns"`
	Error       string                   `json:"error,omitempty"`
}

// ActionRecord is one applied action.
type ActionRecord struct {
	Turn        int           `json:"turn"`
	Player      string        `json:"player"`
	Agent       model.AgentID `json:"agent"`
	Action      string        `json:"action"`
	ActionIndex int           `json:"action_index"`
	Reasoning   string        `json:"reasoning"`
	Forced      bool          `json:"forced,omitempty"`
	Tier        string        `json:"tier,omitempty"`
	Defaulted   bool          `json:"defaulted,omitempty"`
	Trace       []string      `json:"trace,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	GameState   any           `json:"game_state,omitempty"`
}

// Summary is the listing view of a game log.
func (g *GameLog) Summary() GameSummary {
	return GameSummary{
		GameID:     g.GameID,
		Players:    g.Players,
		Winner:     g.WinnerModel,
		Draw:       g.Draw,
		TotalTurns: g.TotalTurns,
		StartTime:  g.StartTime,
		EndTime:    g.EndTime,
		Error:      g.Error,
	}
}

// GameSummary is one row of the recent games listing.
type GameSummary struct {
	GameID     string                   `json:"game_id"`
	Players    map[string]model.AgentID `json:"players"`
	Winner     model.AgentID            `json:"winner,omitempty"`
	Draw       bool                     `json:"draw"`
	TotalTurns int                      `json:"total_turns"`
	StartTime  time.Time                `json:"start_time"`
	EndTime    time.Time                `json:"end_time"`
	Error      string                   `json:"error,omitempty"`
}
