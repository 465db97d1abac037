package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/metrics"
)

// ActiveGame is a game that has started and not yet ended.
type ActiveGame struct {
	GameID      string                   `json:"game_id"`
	Players     map[string]model.AgentID `json:"players"`
	CurrentTurn int                      `json:"current_turn"`
	LastAction  string                   `json:"last_action,omitempty"`
	Started     time.Time                `json:"started"`
}

// ActiveGames follows game events and keeps the set of games in flight.
type ActiveGames struct {
	mu    sync.RWMutex
	games map[string]*ActiveGame
}

func NewActiveGames() *ActiveGames {
	return &ActiveGames{games: make(map[string]*ActiveGame)}
}

// Handle implements worker.Handler.
func (t *ActiveGames) Handle(_ context.Context, e model.GameEvent) error { //nolint:gocritic // hugeParam: events travel by value
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case model.EventGameStart:
		g := &ActiveGame{GameID: e.GameID, Started: e.Timestamp}
		if players, ok := e.Data["players"].(map[string]model.AgentID); ok {
			g.Players = players
		}
		t.games[e.GameID] = g
	case model.EventAction:
		g, ok := t.games[e.GameID]
		if !ok {
			return nil
		}
		if turn, ok := e.Data["turn"].(int); ok {
			g.CurrentTurn = turn + 1
		}
		if action, ok := e.Data["action"].(string); ok {
			g.LastAction = action
		}
	case model.EventGameEnd:
		delete(t.games, e.GameID)
	}
	metrics.UpdateActiveGames(len(t.games))
	return nil
}

// List returns the games in flight, oldest first.
func (t *ActiveGames) List() []ActiveGame {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ActiveGame, 0, len(t.games))
	for _, g := range t.games {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}
