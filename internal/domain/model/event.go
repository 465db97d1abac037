package model

import "time"

// EventType names a game lifecycle event.
type EventType string

const (
	EventGameStart EventType = "game_start"
	EventAction    EventType = "action"
	EventGameEnd   EventType = "game_end"
)

// GameEvent is published by the orchestrator while a game runs.
type GameEvent struct {
	GameID    string         `json:"game_id"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
