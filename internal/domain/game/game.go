// Package game defines the contract between the orchestrator and a turn-based
// game engine. Engines own all rules; the orchestrator only picks among the
// legal actions they expose.
package game

import "errors"

// Seat is a player colour in the game.
type Seat string

const (
	Red    Seat = "RED"
	Blue   Seat = "BLUE"
	White  Seat = "WHITE"
	Orange Seat = "ORANGE"
)

// SeatOrder lists seats in the order they are assigned.
var SeatOrder = []Seat{Red, Blue, White, Orange}

// ErrIllegalAction is returned by Apply for an action not in LegalActions.
var ErrIllegalAction = errors.New("illegal action")

// Action is a structured move. Engines compare actions by Kind and Value, never
// by Label.
type Action struct {
	Kind  string `json:"kind"`
	Value int    `json:"value"`
	// Label is the human readable form shown in prompts and logs.
	Label string `json:"label"`
}

func (a Action) String() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Kind
}

// PlayerStatus is one seat's public state.
type PlayerStatus struct {
	VictoryPoints int            `json:"victory_points"`
	Resources     map[string]int `json:"resources,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Snapshot is a read-only view of the game used to build prompts and logs.
type Snapshot struct {
	Turn          int                   `json:"turn"`
	CurrentPlayer Seat                  `json:"current_player"`
	Players       map[Seat]PlayerStatus `json:"players"`
	Board         map[string]any        `json:"board,omitempty"`
	RecentActions []string              `json:"recent_actions,omitempty"`
}

// Game is a running game instance. It is not safe for concurrent use.
type Game interface {
	Seats() []Seat
	Current() Seat
	// Turn counts applied actions.
	Turn() int
	LegalActions() []Action
	Apply(a Action) error
	IsTerminal() bool
	// Winner reports the winning seat once the game is terminal.
	Winner() (Seat, bool)
	Snapshot() Snapshot
}

// Engine creates games.
type Engine interface {
	Name() string
	NewGame(seats []Seat) (Game, error)
}
