package match

import "errors"

var (
	// ErrNoLegalActions is reported when a non-terminal game offers no moves.
	ErrNoLegalActions = errors.New("no legal actions available")
	// ErrGameTimeout is reported when a game exceeds its wall-clock budget.
	ErrGameTimeout = errors.New("game timeout")
	// ErrCancelled is returned by Play when the caller's context ends mid-game.
	ErrCancelled = errors.New("game cancelled")
	// ErrSameAgent rejects a game of an agent against itself.
	ErrSameAgent = errors.New("agent cannot play itself")
	// ErrPanicked wraps a panic raised by an engine or an agent.
	ErrPanicked = errors.New("game panicked")
)
