// Package agent defines the decision makers that occupy seats in a game.
package agent

import (
	"context"
	"errors"
)

// Prompt is what an agent sees on its turn.
type Prompt struct {
	System string
	User   string
	// Options are the legal action labels, index-aligned with the game's
	// legal actions.
	Options []string
}

// Agent answers a prompt with free text that should name an action index.
type Agent interface {
	Respond(ctx context.Context, p Prompt) (string, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, p Prompt) (string, error)

func (f AgentFunc) Respond(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

var (
	ErrNoModelFactory = errors.New("no model-backed agent factory configured")
	ErrUnknownAgent   = errors.New("unknown agent")
)
