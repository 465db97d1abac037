// Package race is a small built-in game: players take turns adding 1..maxStep
// to a shared counter and whoever brings it exactly to the target wins.
package race

import (
	"errors"
	"fmt"

	"github.com/okian/arena/internal/domain/game"
)

const (
	DefaultTarget  = 21
	DefaultMaxStep = 3

	actionKind   = "add"
	recentWindow = 5
)

var ErrInvalidSeats = errors.New("race needs at least two distinct seats")

// Option configures the engine.
type Option func(*Engine)

func WithTarget(target int) Option {
	return func(e *Engine) {
		if target > 0 {
			e.target = target
		}
	}
}

func WithMaxStep(step int) Option {
	return func(e *Engine) {
		if step > 0 {
			e.maxStep = step
		}
	}
}

// Engine creates race games.
type Engine struct {
	target  int
	maxStep int
}

func New(opts ...Option) *Engine {
	e := &Engine{target: DefaultTarget, maxStep: DefaultMaxStep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "race" }

func (e *Engine) NewGame(seats []game.Seat) (game.Game, error) {
	if len(seats) < 2 {
		return nil, ErrInvalidSeats
	}
	added := make(map[game.Seat]int, len(seats))
	for _, s := range seats {
		if _, dup := added[s]; dup || s == "" {
			return nil, ErrInvalidSeats
		}
		added[s] = 0
	}
	return &raceGame{
		seats:   append([]game.Seat(nil), seats...),
		target:  e.target,
		maxStep: e.maxStep,
		added:   added,
	}, nil
}

type raceGame struct {
	seats   []game.Seat
	cur     int
	counter int
	target  int
	maxStep int
	turn    int
	added   map[game.Seat]int
	recent  []string
	winner  game.Seat
	done    bool
}

func (g *raceGame) Seats() []game.Seat { return append([]game.Seat(nil), g.seats...) }
func (g *raceGame) Current() game.Seat { return g.seats[g.cur] }
func (g *raceGame) Turn() int          { return g.turn }
func (g *raceGame) IsTerminal() bool   { return g.done }

func (g *raceGame) Winner() (game.Seat, bool) {
	return g.winner, g.done
}

func (g *raceGame) LegalActions() []game.Action {
	if g.done {
		return nil
	}
	top := min(g.maxStep, g.target-g.counter)
	out := make([]game.Action, 0, top)
	for k := 1; k <= top; k++ {
		out = append(out, game.Action{
			Kind:  actionKind,
			Value: k,
			Label: fmt.Sprintf("add %d (counter becomes %d)", k, g.counter+k),
		})
	}
	return out
}

func (g *raceGame) Apply(a game.Action) error {
	if g.done || a.Kind != actionKind || a.Value < 1 || a.Value > min(g.maxStep, g.target-g.counter) {
		return fmt.Errorf("%w: %s %d at counter %d", game.ErrIllegalAction, a.Kind, a.Value, g.counter)
	}
	seat := g.Current()
	g.counter += a.Value
	g.added[seat] += a.Value
	g.turn++
	g.recent = append(g.recent, fmt.Sprintf("%s added %d (counter %d)", seat, a.Value, g.counter))
	if len(g.recent) > recentWindow {
		g.recent = g.recent[len(g.recent)-recentWindow:]
	}
	if g.counter == g.target {
		g.winner, g.done = seat, true
		return nil
	}
	g.cur = (g.cur + 1) % len(g.seats)
	return nil
}

func (g *raceGame) Snapshot() game.Snapshot {
	players := make(map[game.Seat]game.PlayerStatus, len(g.seats))
	for _, s := range g.seats {
		vp := 0
		if g.done && s == g.winner {
			vp = 1
		}
		players[s] = game.PlayerStatus{
			VictoryPoints: vp,
			Resources:     map[string]int{"added": g.added[s]},
		}
	}
	return game.Snapshot{
		Turn:          g.turn,
		CurrentPlayer: g.Current(),
		Players:       players,
		Board: map[string]any{
			"counter":   g.counter,
			"target":    g.target,
			"max_step":  g.maxStep,
			"remaining": g.target - g.counter,
		},
		RecentActions: append([]string(nil), g.recent...),
	}
}
