// Package match plays a single game between two agents and reports the
// outcome to the rating engine.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/decision"
	"github.com/okian/arena/internal/domain/game"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

const (
	DefaultMaxTurns    = 200
	DefaultGameTimeout = 300 * time.Second

	maxFillers = 2

	// ReasonAutoMove marks turns with a single legal action.
	ReasonAutoMove = "AUTO MOVE"
)

// AgentResolver maps agent ids to agents.
type AgentResolver interface {
	Resolve(id model.AgentID) (agent.Agent, error)
}

// RatingUpdater receives game results.
type RatingUpdater interface {
	Update(ctx context.Context, winner, loser model.AgentID, draw bool) (float64, float64)
}

// Publisher accepts lifecycle events without blocking.
type Publisher interface {
	Enqueue(ctx context.Context, e model.GameEvent) bool
}

// Outcome is the result of one game.
type Outcome struct {
	GameID string
	Winner model.AgentID
	Loser  model.AgentID
	Draw   bool
	Turns  int
	Error  string
}

// Label classifies the outcome for metrics.
func (o Outcome) Label() string {
	switch {
	case o.Error != "":
		return "error"
	case o.Draw:
		return "draw"
	default:
		return "win"
	}
}

// Orchestrator runs games sequentially. A single instance may be shared, but
// each Play call owns its game exclusively.
type Orchestrator struct {
	engine    game.Engine
	agents    AgentResolver
	ratings   RatingUpdater
	resolver  *decision.Resolver
	logs      repository.GameLogStore
	publisher Publisher
	logger    logger.Logger

	maxTurns int
	timeout  time.Duration
	fillers  []model.AgentID
	newID    func() string
	now      func() time.Time
}

// New creates an orchestrator for engine.
func New(engine game.Engine, agents AgentResolver, ratings RatingUpdater, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:   engine,
		agents:   agents,
		ratings:  ratings,
		resolver: decision.NewResolver(),
		logger:   logger.Named("match"),
		maxTurns: DefaultMaxTurns,
		timeout:  DefaultGameTimeout,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// session is the per-game state.
type session struct {
	id      string
	g       game.Game
	seats   map[game.Seat]model.AgentID
	players map[game.Seat]agent.Agent
	log     *types.GameLog
}

// Play runs one game of a (RED) against b (BLUE). Game-level failures are
// reported in Outcome.Error; the returned error is non-nil only when ctx was
// cancelled, in which case no rating change is made.
func (o *Orchestrator) Play(ctx context.Context, a, b model.AgentID) (Outcome, error) {
	started := o.now()
	s := &session{
		id:    o.newID(),
		seats: map[game.Seat]model.AgentID{game.Red: a, game.Blue: b},
	}
	for i, f := range o.fillers {
		s.seats[game.SeatOrder[2+i]] = f
	}
	s.log = &types.GameLog{
		GameID:    s.id,
		Players:   make(map[string]model.AgentID, len(s.seats)),
		Actions:   []types.ActionRecord{},
		StartTime: started,
	}
	for seat, id := range s.seats {
		s.log.Players[string(seat)] = id
	}
	out := Outcome{GameID: s.id}

	o.logger.Info(ctx, "Game starting",
		logger.String("game_id", s.id),
		logger.String("red", a.String()),
		logger.String("blue", b.String()))

	err := recovered("setup", func() error {
		if err := o.setup(s, a, b); err != nil {
			return err
		}
		o.publish(ctx, s.id, model.EventGameStart, map[string]any{
			"players": s.log.Players,
			"board":   s.g.Snapshot().Board,
		})
		return nil
	})
	if err == nil {
		gameCtx, cancel := context.WithTimeout(ctx, o.timeout)
		err = recovered("turn loop", func() error { return o.loop(gameCtx, s) })
		cancel()
	}

	if s.g != nil {
		out.Turns = s.g.Turn()
	}
	if err == nil {
		err = recovered("settle", func() error {
			o.settle(ctx, s, a, b, &out)
			return nil
		})
	}
	var cancelled error
	switch {
	case err == nil:
	case ctx.Err() != nil:
		cancelled = fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		out.Error = cancelled.Error()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrGameTimeout):
		out.Error = ErrGameTimeout.Error()
		out.Draw = true
		o.logger.Warn(ctx, "Game timed out",
			logger.String("game_id", s.id),
			logger.Int("turns", out.Turns))
	default:
		out.Winner, out.Loser, out.Draw = "", "", false
		out.Error = err.Error()
		o.logger.Error(ctx, "Game failed",
			logger.String("game_id", s.id),
			logger.Error(err))
		kind := "engine"
		if errors.Is(err, ErrPanicked) {
			kind = "panic"
		}
		metrics.RecordErrorByComponent("match", kind)
	}

	o.finish(ctx, s, out, started)
	return out, cancelled
}

func (o *Orchestrator) setup(s *session, a, b model.AgentID) error {
	if a == b {
		return fmt.Errorf("%w: %s", ErrSameAgent, a)
	}
	s.players = make(map[game.Seat]agent.Agent, len(s.seats))
	for seat, id := range s.seats {
		ag, err := o.agents.Resolve(id)
		if err != nil {
			return fmt.Errorf("seat %s: %w", seat, err)
		}
		s.players[seat] = ag
	}
	seats := game.SeatOrder[:len(s.seats)]
	g, err := o.engine.NewGame(seats)
	if err != nil {
		return fmt.Errorf("new %s game: %w", o.engine.Name(), err)
	}
	s.g = g
	return nil
}

func (o *Orchestrator) loop(ctx context.Context, s *session) error {
	for !s.g.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.g.Turn() >= o.maxTurns {
			o.logger.Info(ctx, "Turn limit reached",
				logger.String("game_id", s.id),
				logger.Int("max_turns", o.maxTurns))
			return nil
		}
		if err := o.turn(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) turn(ctx context.Context, s *session) error {
	seat := s.g.Current()
	id := s.seats[seat]
	legal := s.g.LegalActions()
	if len(legal) == 0 {
		return fmt.Errorf("%w: seat %s turn %d", ErrNoLegalActions, seat, s.g.Turn())
	}

	rec := types.ActionRecord{
		Turn:   s.g.Turn(),
		Player: string(seat),
		Agent:  id,
	}
	if len(legal) == 1 {
		metrics.RecordForcedMove()
		rec.Reasoning = ReasonAutoMove
		rec.Forced = true
	} else {
		raw, err := o.ask(ctx, s.players[seat], BuildPrompt(s.g.Snapshot(), legal))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrPanicked) {
				return fmt.Errorf("agent %s: %w", id, err)
			}
			o.logger.Warn(ctx, "Agent request failed, resolving empty response",
				logger.String("game_id", s.id),
				logger.String("agent", id.String()),
				logger.Error(err))
			metrics.RecordErrorByComponent("match", "agent")
			raw = ""
		}
		d := o.resolver.ResolveFor(ctx, id, raw, len(legal))
		rec.ActionIndex = d.Index
		rec.Reasoning = d.Reasoning
		rec.Tier = d.Tier.String()
		rec.Defaulted = d.Defaulted
		rec.Trace = d.Trace
	}

	chosen := legal[rec.ActionIndex]
	if err := s.g.Apply(chosen); err != nil {
		return fmt.Errorf("apply %q: %w", chosen.String(), err)
	}
	rec.Action = chosen.String()
	rec.Timestamp = o.now()
	rec.GameState = s.g.Snapshot()
	s.log.Actions = append(s.log.Actions, rec)

	o.logger.Debug(ctx, "Action applied",
		logger.String("game_id", s.id),
		logger.Int("turn", rec.Turn),
		logger.String("player", rec.Player),
		logger.String("action", rec.Action))
	o.publish(ctx, s.id, model.EventAction, map[string]any{
		"turn":      rec.Turn,
		"player":    rec.Player,
		"agent":     rec.Agent,
		"action":    rec.Action,
		"reasoning": rec.Reasoning,
	})
	return nil
}

type reply struct {
	text string
	err  error
}

// ask calls the agent and gives up when ctx ends, even if the agent does not.
func (o *Orchestrator) ask(ctx context.Context, a agent.Agent, p agent.Prompt) (string, error) {
	ch := make(chan reply, 1)
	go func() {
		r := reply{}
		r.err = recovered("agent", func() error {
			var err error
			r.text, err = a.Respond(ctx, p)
			return err
		})
		ch <- r
	}()
	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// recovered runs fn and turns a panic into an ErrPanicked error.
func recovered(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w in %s: %v", ErrPanicked, stage, r)
		}
	}()
	return fn()
}

// settle maps the terminal state to an outcome and applies the rating change.
func (o *Orchestrator) settle(ctx context.Context, s *session, a, b model.AgentID, out *Outcome) {
	seat, ok := s.g.Winner()
	if !ok || !s.g.IsTerminal() {
		out.Draw = true
		o.ratings.Update(ctx, a, b, true)
		return
	}
	s.log.Winner = string(seat)
	switch seat {
	case game.Red:
		out.Winner, out.Loser = a, b
	case game.Blue:
		out.Winner, out.Loser = b, a
	default:
		// A filler won; neither primary gains or loses rating.
		out.Draw = true
		s.log.WinnerModel = s.seats[seat]
		return
	}
	s.log.WinnerModel = out.Winner
	o.ratings.Update(ctx, out.Winner, out.Loser, false)
}

func (o *Orchestrator) finish(ctx context.Context, s *session, out Outcome, started time.Time) {
	ctx = context.WithoutCancel(ctx)
	s.log.EndTime = o.now()
	s.log.Draw = out.Draw
	s.log.TotalTurns = out.Turns
	s.log.Error = out.Error

	if o.logs != nil {
		if err := o.logs.Save(ctx, s.log); err != nil {
			o.logger.Error(ctx, "Failed to save game log",
				logger.String("game_id", s.id),
				logger.Error(err))
		}
	}
	o.publish(ctx, s.id, model.EventGameEnd, map[string]any{
		"winner": out.Winner,
		"loser":  out.Loser,
		"draw":   out.Draw,
		"turns":  out.Turns,
		"error":  out.Error,
	})

	elapsed := s.log.EndTime.Sub(started)
	metrics.RecordGame(out.Label(), out.Turns, elapsed)
	o.logger.Info(ctx, "Game finished",
		logger.String("game_id", s.id),
		logger.String("winner", out.Winner.String()),
		logger.Bool("draw", out.Draw),
		logger.Int("turns", out.Turns),
		logger.Duration("elapsed", elapsed),
		logger.String("error", out.Error))
}

func (o *Orchestrator) publish(ctx context.Context, gameID string, typ model.EventType, data map[string]any) {
	if o.publisher == nil {
		return
	}
	o.publisher.Enqueue(context.WithoutCancel(ctx), model.GameEvent{
		GameID:    gameID,
		Type:      typ,
		Data:      data,
		Timestamp: o.now(),
	})
}
