// Package rating maintains Elo ratings for tournament agents together with an
// append-only history of every update.
package rating

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/jsonfile"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

const (
	DefaultInitialRating = 1500.0
	DefaultKFactor       = 32.0
)

// Standing is one leaderboard row.
type Standing = types.Entry

// HistorySink receives history entries after they are applied locally.
type HistorySink interface {
	RecordHistory(ctx context.Context, e types.HistoryEntry) error
}

// historyTruncater is implemented by sinks that can follow a reset.
type historyTruncater interface {
	TruncateHistory(ctx context.Context) error
}

// Prediction holds the expected scores of a hypothetical game.
type Prediction struct {
	AgentA       model.AgentID `json:"agent_a"`
	AgentB       model.AgentID `json:"agent_b"`
	ProbabilityA float64       `json:"probability_a"`
	ProbabilityB float64       `json:"probability_b"`
	RatingGap    float64       `json:"rating_difference"`
}

// Engine owns the rating table and history. All methods are safe for
// concurrent use; updates are serialised.
type Engine struct {
	mu        sync.Mutex
	path      string
	initial   float64
	k         float64
	standings *repository.Standings
	history   []types.HistoryEntry
	sink      HistorySink
	logger    logger.Logger
	now       func() time.Time
}

// New creates an engine and loads the ratings file if one is configured.
// A missing file starts empty; a corrupt file is logged and also starts empty.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{
		initial:   DefaultInitialRating,
		k:         DefaultKFactor,
		standings: repository.NewStandings(),
		logger:    logger.Named("rating"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(ctx)
	return e
}

// Expected returns the expected score of a player rated ra against rb.
func Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

func (e *Engine) load(ctx context.Context) {
	if e.path == "" {
		return
	}
	var doc document
	found, err := jsonfile.Read(e.path, &doc)
	if err != nil {
		metrics.RecordPersistenceError("ratings")
		e.logger.Error(ctx, "Failed to load ratings, starting fresh",
			logger.String("path", e.path), logger.Error(err))
		return
	}
	if !found {
		e.logger.Info(ctx, "No existing ratings found, starting fresh", logger.String("path", e.path))
		return
	}
	for _, p := range doc.Ratings {
		e.standings.Set(p.Agent, p.Rating)
		metrics.UpdateAgentRating(p.Agent.String(), p.Rating)
	}
	e.history = doc.History
	e.logger.Info(ctx, "Loaded ratings",
		logger.Int("agents", len(doc.Ratings)),
		logger.Int("history", len(doc.History)))
}

// ratingLocked returns the agent's rating, registering it at the initial value.
func (e *Engine) ratingLocked(agent model.AgentID) float64 {
	if r, ok := e.standings.Rating(agent); ok {
		return r
	}
	e.standings.Set(agent, e.initial)
	metrics.UpdateAgentRating(agent.String(), e.initial)
	return e.initial
}

// peekLocked is ratingLocked without registering the agent.
func (e *Engine) peekLocked(agent model.AgentID) float64 {
	if r, ok := e.standings.Rating(agent); ok {
		return r
	}
	return e.initial
}

// Rating returns the agent's current rating, registering unseen agents.
func (e *Engine) Rating(_ context.Context, agent model.AgentID) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ratingLocked(agent)
}

// Update applies one game result and persists the new state. For a draw the
// order of winner and loser only affects how the history entry is labelled.
// winner == loser is ignored and returns the unchanged rating twice.
func (e *Engine) Update(ctx context.Context, winner, loser model.AgentID, draw bool) (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if winner == loser {
		r := e.ratingLocked(winner)
		e.logger.Warn(ctx, "Ignoring rating update against self", logger.String("agent", winner.String()))
		return r, r
	}

	rw := e.ratingLocked(winner)
	rl := e.ratingLocked(loser)
	ew, el := Expected(rw, rl), Expected(rl, rw)

	sw, sl := 1.0, 0.0
	if draw {
		sw, sl = 0.5, 0.5
	}
	nw := rw + e.k*(sw-ew)
	nl := rl + e.k*(sl-el)

	e.standings.Set(winner, nw)
	e.standings.Set(loser, nl)
	entry := types.HistoryEntry{
		Timestamp:          e.now().UTC(),
		Winner:             winner,
		Loser:              loser,
		Draw:               draw,
		WinnerRatingBefore: rw,
		LoserRatingBefore:  rl,
		WinnerRatingAfter:  nw,
		LoserRatingAfter:   nl,
	}
	e.history = append(e.history, entry)

	metrics.RecordRatingUpdate()
	metrics.UpdateAgentRating(winner.String(), nw)
	metrics.UpdateAgentRating(loser.String(), nl)
	e.logger.Info(ctx, "Updated ratings",
		logger.String("winner", winner.String()),
		logger.Float64("winner_before", rw),
		logger.Float64("winner_after", nw),
		logger.String("loser", loser.String()),
		logger.Float64("loser_before", rl),
		logger.Float64("loser_after", nl),
		logger.Bool("draw", draw))

	e.saveLocked(ctx)
	if e.sink != nil {
		if err := e.sink.RecordHistory(ctx, entry); err != nil {
			metrics.RecordPersistenceError("ratings_mirror")
			e.logger.Warn(ctx, "Failed to mirror rating history", logger.Error(err))
		}
	}
	return nw, nl
}

// Leaderboard returns every known agent, highest rating first. Equal ratings
// keep the order in which agents were first seen.
func (e *Engine) Leaderboard(_ context.Context) []Standing {
	return e.standings.Top(0)
}

// Predict returns win expectations for a game between a and b.
func (e *Engine) Predict(_ context.Context, a, b model.AgentID) Prediction {
	e.mu.Lock()
	defer e.mu.Unlock()
	ra, rb := e.peekLocked(a), e.peekLocked(b)
	return Prediction{
		AgentA:       a,
		AgentB:       b,
		ProbabilityA: Expected(ra, rb),
		ProbabilityB: Expected(rb, ra),
		RatingGap:    math.Abs(ra - rb),
	}
}

// Reset forgets every rating and the history and persists the empty state.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Warn(ctx, "Resetting all ratings")
	e.standings.Clear()
	e.history = nil
	metrics.ResetAgentRatings()
	e.saveLocked(ctx)

	if t, ok := e.sink.(historyTruncater); ok {
		if err := t.TruncateHistory(ctx); err != nil {
			metrics.RecordPersistenceError("ratings_mirror")
			e.logger.Warn(ctx, "Failed to reset mirrored history", logger.Error(err))
		}
	}
}

// History returns a copy of the update history, oldest first.
func (e *Engine) History(_ context.Context) []types.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Engine) saveLocked(ctx context.Context) {
	if e.path == "" {
		return
	}
	agents := e.standings.Agents()
	doc := document{
		Ratings:     make(orderedRatings, 0, len(agents)),
		History:     e.history,
		LastUpdated: e.now().UTC(),
	}
	if doc.History == nil {
		doc.History = []types.HistoryEntry{}
	}
	for _, id := range agents {
		r, _ := e.standings.Rating(id)
		doc.Ratings = append(doc.Ratings, ratingPair{Agent: id, Rating: r})
	}
	if err := jsonfile.Write(e.path, doc); err != nil {
		metrics.RecordPersistenceError("ratings")
		e.logger.Error(ctx, "Failed to save ratings", logger.String("path", e.path), logger.Error(err))
	}
}
