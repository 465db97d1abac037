// Package schedule enumerates the round-robin matchup units of a tournament and
// tracks which have completed, persisting progress so a run can resume.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/arena/internal/domain/dedupe"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/jsonfile"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// Unit is one scheduled game. AgentA moves first.
type Unit struct {
	AgentA     model.AgentID `json:"agent_a"`
	AgentB     model.AgentID `json:"agent_b"`
	GameNumber int           `json:"game_num"`
	MatchupID  string        `json:"matchup_id"`
}

// MatchupID formats the stable identifier of a unit.
func MatchupID(a, b model.AgentID, game int) string {
	return fmt.Sprintf("%s%s%s_game%d", a, model.MatchupSeparator, b, game)
}

func newUnit(a, b model.AgentID, game int) Unit {
	return Unit{AgentA: a, AgentB: b, GameNumber: game, MatchupID: MatchupID(a, b, game)}
}

// Progress is the persisted progress document.
type Progress struct {
	Agents          []model.AgentID       `json:"agents"`
	GamesPerMatchup int                   `json:"games_per_matchup"`
	Pairing         string                `json:"pairing,omitempty"`
	Completed       []types.MatchupResult `json:"completed"`
	TotalCompleted  int                   `json:"total_games_completed"`
	LastUpdated     time.Time             `json:"last_updated"`
}

// Status is a compact progress view.
type Status struct {
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	Pending            int     `json:"pending"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	agents  []model.AgentID
	gpm     int
	pairing Pairing
	path    string
	sink    ResultSink
	logger  logger.Logger
	now     func() time.Time

	units   []Unit
	inPlan  map[string]struct{}
	done    dedupe.Deduper
	results []types.MatchupResult
	// completedInPlan counts completed ids that belong to the current schedule.
	completedInPlan int
}

// New validates the roster, generates the schedule and loads saved progress.
func New(ctx context.Context, agents []model.AgentID, gamesPerMatchup int, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		gpm:    gamesPerMatchup,
		logger: logger.Named("schedule"),
		now:    time.Now,
		done:   dedupe.NewInMemoryDeduper(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pairing != PairingOrdered && s.pairing != PairingAlternating {
		return nil, ErrUnknownPairingMode
	}
	if gamesPerMatchup < 1 {
		return nil, ErrInvalidGameCount
	}

	seen := make(map[model.AgentID]struct{}, len(agents))
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[a]; dup {
			s.logger.Warn(ctx, "Ignoring duplicate agent in roster", logger.String("agent", a.String()))
			continue
		}
		seen[a] = struct{}{}
		s.agents = append(s.agents, a)
	}
	if len(s.agents) < 2 {
		return nil, ErrTooFewAgents
	}

	s.units = generate(s.agents, s.gpm, s.pairing)
	inPlan, err := indexUnits(s.units)
	if err != nil {
		return nil, err
	}
	s.inPlan = inPlan
	s.load(ctx)
	s.reportProgress()
	return s, nil
}

// indexUnits maps matchup ids to the plan; a repeated id is an error.
func indexUnits(units []Unit) (map[string]struct{}, error) {
	idx := make(map[string]struct{}, len(units))
	for _, u := range units {
		if _, dup := idx[u.MatchupID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMatchup, u.MatchupID)
		}
		idx[u.MatchupID] = struct{}{}
	}
	return idx, nil
}

func generate(agents []model.AgentID, gpm int, pairing Pairing) []Unit {
	var units []Unit
	switch pairing {
	case PairingAlternating:
		for i := 0; i < len(agents); i++ {
			for j := i + 1; j < len(agents); j++ {
				for g := 0; g < gpm; g++ {
					a, b := agents[i], agents[j]
					if g%2 == 1 {
						a, b = b, a
					}
					units = append(units, newUnit(a, b, g))
				}
			}
		}
	default:
		for i, a := range agents {
			for j, b := range agents {
				if i == j {
					continue
				}
				for g := 0; g < gpm; g++ {
					units = append(units, newUnit(a, b, g))
				}
			}
		}
	}
	return units
}

func (s *Scheduler) load(ctx context.Context) {
	if s.path == "" {
		return
	}
	var p Progress
	found, err := jsonfile.Read(s.path, &p)
	if err != nil {
		metrics.RecordPersistenceError("progress")
		s.logger.Error(ctx, "Failed to load progress, starting fresh",
			logger.String("path", s.path), logger.Error(err))
		return
	}
	if !found {
		s.logger.Info(ctx, "Starting fresh tournament", logger.String("path", s.path))
		return
	}

	for _, r := range p.Completed {
		if r.MatchupID == "" || s.done.SeenAndRecord(ctx, r.MatchupID) {
			continue
		}
		s.results = append(s.results, r)
		if _, ok := s.inPlan[r.MatchupID]; ok {
			s.completedInPlan++
		}
	}
	s.logger.Info(ctx, "Loaded progress",
		logger.Int("completed", len(s.results)),
		logger.Int("in_schedule", s.completedInPlan),
		logger.Int("total", len(s.units)))
	if len(s.results) != s.completedInPlan {
		s.logger.Info(ctx, "Keeping completions from a previous roster",
			logger.Int("foreign", len(s.results)-s.completedInPlan))
	}
}

// Pending returns the units not yet completed, in schedule order.
func (s *Scheduler) Pending(ctx context.Context) []Unit {
	return s.Next(ctx, 0)
}

// Next returns up to n pending units; n <= 0 returns all of them.
func (s *Scheduler) Next(ctx context.Context, n int) []Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Unit
	for _, u := range s.units {
		if n > 0 && len(out) >= n {
			break
		}
		if !s.done.Seen(ctx, u.MatchupID) {
			out = append(out, u)
		}
	}
	return out
}

// RecordCompletion marks unit as played and persists progress. Recording the
// same unit twice returns ErrAlreadyCompleted and changes nothing.
func (s *Scheduler) RecordCompletion(ctx context.Context, unit Unit, result types.MatchupResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inPlan[unit.MatchupID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUnit, unit.MatchupID)
	}
	if s.done.SeenAndRecord(ctx, unit.MatchupID) {
		return fmt.Errorf("%w: %s", ErrAlreadyCompleted, unit.MatchupID)
	}

	result.MatchupID = unit.MatchupID
	result.Model1, result.Model2 = unit.AgentA, unit.AgentB
	result.GameNum = unit.GameNumber
	if result.Timestamp.IsZero() {
		result.Timestamp = s.now().UTC()
	}
	s.results = append(s.results, result)
	s.completedInPlan++

	s.saveLocked(ctx)
	s.reportProgress()
	if s.sink != nil {
		if err := s.sink.RecordMatchup(ctx, result); err != nil {
			metrics.RecordPersistenceError("progress_mirror")
			s.logger.Warn(ctx, "Failed to mirror matchup result",
				logger.String("matchup_id", unit.MatchupID), logger.Error(err))
		}
	}
	return nil
}

// IsExhausted reports whether every unit has completed.
func (s *Scheduler) IsExhausted(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedInPlan >= len(s.units)
}

func (s *Scheduler) Total() int {
	return len(s.units)
}

// CompletedCount counts completed units of the current schedule.
func (s *Scheduler) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedInPlan
}

// Snapshot returns the progress document as it would be persisted.
func (s *Scheduler) Snapshot(_ context.Context) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns counts for dashboards.
func (s *Scheduler) Status(_ context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Total:     len(s.units),
		Completed: s.completedInPlan,
		Pending:   len(s.units) - s.completedInPlan,
	}
	if st.Total > 0 {
		st.ProgressPercentage = float64(st.Completed) / float64(st.Total) * 100
	}
	return st
}

func (s *Scheduler) snapshotLocked() Progress {
	completed := make([]types.MatchupResult, len(s.results))
	copy(completed, s.results)
	agents := make([]model.AgentID, len(s.agents))
	copy(agents, s.agents)
	return Progress{
		Agents:          agents,
		GamesPerMatchup: s.gpm,
		Pairing:         s.pairing.String(),
		Completed:       completed,
		TotalCompleted:  len(completed),
		LastUpdated:     s.now().UTC(),
	}
}

func (s *Scheduler) saveLocked(ctx context.Context) {
	if s.path == "" {
		return
	}
	if err := jsonfile.Write(s.path, s.snapshotLocked()); err != nil {
		metrics.RecordPersistenceError("progress")
		s.logger.Error(ctx, "Failed to save progress", logger.String("path", s.path), logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "Progress saved", logger.Int("completed", len(s.results)))
}

func (s *Scheduler) reportProgress() {
	metrics.UpdateSchedulerProgress(len(s.units)-s.completedInPlan, s.completedInPlan)
}
