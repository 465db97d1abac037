package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/arena/internal/domain/match"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/schedule"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
)

const (
	DefaultChunkSize = 5
	DefaultGamePause = 2 * time.Second
)

// Schedule is the part of the scheduler the runner drives.
type Schedule interface {
	Next(ctx context.Context, n int) []schedule.Unit
	RecordCompletion(ctx context.Context, unit schedule.Unit, result types.MatchupResult) error
	IsExhausted(ctx context.Context) bool
	Status(ctx context.Context) schedule.Status
}

// Player plays one game.
type Player interface {
	Play(ctx context.Context, a, b model.AgentID) (match.Outcome, error)
}

// ChunkReport summarises one RunChunk call.
type ChunkReport struct {
	Played    int                   `json:"played"`
	Failed    int                   `json:"failed"`
	Remaining int                   `json:"remaining"`
	Results   []types.MatchupResult `json:"results"`
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithGamePause sets the pause between consecutive games.
func WithGamePause(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d >= 0 {
			r.pause = d
		}
	}
}

// WithRunnerChunkSize sets how many games Run plays per chunk.
func WithRunnerChunkSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner plays scheduled units one after another.
type Runner struct {
	schedule  Schedule
	player    Player
	pause     time.Duration
	chunkSize int
	logger    logger.Logger
}

func NewRunner(s Schedule, p Player, opts ...RunnerOption) *Runner {
	r := &Runner{
		schedule:  s,
		player:    p,
		pause:     DefaultGamePause,
		chunkSize: DefaultChunkSize,
		logger:    logger.Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunChunk plays up to n pending units (n <= 0 plays all). A failed game is
// recorded and the chunk continues; a game interrupted by ctx is not recorded
// and ctx's error is returned.
func (r *Runner) RunChunk(ctx context.Context, n int) (ChunkReport, error) {
	var report ChunkReport
	units := r.schedule.Next(ctx, n)

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return r.finishReport(ctx, report), err
		}
		r.logger.Info(ctx, "Starting game",
			logger.String("matchup_id", u.MatchupID),
			logger.Int("position", i+1),
			logger.Int("chunk", len(units)))

		out, err := r.player.Play(ctx, u.AgentA, u.AgentB)
		if err != nil {
			r.logger.Warn(ctx, "Game interrupted, unit stays pending",
				logger.String("matchup_id", u.MatchupID), logger.Error(err))
			return r.finishReport(ctx, report), ctxErr(ctx, err)
		}

		result := types.MatchupResult{
			Winner:     out.Winner,
			Loser:      out.Loser,
			Draw:       out.Draw,
			TotalTurns: out.Turns,
			GameID:     out.GameID,
			Error:      out.Error,
		}
		if err := r.schedule.RecordCompletion(ctx, u, result); err != nil {
			r.logger.Warn(ctx, "Failed to record completion",
				logger.String("matchup_id", u.MatchupID), logger.Error(err))
		}
		result.MatchupID = u.MatchupID
		report.Results = append(report.Results, result)
		report.Played++
		if out.Error != "" {
			report.Failed++
		}

		if r.pause > 0 && !r.schedule.IsExhausted(ctx) {
			select {
			case <-ctx.Done():
				return r.finishReport(ctx, report), ctx.Err()
			case <-time.After(r.pause):
			}
		}
	}
	return r.finishReport(ctx, report), nil
}

func (r *Runner) finishReport(ctx context.Context, report ChunkReport) ChunkReport {
	report.Remaining = r.schedule.Status(ctx).Pending
	return report
}

// Run plays chunks until the schedule is exhausted or ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	for !r.schedule.IsExhausted(ctx) {
		report, err := r.RunChunk(ctx, r.chunkSize)
		if err != nil {
			return err
		}
		st := r.schedule.Status(ctx)
		r.logger.Info(ctx, "Chunk finished",
			logger.Int("played", report.Played),
			logger.Int("failed", report.Failed),
			logger.Int("completed", st.Completed),
			logger.Int("total", st.Total),
			logger.Float64("progress_percentage", st.ProgressPercentage))
		if report.Played == 0 {
			// Nothing pending was returned although the schedule is not
			// exhausted; avoid spinning.
			break
		}
	}
	r.logger.Info(ctx, "Tournament complete")
	return nil
}

// ctxErr prefers the context's own error so callers can match it.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return errors.Join(cerr, err)
	}
	return err
}
