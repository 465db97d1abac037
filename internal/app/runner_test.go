package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/match"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/schedule"
)

// scriptedPlayer returns canned outcomes and counts calls.
type scriptedPlayer struct {
	mu    sync.Mutex
	calls []string
	play  func(n int, a, b model.AgentID) (match.Outcome, error)
}

func (p *scriptedPlayer) Play(ctx context.Context, a, b model.AgentID) (match.Outcome, error) {
	p.mu.Lock()
	n := len(p.calls)
	p.calls = append(p.calls, string(a)+"-"+string(b))
	p.mu.Unlock()
	return p.play(n, a, b)
}

func (p *scriptedPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func redWins(_ int, a, b model.AgentID) (match.Outcome, error) {
	return match.Outcome{GameID: "g", Winner: a, Loser: b, Turns: 3}, nil
}

func newSchedule(t *testing.T, agents ...model.AgentID) *schedule.Scheduler {
	s, err := schedule.New(context.Background(), agents, 1,
		schedule.WithFile(filepath.Join(t.TempDir(), "progress.json")))
	So(err, ShouldBeNil)
	return s
}

func TestRunnerChunks(t *testing.T) {
	Convey("Given three agents with six ordered units", t, func() {
		ctx := context.Background()
		sched := newSchedule(t, "a", "b", "c")
		player := &scriptedPlayer{play: redWins}
		r := service.NewRunner(sched, player, service.WithGamePause(0), service.WithRunnerChunkSize(4))

		Convey("When one chunk of two runs", func() {
			report, err := r.RunChunk(ctx, 2)

			Convey("Then exactly two units complete", func() {
				So(err, ShouldBeNil)
				So(report.Played, ShouldEqual, 2)
				So(report.Remaining, ShouldEqual, 4)
				So(sched.CompletedCount(), ShouldEqual, 2)
				So(report.Results[0].MatchupID, ShouldEqual, "a_vs_b_game0")
				So(report.Results[0].Winner, ShouldEqual, model.AgentID("a"))
			})
		})

		Convey("When the whole tournament runs", func() {
			err := r.Run(ctx)

			Convey("Then every unit is played once", func() {
				So(err, ShouldBeNil)
				So(player.count(), ShouldEqual, 6)
				So(sched.IsExhausted(ctx), ShouldBeTrue)
			})

			Convey("And running again plays nothing", func() {
				So(r.Run(ctx), ShouldBeNil)
				So(player.count(), ShouldEqual, 6)
			})
		})
	})
}

func TestRunnerFailures(t *testing.T) {
	Convey("Given a player whose second game fails", t, func() {
		ctx := context.Background()
		sched := newSchedule(t, "a", "b")
		player := &scriptedPlayer{play: func(n int, a, b model.AgentID) (match.Outcome, error) {
			if n == 1 {
				return match.Outcome{GameID: "boom", Error: "engine exploded"}, nil
			}
			return redWins(n, a, b)
		}}
		r := service.NewRunner(sched, player, service.WithGamePause(0))

		report, err := r.RunChunk(ctx, 0)

		Convey("Then the run continues and the failed unit is recorded", func() {
			So(err, ShouldBeNil)
			So(report.Played, ShouldEqual, 2)
			So(report.Failed, ShouldEqual, 1)
			So(sched.IsExhausted(ctx), ShouldBeTrue)
			So(sched.Snapshot(ctx).Completed[1].Error, ShouldEqual, "engine exploded")
		})
	})

	Convey("Given a game interrupted by cancellation", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		sched := newSchedule(t, "a", "b")
		player := &scriptedPlayer{play: func(n int, a, b model.AgentID) (match.Outcome, error) {
			if n == 1 {
				cancel()
				return match.Outcome{}, match.ErrCancelled
			}
			return redWins(n, a, b)
		}}
		r := service.NewRunner(sched, player, service.WithGamePause(0))

		err := r.Run(ctx)

		Convey("Then the interrupted unit stays pending", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(sched.CompletedCount(), ShouldEqual, 1)
			So(sched.Pending(context.Background()), ShouldHaveLength, 1)
		})
	})

	Convey("Given a long pause between games", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		sched := newSchedule(t, "a", "b")
		player := &scriptedPlayer{play: redWins}
		r := service.NewRunner(sched, player, service.WithGamePause(time.Hour))

		start := time.Now()
		_, err := r.RunChunk(ctx, 0)

		Convey("Then cancellation interrupts the pause", func() {
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, time.Second)
			So(player.count(), ShouldEqual, 1)
		})
	})
}
