package schedule_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/schedule"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/jsonfile"
	"github.com/okian/arena/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

type memorySink struct{ results []types.MatchupResult }

func (m *memorySink) RecordMatchup(_ context.Context, r types.MatchupResult) error {
	m.results = append(m.results, r)
	return nil
}

func ids(units []schedule.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.MatchupID
	}
	return out
}

func TestNewValidation(t *testing.T) {
	Convey("Given invalid rosters", t, func() {
		ctx := context.Background()

		_, err := schedule.New(ctx, []model.AgentID{"a"}, 1)
		So(errors.Is(err, schedule.ErrTooFewAgents), ShouldBeTrue)

		_, err = schedule.New(ctx, []model.AgentID{"a", "a"}, 1)
		So(errors.Is(err, schedule.ErrTooFewAgents), ShouldBeTrue)

		_, err = schedule.New(ctx, []model.AgentID{"a", "b"}, 0)
		So(errors.Is(err, schedule.ErrInvalidGameCount), ShouldBeTrue)

		_, err = schedule.New(ctx, []model.AgentID{"a", "x_vs_y"}, 1)
		So(errors.Is(err, model.ErrInvalidAgent), ShouldBeTrue)

		_, err = schedule.New(ctx, []model.AgentID{"a", ""}, 1)
		So(errors.Is(err, model.ErrInvalidAgent), ShouldBeTrue)

		_, err = schedule.New(ctx, []model.AgentID{"a", "a_vs", "b", "vs_b"}, 1)
		So(errors.Is(err, model.ErrInvalidAgent), ShouldBeTrue)

		_, err = schedule.ParsePairing("swiss")
		So(errors.Is(err, schedule.ErrUnknownPairingMode), ShouldBeTrue)
	})
}

func TestGeneration(t *testing.T) {
	Convey("Given three agents and two games per matchup", t, func() {
		ctx := context.Background()
		roster := []model.AgentID{"a", "b", "c"}

		Convey("When pairing is ordered", func() {
			s, err := schedule.New(ctx, roster, 2)
			So(err, ShouldBeNil)

			Convey("Then every ordered pair is played each game number", func() {
				So(s.Total(), ShouldEqual, 12)
				So(ids(s.Next(ctx, 4)), ShouldResemble, []string{
					"a_vs_b_game0", "a_vs_b_game1", "a_vs_c_game0", "a_vs_c_game1",
				})
				So(s.Pending(ctx), ShouldHaveLength, 12)
				So(s.IsExhausted(ctx), ShouldBeFalse)
			})
		})

		Convey("When pairing alternates the first mover", func() {
			s, err := schedule.New(ctx, roster, 2, schedule.WithPairing(schedule.PairingAlternating))
			So(err, ShouldBeNil)

			Convey("Then each unordered pair appears once per game number", func() {
				So(s.Total(), ShouldEqual, 6)
				So(ids(s.Next(ctx, 2)), ShouldResemble, []string{"a_vs_b_game0", "b_vs_a_game1"})
			})
		})

		Convey("When pairing is parsed from config", func() {
			p, err := schedule.ParsePairing(" Alternating ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, schedule.PairingAlternating)
		})
	})
}

func TestRecordCompletion(t *testing.T) {
	Convey("Given a persisted two-agent schedule", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "tournament_progress.json")
		sink := &memorySink{}
		roster := []model.AgentID{"a", "b"}
		s, err := schedule.New(ctx, roster, 1, schedule.WithFile(path), schedule.WithResultSink(sink))
		So(err, ShouldBeNil)

		first := s.Next(ctx, 1)[0]
		err = s.RecordCompletion(ctx, first, types.MatchupResult{Winner: "a", Loser: "b", TotalTurns: 9, GameID: "g1"})
		So(err, ShouldBeNil)

		Convey("Then the unit leaves the pending set", func() {
			So(ids(s.Pending(ctx)), ShouldResemble, []string{"b_vs_a_game0"})
			So(s.CompletedCount(), ShouldEqual, 1)
			So(s.Status(ctx).ProgressPercentage, ShouldEqual, 50)
		})

		Convey("Then the result is stamped with the unit identity and mirrored", func() {
			snap := s.Snapshot(ctx)
			So(snap.Completed, ShouldHaveLength, 1)
			So(snap.Completed[0].MatchupID, ShouldEqual, "a_vs_b_game0")
			So(snap.Completed[0].Model1, ShouldEqual, model.AgentID("a"))
			So(snap.Completed[0].Timestamp.IsZero(), ShouldBeFalse)
			So(sink.results, ShouldHaveLength, 1)
		})

		Convey("When the same unit is recorded again", func() {
			err := s.RecordCompletion(ctx, first, types.MatchupResult{Winner: "b"})

			So(errors.Is(err, schedule.ErrAlreadyCompleted), ShouldBeTrue)
			So(s.CompletedCount(), ShouldEqual, 1)
			So(sink.results, ShouldHaveLength, 1)
		})

		Convey("When a unit outside the schedule is recorded", func() {
			err := s.RecordCompletion(ctx, schedule.Unit{MatchupID: "x_vs_y_game0"}, types.MatchupResult{})
			So(errors.Is(err, schedule.ErrUnknownUnit), ShouldBeTrue)
		})

		Convey("When the process restarts", func() {
			resumed, err := schedule.New(ctx, roster, 1, schedule.WithFile(path))
			So(err, ShouldBeNil)

			Convey("Then completed units are not replayed", func() {
				So(ids(resumed.Pending(ctx)), ShouldResemble, []string{"b_vs_a_game0"})
				So(errors.Is(resumed.RecordCompletion(ctx, first, types.MatchupResult{}), schedule.ErrAlreadyCompleted), ShouldBeTrue)
			})

			Convey("Then finishing the last unit exhausts the schedule", func() {
				last := resumed.Next(ctx, 0)[0]
				So(resumed.RecordCompletion(ctx, last, types.MatchupResult{Draw: true}), ShouldBeNil)
				So(resumed.IsExhausted(ctx), ShouldBeTrue)
				So(resumed.Next(ctx, 5), ShouldBeEmpty)
			})
		})

		Convey("When the roster changes", func() {
			changed, err := schedule.New(ctx, []model.AgentID{"a", "c"}, 1, schedule.WithFile(path))
			So(err, ShouldBeNil)

			Convey("Then old completions are kept but do not count", func() {
				So(changed.CompletedCount(), ShouldEqual, 0)
				So(changed.Pending(ctx), ShouldHaveLength, 2)

				u := changed.Next(ctx, 1)[0]
				So(changed.RecordCompletion(ctx, u, types.MatchupResult{}), ShouldBeNil)

				var p schedule.Progress
				found, err := jsonfile.Read(path, &p)
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(p.Completed, ShouldHaveLength, 2)
				So(p.Agents, ShouldResemble, []model.AgentID{"a", "c"})
			})
		})
	})

	Convey("Given a corrupt progress file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "tournament_progress.json")
		So(os.WriteFile(path, []byte("not json"), 0o644), ShouldBeNil)

		s, err := schedule.New(ctx, []model.AgentID{"a", "b"}, 1, schedule.WithFile(path))

		So(err, ShouldBeNil)
		So(s.Pending(ctx), ShouldHaveLength, 2)
	})
}
