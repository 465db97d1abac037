package schedule

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/arena/internal/domain/model"
)

func TestIndexUnits(t *testing.T) {
	Convey("Given generated units", t, func() {
		Convey("When every matchup id is distinct", func() {
			idx, err := indexUnits(generate([]model.AgentID{"a", "b", "c"}, 2, PairingOrdered))
			So(err, ShouldBeNil)
			So(idx, ShouldHaveLength, 12)
		})

		Convey("When two pairs spell the same id", func() {
			units := []Unit{newUnit("a_vs", "b", 0), newUnit("a", "vs_b", 0)}
			So(units[0].MatchupID, ShouldEqual, units[1].MatchupID)

			_, err := indexUnits(units)
			So(errors.Is(err, ErrDuplicateMatchup), ShouldBeTrue)
		})
	})
}
