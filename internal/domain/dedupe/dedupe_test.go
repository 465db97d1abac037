package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/arena/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When seeding ids", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithSeed("a_vs_b_game0", "b_vs_a_game0"))

			Convey("Then seeded ids are already seen", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.Seen(ctx, "a_vs_b_game0"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "b_vs_a_game0"), ShouldBeTrue)
				So(d.Seen(ctx, "a_vs_b_game1"), ShouldBeFalse)
			})
		})

		Convey("When recording ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				So(d.SeenAndRecord(ctx, "unit-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(ctx, "unit-1")
				So(d.SeenAndRecord(ctx, "unit-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And Seen does not record", func() {
				So(d.Seen(ctx, "unit-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When unrecording and resetting", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "unit-1")
			d.SeenAndRecord(ctx, "unit-2")

			d.Unrecord(ctx, "unit-1")
			d.Unrecord(ctx, "missing")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "unit-1"), ShouldBeFalse)
			})

			Convey("Then reset clears everything", func() {
				d.Reset(ctx)
				So(d.Size(), ShouldEqual, 0)
				So(d.Seen(ctx, "unit-2"), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var firsts atomic.Int64
		var wg sync.WaitGroup

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("unit-%d", i)) {
						firsts.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is newly recorded exactly once", func() {
			So(firsts.Load(), ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
