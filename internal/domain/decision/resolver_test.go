package decision_test

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/okian/arena/internal/domain/decision"
	"github.com/okian/arena/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestResolveRecords(t *testing.T) {
	Convey("Given a resolver", t, func() {
		ctx := context.Background()
		r := decision.NewResolver()

		Convey("When the whole response is a record", func() {
			d := r.Resolve(ctx, `{"action_index": 2, "reasoning": "x"}`, 5)

			Convey("Then the index and reasoning are taken from it", func() {
				So(d.Index, ShouldEqual, 2)
				So(d.Reasoning, ShouldEqual, "x")
				So(d.Tier, ShouldEqual, decision.TierWholeRecord)
				So(d.Defaulted, ShouldBeFalse)
				So(d.Trace, ShouldBeEmpty)
			})
		})

		Convey("When the index is a numeric string and reasoning is missing", func() {
			d := r.Resolve(ctx, `  {"action_index": "3"}  `, 5)

			So(d.Index, ShouldEqual, 3)
			So(d.Reasoning, ShouldEqual, decision.ReasonNoneProvided)
			So(d.Tier, ShouldEqual, decision.TierWholeRecord)
		})

		Convey("When a record is embedded in prose with braces inside strings", func() {
			raw := "Sure! Here you go: {\"action_index\": 1, \"reasoning\": \"a {brace} inside\"} good luck"
			d := r.Resolve(ctx, raw, 3)

			So(d.Index, ShouldEqual, 1)
			So(d.Reasoning, ShouldEqual, "a {brace} inside")
			So(d.Tier, ShouldEqual, decision.TierEmbeddedRecord)
			So(d.Trace, ShouldHaveLength, 1)
		})

		Convey("When the record is wrapped in a code fence", func() {
			raw := "```json\n{\"action_index\": 0, \"reasoning\": \"safe\"}\n```"
			d := r.Resolve(ctx, raw, 2)

			So(d.Index, ShouldEqual, 0)
			So(d.Reasoning, ShouldEqual, "safe")
			So(d.Tier, ShouldEqual, decision.TierEmbeddedRecord)
		})

		Convey("When the record is nested inside another object", func() {
			d := r.Resolve(ctx, `{"decision": {"action_index": 2, "reasoning": "inner"}}`, 3)

			Convey("Then the inner fragment is used", func() {
				So(d.Index, ShouldEqual, 2)
				So(d.Reasoning, ShouldEqual, "inner")
				So(d.Tier, ShouldEqual, decision.TierEmbeddedRecord)
			})
		})

		Convey("When two records are embedded", func() {
			d := r.Resolve(ctx, `first {"action_index": 1} then {"action_index": 2}`, 3)

			So(d.Index, ShouldEqual, 1)
		})
	})
}

func TestResolveFreeText(t *testing.T) {
	Convey("Given a resolver", t, func() {
		ctx := context.Background()
		r := decision.NewResolver()

		Convey("When a cue phrase precedes the number", func() {
			cases := map[string]int{
				"I choose action 2 because it wins":   2,
				"Action index: 3":                     3,
				"my action_index is 1":                1,
				"final answer, index: 2":              2,
				"action index #3, then maybe index: 1": 3,
			}
			for raw, want := range cases {
				d := r.Resolve(ctx, raw, 4)
				So(d.Index, ShouldEqual, want)
				So(d.Tier, ShouldEqual, decision.TierCuePhrase)
			}
		})

		Convey("When the earliest cue is later than an unrelated number", func() {
			d := r.Resolve(ctx, "After 12 turns I choose action 1", 3)

			So(d.Index, ShouldEqual, 1)
			So(d.Tier, ShouldEqual, decision.TierCuePhrase)
		})

		Convey("When only a bare number is present", func() {
			d := r.Resolve(ctx, "Going with 2.", 3)

			So(d.Index, ShouldEqual, 2)
			So(d.Tier, ShouldEqual, decision.TierBareNumber)
			So(d.Reasoning, ShouldEqual, "Going with 2.")
			So(d.Trace, ShouldHaveLength, 3)
		})

		Convey("When the response has nothing usable", func() {
			d := r.Resolve(ctx, "I am not sure what to do here.", 3)

			Convey("Then the first action is used", func() {
				So(d.Index, ShouldEqual, 0)
				So(d.Reasoning, ShouldEqual, decision.ReasonUnparsable)
				So(d.Tier, ShouldEqual, decision.TierDefault)
				So(d.Trace, ShouldHaveLength, 4)
			})
		})

		Convey("When the response is empty", func() {
			d := r.Resolve(ctx, "", 3)

			So(d.Index, ShouldEqual, 0)
			So(d.Tier, ShouldEqual, decision.TierDefault)
		})

		Convey("When the reasoning excerpt is capped", func() {
			capped := decision.NewResolver(decision.WithMaxReasoning(10))
			d := capped.Resolve(ctx, "pick 1 "+strings.Repeat("because ", 20), 3)

			So(d.Index, ShouldEqual, 1)
			So(d.Reasoning, ShouldEqual, "pick 1 bec...")
		})
	})
}

func TestResolveBounds(t *testing.T) {
	Convey("Given a resolver", t, func() {
		ctx := context.Background()
		r := decision.NewResolver()

		Convey("When a free-text index is out of range", func() {
			d := r.Resolve(ctx, "I think action 7 is best", 3)

			Convey("Then it is defaulted to 0", func() {
				So(d.Index, ShouldEqual, 0)
				So(d.Defaulted, ShouldBeTrue)
				So(d.Reasoning, ShouldEqual, decision.ReasonInvalidIndex)
				So(d.Tier, ShouldEqual, decision.TierBareNumber)
				So(d.Trace[len(d.Trace)-1], ShouldStartWith, "bounds:")
			})
		})

		Convey("When a record index is negative or fractional", func() {
			for _, raw := range []string{`{"action_index": -1}`, `{"action_index": 1.5}`, `{"action_index": 3}`} {
				d := r.Resolve(ctx, raw, 3)
				So(d.Index, ShouldEqual, 0)
				So(d.Defaulted, ShouldBeTrue)
				So(d.Tier, ShouldEqual, decision.TierWholeRecord)
			}
		})

		Convey("When the legal action count is zero", func() {
			d := r.Resolve(ctx, `{"action_index": 0}`, 0)

			So(d.Index, ShouldEqual, 0)
			So(d.Defaulted, ShouldBeTrue)
			So(d.Reasoning, ShouldEqual, decision.ReasonNoLegalActions)
		})

		Convey("When the agent is attached", func() {
			d := r.ResolveFor(ctx, "openai/gpt-4o", "1", 2)

			So(d.Agent.String(), ShouldEqual, "openai/gpt-4o")
			So(d.RawText, ShouldEqual, "1")
		})
	})
}

func TestResolveAlwaysInRange(t *testing.T) {
	Convey("Given arbitrary responses", t, func() {
		ctx := context.Background()
		r := decision.NewResolver()
		rng := rand.New(rand.NewSource(7))
		pieces := []string{
			"{", "}", `"`, `\`, "action", "index", ":", " ", "-", "99", "0", "3",
			`"action_index"`, "choose action", "1e9", "x", "```", "\n", "1.5", "é",
		}

		Convey("Then every resolved index is within the legal range", func() {
			for i := 0; i < 2000; i++ {
				var b strings.Builder
				for j := rng.Intn(12); j >= 0; j-- {
					b.WriteString(pieces[rng.Intn(len(pieces))])
				}
				n := 1 + rng.Intn(10)
				d := r.Resolve(ctx, b.String(), n)
				So(d.Index >= 0 && d.Index < n, ShouldBeTrue)
			}
		})
	})
}
