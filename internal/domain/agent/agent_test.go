package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBaselines(t *testing.T) {
	convey.Convey("Given baseline agents", t, func() {
		ctx := context.Background()
		p := agent.Prompt{Options: []string{"a", "b", "c", "d"}}

		convey.Convey("Then Forced always answers index 0", func() {
			out, err := agent.Forced{}.Respond(ctx, p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldStartWith, `{"action_index": 0,`)
		})

		convey.Convey("Then equal seeds give equal choices", func() {
			a, b := agent.NewRandom(9), agent.NewRandom(9)
			for i := 0; i < 20; i++ {
				x, _ := a.Respond(ctx, p)
				y, _ := b.Respond(ctx, p)
				convey.So(x, convey.ShouldEqual, y)
			}
		})

		convey.Convey("Then Random without options falls back to 0", func() {
			out, err := agent.NewRandom(1).Respond(ctx, agent.Prompt{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldStartWith, `{"action_index": 0,`)
		})
	})
}

func TestRegistry(t *testing.T) {
	convey.Convey("Given a registry with a model factory", t, func() {
		built := 0
		r := agent.NewRegistry(agent.WithModelFactory(func(id model.AgentID) (agent.Agent, error) {
			built++
			if id == "broken/model" {
				return nil, errors.New("no key")
			}
			return agent.AgentFunc(func(context.Context, agent.Prompt) (string, error) { return string(id), nil }), nil
		}))

		convey.Convey("Then baseline ids resolve without the factory", func() {
			a, err := r.Resolve(agent.FirstID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(a, convey.ShouldHaveSameTypeAs, agent.Forced{})
			_, err = r.Resolve(agent.RandomID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(built, convey.ShouldEqual, 0)
			convey.So(agent.IsBaseline(agent.RandomID), convey.ShouldBeTrue)
		})

		convey.Convey("Then model ids are built once and cached", func() {
			a1, err := r.Resolve("openai/gpt-4o")
			convey.So(err, convey.ShouldBeNil)
			_, _ = r.Resolve("openai/gpt-4o")
			convey.So(built, convey.ShouldEqual, 1)

			out, _ := a1.Respond(context.Background(), agent.Prompt{})
			convey.So(out, convey.ShouldEqual, "openai/gpt-4o")
		})

		convey.Convey("Then factory and validation errors surface", func() {
			_, err := r.Resolve("broken/model")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = r.Resolve("a_vs_b")
			convey.So(errors.Is(err, model.ErrInvalidAgent), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a registry without a factory", t, func() {
		r := agent.NewRegistry(agent.WithAgent("pinned", agent.Forced{}))

		_, err := r.Resolve("pinned")
		convey.So(err, convey.ShouldBeNil)
		_, err = r.Resolve("openai/gpt-4o")
		convey.So(errors.Is(err, agent.ErrNoModelFactory), convey.ShouldBeTrue)
	})
}
