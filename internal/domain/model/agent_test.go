package model_test

import (
	"errors"
	"testing"

	"github.com/okian/arena/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAgentID(t *testing.T) {
	convey.Convey("Given agent identifiers", t, func() {
		convey.Convey("When the id is a provider/model token", func() {
			convey.So(model.AgentID("openai/gpt-4o-mini").Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the id is blank", func() {
			err := model.AgentID("  ").Validate()
			convey.So(errors.Is(err, model.ErrInvalidAgent), convey.ShouldBeTrue)
		})

		convey.Convey("When the id contains the matchup separator", func() {
			err := model.AgentID("a_vs_b").Validate()
			convey.So(errors.Is(err, model.ErrInvalidAgent), convey.ShouldBeTrue)
		})

		convey.Convey("When the id could overlap the separator", func() {
			for _, id := range []model.AgentID{"a_vs", "vs_b", "openai/x_vs"} {
				err := id.Validate()
				convey.So(errors.Is(err, model.ErrInvalidAgent), convey.ShouldBeTrue)
			}
			convey.So(model.AgentID("versus/vs-1").Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When converting raw strings", func() {
			ids := model.AgentIDs([]string{" openai/gpt-4o ", "baseline/random"})
			convey.So(ids, convey.ShouldResemble, []model.AgentID{"openai/gpt-4o", "baseline/random"})
		})
	})
}
