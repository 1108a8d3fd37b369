package pipeline_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/pipeline"
	"github.com/smartystreets/goconvey/convey"
)

func TestValidateStageChange(t *testing.T) {
	convey.Convey("Given a candidate at SCREENING", t, func() {
		earlier := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
		now := earlier.Add(48 * time.Hour)
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageScreening, StageUpdatedAt: earlier}

		convey.Convey("When moving forward to TECHNICAL_L1", func() {
			change, err := pipeline.ValidateStageChange(c, model.StageTechnicalL1)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Noop, convey.ShouldBeFalse)
			pipeline.Apply(&c, change, now)

			convey.Convey("Then the stage and its timestamp move", func() {
				convey.So(c.CurrentStage, convey.ShouldEqual, model.StageTechnicalL1)
				convey.So(c.StageUpdatedAt, convey.ShouldEqual, now)
			})
		})

		convey.Convey("When moving backward to APPLIED", func() {
			change, err := pipeline.ValidateStageChange(c, model.StageApplied)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.From, convey.ShouldEqual, model.StageScreening)
			convey.So(change.To, convey.ShouldEqual, model.StageApplied)
			convey.So(change.Backward, convey.ShouldBeTrue)
		})

		convey.Convey("When jumping straight to HIRED", func() {
			change, err := pipeline.ValidateStageChange(c, model.StageHired)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Backward, convey.ShouldBeFalse)
		})

		convey.Convey("When a withdrawn candidate is brought back", func() {
			c.CurrentStage = model.StageWithdrawn
			change, err := pipeline.ValidateStageChange(c, model.StageScreening)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Backward, convey.ShouldBeTrue)
		})

		convey.Convey("When withdrawing", func() {
			change, err := pipeline.ValidateStageChange(c, model.StageWithdrawn)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Backward, convey.ShouldBeFalse)
		})

		convey.Convey("When requesting the current stage", func() {
			change, err := pipeline.ValidateStageChange(c, model.StageScreening)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Noop, convey.ShouldBeTrue)
			pipeline.Apply(&c, change, now)

			convey.Convey("Then the timestamp is not bumped", func() {
				convey.So(c.StageUpdatedAt, convey.ShouldEqual, earlier)
			})
		})

		convey.Convey("When the stage is not recognized", func() {
			_, err := pipeline.ValidateStageChange(c, model.Stage("ONSITE"))
			convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When REJECTED is requested directly", func() {
			_, err := pipeline.ValidateStageChange(c, model.StageRejected)
			convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When the candidate is already rejected", func() {
			c.CurrentStage = model.StageRejected
			c.Rejection = &model.RejectionReason{Category: model.RejectOther}

			_, err := pipeline.ValidateStageChange(c, model.StageScreening)
			convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)

			change, err := pipeline.ValidateStageChange(c, model.StageRejected)
			convey.So(err, convey.ShouldBeNil)
			convey.So(change.Noop, convey.ShouldBeTrue)
		})
	})
}

func TestSummarize(t *testing.T) {
	convey.Convey("Given a mixed board", t, func() {
		now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		deleted := now
		candidates := []model.Candidate{
			{ID: "a", CurrentStage: model.StageScreening, StageUpdatedAt: now.Add(-2 * time.Hour)},
			{ID: "b", CurrentStage: model.StageScreening, StageUpdatedAt: now.Add(-4 * time.Hour)},
			{ID: "c", CurrentStage: model.StageHired, StageUpdatedAt: now.Add(-24 * time.Hour)},
			{ID: "d", CurrentStage: model.StageHR, StageUpdatedAt: now.Add(-time.Hour), DeletedAt: &deleted},
		}

		sum := pipeline.Summarize(candidates, now)

		convey.Convey("Then counts and averages are per stage", func() {
			convey.So(sum.Total, convey.ShouldEqual, 3)
			convey.So(sum.Active, convey.ShouldEqual, 2)
			convey.So(len(sum.Stages), convey.ShouldEqual, len(model.Stages))
			var screening pipeline.StageStat
			for _, s := range sum.Stages {
				if s.Stage == model.StageScreening {
					screening = s
				}
				if s.Stage == model.StageHR {
					convey.So(s.Count, convey.ShouldEqual, 0)
				}
			}
			convey.So(screening.Count, convey.ShouldEqual, 2)
			convey.So(screening.AverageDwell, convey.ShouldEqual, 3*time.Hour)
			convey.So(screening.OldestDwell, convey.ShouldEqual, 4*time.Hour)
		})

		convey.Convey("Then stalled candidates are active ones past the limit, oldest first", func() {
			stalled := pipeline.Stalled(candidates, now, time.Hour)
			convey.So(len(stalled), convey.ShouldEqual, 2)
			convey.So(stalled[0].ID, convey.ShouldEqual, "b")
			convey.So(stalled[1].ID, convey.ShouldEqual, "a")
		})
	})
}
