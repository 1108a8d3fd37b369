package rejection_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/rejection"
	"github.com/smartystreets/goconvey/convey"
)

func TestReject(t *testing.T) {
	convey.Convey("Given a candidate in TECHNICAL_L2", t, func() {
		then := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		now := then.Add(72 * time.Hour)
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageTechnicalL2, StageUpdatedAt: then}

		convey.Convey("When notes are exactly 19 characters", func() {
			notes := strings.Repeat("x", 19)
			_, err := rejection.Reject(&c, "r-1", rejection.Input{Category: model.RejectTechnicalGap, Notes: notes}, "rec", now)

			convey.Convey("Then validation fails and nothing changes", func() {
				convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
				convey.So(apperr.FieldsOf(err), convey.ShouldContainKey, "notes")
				convey.So(c.CurrentStage, convey.ShouldEqual, model.StageTechnicalL2)
				convey.So(c.Rejection, convey.ShouldBeNil)
			})
		})

		convey.Convey("When notes are exactly 20 characters", func() {
			notes := strings.Repeat("x", 20)
			_, err := rejection.Reject(&c, "r-1", rejection.Input{Category: model.RejectTechnicalGap, Notes: notes}, "rec", now)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When 20 characters only come from padding", func() {
			notes := "   " + strings.Repeat("y", 18) + "   "
			_, err := rejection.Reject(&c, "r-1", rejection.Input{Category: model.RejectOther, Notes: notes}, "rec", now)
			convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When the category is unknown", func() {
			_, err := rejection.Reject(&c, "r-1", rejection.Input{Category: "BUDGET", Notes: strings.Repeat("z", 30)}, "rec", now)
			convey.So(apperr.FieldsOf(err), convey.ShouldContainKey, "category")
		})

		convey.Convey("When rejecting with TECHNICAL_GAP and 25 characters", func() {
			in := rejection.Input{Category: model.RejectTechnicalGap, Notes: "Struggled with concurrency"[:25]}
			reason, err := rejection.Reject(&c, "r-1", in, "rec", now)

			convey.Convey("Then the candidate is REJECTED with exactly one reason", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(c.CurrentStage, convey.ShouldEqual, model.StageRejected)
				convey.So(c.StageUpdatedAt, convey.ShouldEqual, now)
				convey.So(c.Rejection, convey.ShouldNotBeNil)
				convey.So(*c.Rejection, convey.ShouldResemble, reason)
				convey.So(reason.CandidateID, convey.ShouldEqual, "c-1")
				convey.So(c.Invariant(), convey.ShouldBeNil)
			})

			convey.Convey("And a second rejection conflicts and keeps the first reason", func() {
				again := rejection.Input{Category: model.RejectCompensation, Notes: strings.Repeat("n", 40)}
				_, err := rejection.Reject(&c, "r-2", again, "rec", now.Add(time.Hour))
				convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)
				convey.So(c.Rejection.ID, convey.ShouldEqual, "r-1")
				convey.So(c.Rejection.Category, convey.ShouldEqual, model.RejectTechnicalGap)
			})
		})
	})
}
