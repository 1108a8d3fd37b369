package interview_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/interview"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var (
	u1    = authz.Actor{ID: "u-1", Role: model.RoleInterviewer, Active: true}
	u2    = authz.Actor{ID: "u-2", Role: model.RoleInterviewer, Active: true}
	admin = authz.Actor{ID: "admin", Role: model.RoleAdmin, Active: true}
	now   = time.Date(2025, 4, 2, 15, 0, 0, 0, time.UTC)
)

func goodFeedback() interview.FeedbackInput {
	return interview.FeedbackInput{
		Ratings:        model.Ratings{Technical: 4, Communication: 4, ProblemSolving: 5, CultureFit: 4, Overall: 4},
		Strengths:      "  clear reasoning  ",
		Recommendation: model.Yes,
	}
}

func TestScheduleRound(t *testing.T) {
	convey.Convey("Given a candidate with no rounds", t, func() {
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageScreening}

		convey.Convey("When scheduling three rounds", func() {
			r1, err := interview.ScheduleRound(&c, model.RoundScreening, "u-1", nil)
			convey.So(err, convey.ShouldBeNil)
			r2, _ := interview.ScheduleRound(&c, model.RoundTechnicalL1, "u-2", &now)
			r3, _ := interview.ScheduleRound(&c, model.RoundHR, "u-1", nil)

			convey.Convey("Then numbers are 1, 2, 3 and the invariant holds", func() {
				convey.So(r1.RoundNumber, convey.ShouldEqual, 1)
				convey.So(r2.RoundNumber, convey.ShouldEqual, 2)
				convey.So(*r2.ScheduledAt, convey.ShouldEqual, now)
				convey.So(r3.RoundNumber, convey.ShouldEqual, 3)
				convey.So(c.Invariant(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the input is malformed", func() {
			_, err := interview.ScheduleRound(&c, model.RoundType("PAIRING"), "", nil)
			fields := apperr.FieldsOf(err)
			convey.So(fields, convey.ShouldContainKey, "roundType")
			convey.So(fields, convey.ShouldContainKey, "interviewerId")
			convey.So(c.Rounds, convey.ShouldBeEmpty)
		})

		convey.Convey("When the candidate already left the pipeline", func() {
			c.CurrentStage = model.StageHired
			_, err := interview.ScheduleRound(&c, model.RoundHR, "u-1", nil)
			convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)
		})
	})
}

func TestSubmitFeedbackScenario(t *testing.T) {
	convey.Convey("Given round 1 (SCREENING, interviewer u-1)", t, func() {
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageScreening}
		_, err := interview.ScheduleRound(&c, model.RoundScreening, "u-1", nil)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When u-2 submits", func() {
			_, err := interview.SubmitFeedback(&c, 1, goodFeedback(), u2, now)

			convey.Convey("Then it is forbidden and the round stays open", func() {
				convey.So(errors.Is(err, apperr.ErrForbidden), convey.ShouldBeTrue)
				convey.So(c.Rounds[0].Closed(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When u-1 submits {4,4,5,4,4} YES", func() {
			fb, err := interview.SubmitFeedback(&c, 1, goodFeedback(), u1, now)

			convey.Convey("Then the round is closed and the stage untouched", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fb.SubmittedBy, convey.ShouldEqual, "u-1")
				convey.So(fb.Strengths, convey.ShouldEqual, "clear reasoning")
				convey.So(c.Rounds[0].Closed(), convey.ShouldBeTrue)
				convey.So(c.CurrentStage, convey.ShouldEqual, model.StageScreening)
			})

			convey.Convey("And a second submission by u-1 conflicts", func() {
				_, err := interview.SubmitFeedback(&c, 1, goodFeedback(), u1, now)
				convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)
			})

			convey.Convey("And a second submission by an admin conflicts too", func() {
				_, err := interview.SubmitFeedback(&c, 1, goodFeedback(), admin, now)
				convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)
				convey.So(c.Rounds[0].Feedback.SubmittedBy, convey.ShouldEqual, "u-1")
			})
		})

		convey.Convey("When the round does not exist", func() {
			_, err := interview.SubmitFeedback(&c, 7, goodFeedback(), admin, now)
			convey.So(errors.Is(err, apperr.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("When a rating is out of range", func() {
			in := goodFeedback()
			in.Ratings.CultureFit = 6
			in.Ratings.Overall = 0
			_, err := interview.SubmitFeedback(&c, 1, in, u1, now)

			convey.Convey("Then each bad field is reported", func() {
				convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
				fields := apperr.FieldsOf(err)
				convey.So(fields, convey.ShouldContainKey, "ratings.cultureFit")
				convey.So(fields, convey.ShouldContainKey, "ratings.overall")
				convey.So(c.Rounds[0].Closed(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the recommendation is missing", func() {
			in := goodFeedback()
			in.Recommendation = ""
			convey.So(apperr.FieldsOf(interview.ValidateFeedback(in)), convey.ShouldContainKey, "recommendation")
		})
	})
}

func TestNextPendingRoundForViewer(t *testing.T) {
	convey.Convey("Given rounds for u-1, u-2, u-1, u-1 with round 1 closed", t, func() {
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageTechnicalL1}
		for _, id := range []string{"u-1", "u-2", "u-1", "u-1"} {
			_, _ = interview.ScheduleRound(&c, model.RoundTechnicalL1, id, nil)
		}
		_, err := interview.SubmitFeedback(&c, 1, goodFeedback(), u1, now)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then u-1 is routed to round 3", func() {
			r := interview.NextPendingRoundForViewer(c, u1)
			convey.So(r, convey.ShouldNotBeNil)
			convey.So(r.RoundNumber, convey.ShouldEqual, 3)
		})

		convey.Convey("Then u-2 is routed to round 2", func() {
			convey.So(interview.NextPendingRoundForViewer(c, u2).RoundNumber, convey.ShouldEqual, 2)
		})

		convey.Convey("Then an admin gets the lowest open round", func() {
			convey.So(interview.NextPendingRoundForViewer(c, admin).RoundNumber, convey.ShouldEqual, 2)
		})

		convey.Convey("Then an unrelated recruiter gets nothing", func() {
			recruiter := authz.Actor{ID: "r", Role: model.RoleRecruiter, Active: true}
			convey.So(interview.NextPendingRoundForViewer(c, recruiter), convey.ShouldBeNil)
		})

		convey.Convey("Then the returned round is a copy", func() {
			r := interview.NextPendingRoundForViewer(c, u1)
			r.InterviewerID = "someone-else"
			convey.So(c.Rounds[2].InterviewerID, convey.ShouldEqual, "u-1")
		})
	})
}

func TestAggregate(t *testing.T) {
	convey.Convey("Given a candidate with mixed feedback", t, func() {
		c := model.Candidate{ID: "c-1", CurrentStage: model.StageHR}
		for n := 0; n < 4; n++ {
			_, _ = interview.ScheduleRound(&c, model.RoundTechnicalL1, "u-1", nil)
		}
		_, _ = interview.SubmitFeedback(&c, 1, goodFeedback(), u1, now)

		convey.Convey("When one round has feedback", func() {
			s := interview.NewAggregator().Aggregate(c)

			convey.Convey("Then the score is the scaled mean", func() {
				convey.So(s.Completed, convey.ShouldEqual, 1)
				convey.So(s.Pending, convey.ShouldEqual, 3)
				convey.So(s.Averages["problemSolving"], convey.ShouldEqual, 5.0)
				convey.So(s.Score, convey.ShouldEqual, 80.0)
				convey.So(s.Consensus, convey.ShouldEqual, model.Yes)
			})
		})

		convey.Convey("When recommendations tie", func() {
			no := goodFeedback()
			no.Recommendation = model.No
			_, _ = interview.SubmitFeedback(&c, 2, no, u1, now)
			s := interview.NewAggregator().Aggregate(c)

			convey.Convey("Then the cautious side wins", func() {
				convey.So(s.Recommendations[model.Yes], convey.ShouldEqual, 1)
				convey.So(s.Consensus, convey.ShouldEqual, model.No)
			})
		})

		convey.Convey("When technical skill is weighted up", func() {
			in := goodFeedback()
			in.Ratings = model.Ratings{Technical: 5, Communication: 1, ProblemSolving: 1, CultureFit: 1, Overall: 1}
			c2 := model.Candidate{ID: "c-2", CurrentStage: model.StageHR}
			_, _ = interview.ScheduleRound(&c2, model.RoundTechnicalL1, "u-1", nil)
			_, _ = interview.SubmitFeedback(&c2, 1, in, u1, now)

			plain := interview.NewAggregator().Aggregate(c2)
			weighted := interview.NewAggregator(
				interview.WithDimensionWeights(map[string]float64{"technical": 4, "overall": -1}, 0),
			).Aggregate(c2)

			convey.Convey("Then the weighted score is higher", func() {
				convey.So(plain.Score, convey.ShouldEqual, 20.0)
				convey.So(weighted.Score, convey.ShouldEqual, 50.0)
			})
		})

		convey.Convey("When nothing has been submitted", func() {
			s := interview.NewAggregator().Aggregate(model.Candidate{ID: "empty"})
			convey.So(s.Completed, convey.ShouldEqual, 0)
			convey.So(s.Score, convey.ShouldEqual, 0.0)
			convey.So(s.Consensus, convey.ShouldEqual, model.Recommendation(""))
		})
	})
}
