package authz_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCanSubmitFeedbackMatrix(t *testing.T) {
	convey.Convey("Given a round assigned to interviewer u-1", t, func() {
		round := model.InterviewRound{RoundNumber: 1, RoundType: model.RoundScreening, InterviewerID: "u-1"}

		for _, role := range model.Roles {
			for _, designated := range []bool{true, false} {
				id := "u-2"
				if designated {
					id = "u-1"
				}
				actor := authz.Actor{ID: id, Role: role, Active: true}
				want := role == model.RoleAdmin || designated

				convey.Convey(fmt.Sprintf("When a %s (designated=%t) asks", role, designated), func() {
					convey.So(authz.CanSubmitFeedback(round, actor), convey.ShouldEqual, want)
					convey.So(actor.CanPerform(authz.SubmitFeedback, authz.Resource{Round: &round}), convey.ShouldEqual, want)
				})
			}
		}

		convey.Convey("When the round resource is missing", func() {
			admin := authz.Actor{ID: "a", Role: model.RoleAdmin, Active: true}
			convey.So(admin.CanPerform(authz.SubmitFeedback, authz.Resource{}), convey.ShouldBeFalse)
		})
	})
}

func TestPolicy(t *testing.T) {
	convey.Convey("Given actors of every role", t, func() {
		recruiter := authz.Actor{ID: "r", Role: model.RoleRecruiter, Active: true}
		manager := authz.Actor{ID: "m", Role: model.RoleHiringManager, Active: true}
		interviewer := authz.Actor{ID: "i", Role: model.RoleInterviewer, Active: true}
		admin := authz.Actor{ID: "a", Role: model.RoleAdmin, Active: true}

		convey.Convey("Then only ADMIN and RECRUITER change stages and reject", func() {
			for _, action := range []authz.Action{authz.ChangeStage, authz.RejectCandidate, authz.ScheduleRound, authz.DeleteCandidate} {
				convey.So(admin.CanPerform(action, authz.Resource{}), convey.ShouldBeTrue)
				convey.So(recruiter.CanPerform(action, authz.Resource{}), convey.ShouldBeTrue)
				convey.So(manager.CanPerform(action, authz.Resource{}), convey.ShouldBeFalse)
				convey.So(interviewer.CanPerform(action, authz.Resource{}), convey.ShouldBeFalse)
			}
		})

		convey.Convey("Then everyone views the pipeline and only ADMIN manages users", func() {
			convey.So(interviewer.CanPerform(authz.ViewPipeline, authz.Resource{}), convey.ShouldBeTrue)
			convey.So(admin.CanPerform(authz.ManageUsers, authz.Resource{}), convey.ShouldBeTrue)
			convey.So(recruiter.CanPerform(authz.ManageUsers, authz.Resource{}), convey.ShouldBeFalse)
			convey.So(manager.CanPerform(authz.ManageJob, authz.Resource{}), convey.ShouldBeTrue)
		})

		convey.Convey("When the actor is inactive", func() {
			admin.Active = false
			convey.So(admin.CanPerform(authz.ViewPipeline, authz.Resource{}), convey.ShouldBeFalse)
			err := authz.Authorize("op", &admin, authz.ViewPipeline, authz.Resource{})
			convey.So(errors.Is(err, apperr.ErrUnauthorized), convey.ShouldBeTrue)
		})

		convey.Convey("When no actor is resolved", func() {
			err := authz.Authorize("op", nil, authz.ViewPipeline, authz.Resource{})
			convey.So(errors.Is(err, apperr.ErrUnauthorized), convey.ShouldBeTrue)
		})

		convey.Convey("When the role lacks the capability", func() {
			err := authz.Authorize("op", &interviewer, authz.ChangeStage, authz.Resource{})
			convey.So(errors.Is(err, apperr.ErrForbidden), convey.ShouldBeTrue)
			convey.So(authz.Authorize("op", &recruiter, authz.ChangeStage, authz.Resource{}), convey.ShouldBeNil)
		})

		convey.Convey("When building an actor from a user", func() {
			a := authz.FromUser(model.User{ID: "u", Role: model.RoleRecruiter, Active: true})
			convey.So(a, convey.ShouldResemble, authz.Actor{ID: "u", Role: model.RoleRecruiter, Active: true})
		})
	})
}
