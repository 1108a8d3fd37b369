// Package authz holds the single capability check every use-case runs
// before touching domain state.
package authz

import (
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
)

// Action is a capability a use-case requires.
type Action string

// Actions.
const (
	ViewPipeline    Action = "view_pipeline"
	ManageCandidate Action = "manage_candidate"
	DeleteCandidate Action = "delete_candidate"
	ChangeStage     Action = "change_stage"
	ScheduleRound   Action = "schedule_round"
	SubmitFeedback  Action = "submit_feedback"
	RejectCandidate Action = "reject_candidate"
	ManageJob       Action = "manage_job"
	ManageUsers     Action = "manage_users"
	ViewSettings    Action = "view_settings"
	ForceResync     Action = "force_resync"
)

// Resource narrows an action to a specific entity. Only SubmitFeedback
// inspects it.
type Resource struct {
	Round *model.InterviewRound
}

// Actor is the resolved identity behind a request.
type Actor struct {
	ID     string     `json:"id"`
	Role   model.Role `json:"role"`
	Active bool       `json:"active"`
}

// FromUser builds the actor for a stored user.
func FromUser(u model.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Active: u.Active}
}

var policy = map[Action][]model.Role{
	ViewPipeline:    {model.RoleAdmin, model.RoleRecruiter, model.RoleHiringManager, model.RoleInterviewer},
	ManageCandidate: {model.RoleAdmin, model.RoleRecruiter},
	DeleteCandidate: {model.RoleAdmin, model.RoleRecruiter},
	ChangeStage:     {model.RoleAdmin, model.RoleRecruiter},
	ScheduleRound:   {model.RoleAdmin, model.RoleRecruiter},
	RejectCandidate: {model.RoleAdmin, model.RoleRecruiter},
	ManageJob:       {model.RoleAdmin, model.RoleRecruiter, model.RoleHiringManager},
	ManageUsers:     {model.RoleAdmin},
	ViewSettings:    {model.RoleAdmin, model.RoleRecruiter},
	ForceResync:     {model.RoleAdmin, model.RoleRecruiter},
}

// CanPerform reports whether a may perform action on res.
func (a Actor) CanPerform(action Action, res Resource) bool {
	if !a.Active || a.ID == "" {
		return false
	}
	if action == SubmitFeedback {
		return res.Round != nil && CanSubmitFeedback(*res.Round, a)
	}
	for _, r := range policy[action] {
		if r == a.Role {
			return true
		}
	}
	return false
}

// CanSubmitFeedback is true for any ADMIN and for the round's designated
// interviewer, false for everyone else.
func CanSubmitFeedback(round model.InterviewRound, a Actor) bool {
	return a.Role == model.RoleAdmin || (a.ID != "" && a.ID == round.InterviewerID)
}

// Authorize returns Unauthorized for a missing actor and Forbidden when the
// actor lacks the capability.
func Authorize(op string, a *Actor, action Action, res Resource) error {
	if a == nil || a.ID == "" {
		return apperr.NewKind(op, apperr.ErrUnauthorized, "no authenticated actor")
	}
	if !a.Active {
		return apperr.NewKind(op, apperr.ErrUnauthorized, "actor %s is inactive", a.ID)
	}
	if !a.CanPerform(action, res) {
		return apperr.NewKind(op, apperr.ErrForbidden, "%s may not %s", a.Role, action)
	}
	return nil
}
