// Package interview manages the round and feedback lifecycle.
//
// A round moves SCHEDULED -> FEEDBACK_SUBMITTED exactly once. Feedback never
// changes the candidate's stage.
package interview

import (
	"strings"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
)

const (
	minRating = 1
	maxRating = 5
)

// FeedbackInput is a scorecard as submitted.
type FeedbackInput struct {
	Ratings        model.Ratings        `json:"ratings"`
	Strengths      string               `json:"strengths"`
	Improvements   string               `json:"improvements"`
	Recommendation model.Recommendation `json:"recommendation"`
}

// ScheduleRound appends the next sequential round to c. The caller checks
// that interviewerID resolves to an active user.
func ScheduleRound(c *model.Candidate, rt model.RoundType, interviewerID string, scheduledAt *time.Time) (model.InterviewRound, error) {
	fields := map[string]string{}
	if !rt.Valid() {
		fields["roundType"] = "unknown value \"" + string(rt) + "\""
	}
	if interviewerID == "" {
		fields["interviewerId"] = "required"
	}
	if len(fields) > 0 {
		return model.InterviewRound{}, apperr.Validation("interview.ScheduleRound", fields)
	}
	if c.CurrentStage.Terminal() {
		return model.InterviewRound{}, apperr.NewKind("interview.ScheduleRound", apperr.ErrConflict,
			"candidate %s is %s", c.ID, c.CurrentStage)
	}

	next := 1
	for _, r := range c.Rounds {
		if r.RoundNumber >= next {
			next = r.RoundNumber + 1
		}
	}
	round := model.InterviewRound{
		RoundNumber:   next,
		RoundType:     rt,
		InterviewerID: interviewerID,
		ScheduledAt:   scheduledAt,
	}
	c.Rounds = append(c.Rounds, round)
	return round, nil
}

// CanSubmitFeedback is true iff actor is ADMIN or the round's interviewer.
func CanSubmitFeedback(round model.InterviewRound, actor authz.Actor) bool {
	return authz.CanSubmitFeedback(round, actor)
}

// ValidateFeedback checks ratings and recommendation.
func ValidateFeedback(in FeedbackInput) error {
	fields := map[string]string{}
	in.Ratings.Each(func(name string, v int) {
		if v < minRating || v > maxRating {
			fields["ratings."+name] = "must be between 1 and 5"
		}
	})
	if !in.Recommendation.Valid() {
		fields["recommendation"] = "unknown value \"" + string(in.Recommendation) + "\""
	}
	if len(fields) > 0 {
		return apperr.Validation("interview.ValidateFeedback", fields)
	}
	return nil
}

// SubmitFeedback attaches feedback to round roundNumber of c.
// A round that already has feedback fails with Conflict whoever submits.
func SubmitFeedback(c *model.Candidate, roundNumber int, in FeedbackInput, actor authz.Actor, now time.Time) (model.Feedback, error) {
	const op = "interview.SubmitFeedback"

	round, ok := c.Round(roundNumber)
	if !ok {
		return model.Feedback{}, apperr.NewKind(op, apperr.ErrNotFound, "round %d of candidate %s", roundNumber, c.ID)
	}
	if !CanSubmitFeedback(*round, actor) {
		return model.Feedback{}, apperr.NewKind(op, apperr.ErrForbidden, "only the assigned interviewer or an admin may submit feedback")
	}
	if round.Closed() {
		return model.Feedback{}, apperr.NewKind(op, apperr.ErrConflict, "round %d already has feedback", roundNumber)
	}
	if err := ValidateFeedback(in); err != nil {
		return model.Feedback{}, err
	}

	fb := model.Feedback{
		Ratings:        in.Ratings,
		Strengths:      strings.TrimSpace(in.Strengths),
		Improvements:   strings.TrimSpace(in.Improvements),
		Recommendation: in.Recommendation,
		SubmittedAt:    now,
		SubmittedBy:    actor.ID,
	}
	round.Feedback = &fb
	c.UpdatedAt = now
	return fb, nil
}

// NextPendingRoundForViewer returns the lowest-numbered open round viewer may
// submit feedback for, or nil.
func NextPendingRoundForViewer(c model.Candidate, viewer authz.Actor) *model.InterviewRound {
	var best *model.InterviewRound
	for i := range c.Rounds {
		r := &c.Rounds[i]
		if r.Closed() || !CanSubmitFeedback(*r, viewer) {
			continue
		}
		if best == nil || r.RoundNumber < best.RoundNumber {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
