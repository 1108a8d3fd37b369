// Package model contains domain entities passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
)

// Candidate is an applicant moving through the pipeline.
// Candidate owns its Rounds and, when rejected, its Rejection.
type Candidate struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone,omitempty"`
	Role            string           `json:"role,omitempty"`
	Company         string           `json:"company,omitempty"`
	ExperienceYears int              `json:"experienceYears"`
	Skills          []string         `json:"skills,omitempty"`
	ResumeURL       string           `json:"resumeUrl,omitempty"`
	CurrentStage    Stage            `json:"currentStage"`
	StageUpdatedAt  time.Time        `json:"stageUpdatedAt"`
	JobID           string           `json:"jobId,omitempty"`
	RecruiterID     string           `json:"recruiterId,omitempty"`
	Rounds          []InterviewRound `json:"rounds"`
	Rejection       *RejectionReason `json:"rejection,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	DeletedAt       *time.Time       `json:"deletedAt,omitempty"`
}

// GetID returns the candidate id.
func (c Candidate) GetID() string { return c.ID }

// Deleted reports whether the candidate was soft-deleted.
func (c Candidate) Deleted() bool { return c.DeletedAt != nil }

// Dwell is the time spent in the current stage.
func (c Candidate) Dwell(now time.Time) time.Duration {
	if c.StageUpdatedAt.IsZero() {
		return 0
	}
	return now.Sub(c.StageUpdatedAt)
}

// Round returns the round with the given number.
func (c *Candidate) Round(number int) (*InterviewRound, bool) {
	if number < 1 || number > len(c.Rounds) {
		return nil, false
	}
	r := &c.Rounds[number-1]
	if r.RoundNumber != number {
		return nil, false
	}
	return r, true
}

// Invariant checks the structural rules every stored candidate obeys.
func (c Candidate) Invariant() error {
	if !c.CurrentStage.Valid() {
		return fmt.Errorf("candidate %s: unknown stage %q", c.ID, c.CurrentStage)
	}
	if (c.Rejection != nil) != (c.CurrentStage == StageRejected) {
		return fmt.Errorf("candidate %s: rejection present=%t at stage %s", c.ID, c.Rejection != nil, c.CurrentStage)
	}
	for i, r := range c.Rounds {
		if r.RoundNumber != i+1 {
			return fmt.Errorf("candidate %s: round at index %d numbered %d", c.ID, i, r.RoundNumber)
		}
	}
	return nil
}

// Validate checks intake input.
func (c Candidate) Validate() error {
	fields := map[string]string{}
	if c.Name == "" {
		fields["name"] = "required"
	}
	if c.Email == "" {
		fields["email"] = "required"
	}
	if c.ExperienceYears < 0 {
		fields["experienceYears"] = "must not be negative"
	}
	if c.CurrentStage != "" && !c.CurrentStage.Valid() {
		fields["currentStage"] = "unknown value " + quote(string(c.CurrentStage))
	}
	if len(fields) > 0 {
		return apperr.Validation("model.Candidate", fields)
	}
	return nil
}

// CandidateSummary is the lean projection used by table and board views.
type CandidateSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CurrentStage   Stage     `json:"currentStage"`
	StageUpdatedAt time.Time `json:"stageUpdatedAt"`
	JobID          string    `json:"jobId,omitempty"`
	RoundCount     int       `json:"roundCount"`
	PendingRounds  int       `json:"pendingRounds"`
}

// Summary projects c into its lean form.
func (c Candidate) Summary() CandidateSummary {
	pending := 0
	for _, r := range c.Rounds {
		if !r.Closed() {
			pending++
		}
	}
	return CandidateSummary{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		CurrentStage:   c.CurrentStage,
		StageUpdatedAt: c.StageUpdatedAt,
		JobID:          c.JobID,
		RoundCount:     len(c.Rounds),
		PendingRounds:  pending,
	}
}

// InterviewRound is one scheduled interview for a candidate.
type InterviewRound struct {
	RoundNumber   int        `json:"roundNumber"`
	RoundType     RoundType  `json:"roundType"`
	InterviewerID string     `json:"interviewerId"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	Feedback      *Feedback  `json:"feedback,omitempty"`
}

// Closed reports whether feedback was submitted.
func (r InterviewRound) Closed() bool { return r.Feedback != nil }

// Ratings holds the five 1..5 scorecard ratings.
type Ratings struct {
	Technical      int `json:"technical"`
	Communication  int `json:"communication"`
	ProblemSolving int `json:"problemSolving"`
	CultureFit     int `json:"cultureFit"`
	Overall        int `json:"overall"`
}

// Each visits every rating with its field name.
func (r Ratings) Each(fn func(name string, v int)) {
	fn("technical", r.Technical)
	fn("communication", r.Communication)
	fn("problemSolving", r.ProblemSolving)
	fn("cultureFit", r.CultureFit)
	fn("overall", r.Overall)
}

// Feedback is the immutable scorecard attached to a round.
type Feedback struct {
	Ratings        Ratings        `json:"ratings"`
	Strengths      string         `json:"strengths,omitempty"`
	Improvements   string         `json:"improvements,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	SubmittedBy    string         `json:"submittedBy"`
}

// RejectionReason records why and when a candidate was rejected.
type RejectionReason struct {
	ID          string            `json:"id"`
	CandidateID string            `json:"candidateId"`
	Category    RejectionCategory `json:"category"`
	Notes       string            `json:"notes"`
	RejectedBy  string            `json:"rejectedBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// GetID returns the rejection id.
func (r RejectionReason) GetID() string { return r.ID }
