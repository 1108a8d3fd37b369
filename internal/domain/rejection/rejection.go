// Package rejection records the terminal rejection of a candidate.
package rejection

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
)

// MinNotesLength is the minimum number of trimmed characters in notes.
const MinNotesLength = 20

// Input is a rejection request.
type Input struct {
	Category model.RejectionCategory `json:"category"`
	Notes    string                  `json:"notes"`
}

// Validate checks category and notes.
func Validate(in Input) error {
	fields := map[string]string{}
	if !in.Category.Valid() {
		fields["category"] = "unknown value \"" + string(in.Category) + "\""
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Notes)) < MinNotesLength {
		fields["notes"] = "must be at least 20 characters"
	}
	if len(fields) > 0 {
		return apperr.Validation("rejection.Validate", fields)
	}
	return nil
}

// Reject moves c to REJECTED and attaches a new reason. The caller supplies
// the reason id and authorizes the actor. Rejecting an already rejected
// candidate is a Conflict; the first reason is kept.
func Reject(c *model.Candidate, id string, in Input, actorID string, now time.Time) (model.RejectionReason, error) {
	if err := Validate(in); err != nil {
		return model.RejectionReason{}, err
	}
	if c.CurrentStage == model.StageRejected || c.Rejection != nil {
		return model.RejectionReason{}, apperr.NewKind("rejection.Reject", apperr.ErrConflict,
			"candidate %s is already rejected", c.ID)
	}

	reason := model.RejectionReason{
		ID:          id,
		CandidateID: c.ID,
		Category:    in.Category,
		Notes:       strings.TrimSpace(in.Notes),
		RejectedBy:  actorID,
		CreatedAt:   now,
	}
	c.CurrentStage = model.StageRejected
	c.StageUpdatedAt = now
	c.UpdatedAt = now
	c.Rejection = &reason
	return reason, nil
}
