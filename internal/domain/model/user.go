package model

import (
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
)

// User is a staff member acting on the pipeline.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetID returns the user id.
func (u User) GetID() string { return u.ID }

// Validate checks user input.
func (u User) Validate() error {
	fields := map[string]string{}
	if u.Name == "" {
		fields["name"] = "required"
	}
	if u.Email == "" {
		fields["email"] = "required"
	}
	if !u.Role.Valid() {
		fields["role"] = "unknown value " + quote(string(u.Role))
	}
	if len(fields) > 0 {
		return apperr.Validation("model.User", fields)
	}
	return nil
}

// SyncLog is an append-only record of one spreadsheet sync attempt.
type SyncLog struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidateId"`
	Status      SyncStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// GetID returns the log id.
func (l SyncLog) GetID() string { return l.ID }
