// Package sheets pushes candidate rows to a spreadsheet webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	// maxMessage caps how much of a failed response body ends up in a SyncLog.
	maxMessage = 512
)

// Row is the JSON document posted for one candidate.
type Row struct {
	CandidateID     string    `json:"candidateId"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Role            string    `json:"role,omitempty"`
	Company         string    `json:"company,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
	Skills          string    `json:"skills,omitempty"`
	Stage           string    `json:"stage"`
	StageUpdatedAt  time.Time `json:"stageUpdatedAt"`
	JobID           string    `json:"jobId,omitempty"`
	Rounds          int       `json:"rounds"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	Deleted         bool      `json:"deleted"`
}

// RowFor flattens a candidate.
func RowFor(c *model.Candidate) Row {
	r := Row{
		CandidateID:     c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Role:            c.Role,
		Company:         c.Company,
		ExperienceYears: c.ExperienceYears,
		Skills:          strings.Join(c.Skills, ", "),
		Stage:           string(c.CurrentStage),
		StageUpdatedAt:  c.StageUpdatedAt,
		JobID:           c.JobID,
		Rounds:          len(c.Rounds),
		Deleted:         c.Deleted(),
	}
	if c.Rejection != nil {
		r.RejectionReason = string(c.Rejection.Category)
	}
	return r
}

// Syncer posts rows to a webhook. A Syncer with no URL is disabled.
type Syncer struct {
	url    string
	client *http.Client
	now    func() time.Time
	log    logger.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Syncer) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithClock sets the time source for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Syncer for url.
func New(url string, opts ...Option) *Syncer {
	s := &Syncer{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: defaultTimeout},
		now:    time.Now,
		log:    logger.Named("sheets"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a webhook URL is configured.
func (s *Syncer) Enabled() bool { return s.url != "" }

// Sync posts the candidate row and returns the log entry describing the
// outcome. It never fails; transport and HTTP errors become FAILED entries.
func (s *Syncer) Sync(ctx context.Context, c *model.Candidate) model.SyncLog {
	entry := model.SyncLog{
		ID:          uuid.NewString(),
		CandidateID: c.ID,
		Status:      model.SyncSuccess,
		CreatedAt:   s.now(),
	}
	if !s.Enabled() {
		entry.Status = model.SyncFailed
		entry.Message = "spreadsheet sync is not configured"
		return entry
	}

	if err := s.post(ctx, RowFor(c)); err != nil {
		s.log.Warn(ctx, "spreadsheet sync failed",
			logger.String("candidateID", c.ID),
			logger.Error(err),
		)
		entry.Status = model.SyncFailed
		entry.Message = truncate(err.Error())
		return entry
	}
	entry.Message = "synced"
	return entry
}

func (s *Syncer) post(ctx context.Context, row Row) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessage))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	return s[:maxMessage]
}
