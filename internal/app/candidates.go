package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/pipeline"
	"github.com/okian/talentflow/pkg/logger"
)

// maxUpload bounds resumes read during intake.
const maxUpload = 10 << 20

// CandidateInput is the intake form.
type CandidateInput struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Role            string   `json:"role"`
	Company         string   `json:"company"`
	ExperienceYears int      `json:"experienceYears"`
	Skills          []string `json:"skills"`
	JobID           string   `json:"jobId"`
	RecruiterID     string   `json:"recruiterId"`
	Notes           string   `json:"notes"`
}

// Upload is a resume file sent with intake.
type Upload struct {
	Filename string
	Body     io.Reader
}

// CandidatePatch is a sparse profile update. Nil fields are left alone.
type CandidatePatch struct {
	Name            *string   `json:"name"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	Role            *string   `json:"role"`
	Company         *string   `json:"company"`
	ExperienceYears *int      `json:"experienceYears"`
	Skills          *[]string `json:"skills"`
	JobID           *string   `json:"jobId"`
	RecruiterID     *string   `json:"recruiterId"`
	Notes           *string   `json:"notes"`
}

// Empty reports whether p changes nothing.
func (p CandidatePatch) Empty() bool {
	return p == CandidatePatch{}
}

func (p CandidatePatch) apply(c *model.Candidate) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Role, p.Role)
	set(&c.Company, p.Company)
	set(&c.JobID, p.JobID)
	set(&c.RecruiterID, p.RecruiterID)
	set(&c.Notes, p.Notes)
	if p.ExperienceYears != nil {
		c.ExperienceYears = *p.ExperienceYears
	}
	if p.Skills != nil {
		c.Skills = cleanList(*p.Skills)
	}
}

// CandidateFilter narrows list results. Zero fields match everything.
type CandidateFilter struct {
	Stage model.Stage
	JobID string
}

func (f CandidateFilter) match(c model.Candidate) bool {
	return (f.Stage == "" || c.CurrentStage == f.Stage) && (f.JobID == "" || c.JobID == f.JobID)
}

// CreateCandidate registers a new applicant at APPLIED. A resume upload is
// stored and parsed; parsed fields only fill what the form left empty.
func (s *Service) CreateCandidate(ctx context.Context, actor *authz.Actor, in CandidateInput, upload *Upload) (c model.Candidate, err error) {
	const uc, op = "create_candidate", "service.CreateCandidate"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageCandidate, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}

	now := s.now()
	c = model.Candidate{
		ID:              s.newID(),
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Role:            strings.TrimSpace(in.Role),
		Company:         strings.TrimSpace(in.Company),
		ExperienceYears: in.ExperienceYears,
		Skills:          cleanList(in.Skills),
		JobID:           strings.TrimSpace(in.JobID),
		RecruiterID:     strings.TrimSpace(in.RecruiterID),
		Notes:           strings.TrimSpace(in.Notes),
		CurrentStage:    model.StageApplied,
		StageUpdatedAt:  now,
		Rounds:          []model.InterviewRound{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if c.RecruiterID == "" {
		c.RecruiterID = actor.ID
	}
	if upload != nil {
		if err := s.attachResume(ctx, &c, upload); err != nil {
			return model.Candidate{}, err
		}
	}
	if err := c.Validate(); err != nil {
		return model.Candidate{}, err
	}
	if err := s.requireJob(ctx, op, c.JobID); err != nil {
		return model.Candidate{}, err
	}

	unlock := s.locks.Lock(emailLockKey(c.Email))
	defer unlock()
	if err := s.checkCandidateEmail(ctx, op, c.Email, ""); err != nil {
		return model.Candidate{}, err
	}

	created, err := s.store.Candidates.Create(ctx, c)
	if err != nil {
		return model.Candidate{}, err
	}
	s.purge(ctx, cache.TagCandidates, cache.CandidateTag(created.ID))
	s.enqueueSync(ctx, created.ID, uc)
	return created, nil
}

// attachResume stores the upload and merges parsed fields into c.
func (s *Service) attachResume(ctx context.Context, c *model.Candidate, up *Upload) error {
	body, err := io.ReadAll(io.LimitReader(up.Body, maxUpload+1))
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	if len(body) > maxUpload {
		return apperr.Validation("service.CreateCandidate", map[string]string{"resume": "file is larger than 10MB"})
	}

	if s.blobs != nil {
		ref, err := s.blobs.Put(ctx, up.Filename, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("store resume: %w", err)
		}
		c.ResumeURL = string(ref)
	}

	parsed := s.parser.Parse(ctx, up.Filename, bytes.NewReader(body))
	if parsed.Degraded {
		s.logger.Info(ctx, "resume parsing degraded, continuing intake",
			logger.String("file", up.Filename),
			logger.String("reason", parsed.Reason),
		)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Name, parsed.Name)
	fill(&c.Email, parsed.Email)
	fill(&c.Phone, parsed.Phone)
	if len(c.Skills) == 0 {
		c.Skills = parsed.Skills
	}
	if c.ExperienceYears == 0 {
		c.ExperienceYears = parsed.ExperienceYears
	}
	return nil
}

// UpdateCandidate applies a profile patch. An empty patch returns the
// current state without writing.
func (s *Service) UpdateCandidate(ctx context.Context, actor *authz.Actor, id string, patch CandidatePatch) (c model.Candidate, err error) {
	const uc, op = "update_candidate", "service.UpdateCandidate"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageCandidate, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.candidate(ctx, id)
	if err != nil || patch.Empty() {
		return current, err
	}

	next := current
	patch.apply(&next)
	if err := next.Validate(); err != nil {
		return model.Candidate{}, err
	}
	if next.JobID != current.JobID {
		if err := s.requireJob(ctx, op, next.JobID); err != nil {
			return model.Candidate{}, err
		}
	}
	if !strings.EqualFold(next.Email, current.Email) {
		unlockEmail := s.locks.Lock(emailLockKey(next.Email))
		defer unlockEmail()
		if err := s.checkCandidateEmail(ctx, op, next.Email, id); err != nil {
			return model.Candidate{}, err
		}
	}

	updated, err := s.store.Candidates.Update(ctx, id, liveOnly(op, id), func(stored *model.Candidate) error {
		patch.apply(stored)
		stored.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return model.Candidate{}, err
	}
	s.purge(ctx, cache.CandidateTag(id), cache.TagCandidates)
	s.enqueueSync(ctx, id, uc)
	return updated, nil
}

// DeleteCandidate soft-deletes a candidate. Its record stays for audit.
func (s *Service) DeleteCandidate(ctx context.Context, actor *authz.Actor, id string) (err error) {
	const uc, op = "delete_candidate", "service.DeleteCandidate"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.DeleteCandidate, authz.Resource{}); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.candidate(ctx, id); err != nil {
		return err
	}
	_, err = s.store.Candidates.Update(ctx, id, liveOnly(op, id), func(stored *model.Candidate) error {
		now := s.now()
		stored.DeletedAt = &now
		stored.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}
	s.purge(ctx, cache.CandidateTag(id), cache.TagCandidates)
	s.enqueueSync(ctx, id, uc)
	return nil
}

// GetCandidate returns one candidate.
func (s *Service) GetCandidate(ctx context.Context, actor *authz.Actor, id string) (c model.Candidate, err error) {
	const uc, op = "get_candidate", "service.GetCandidate"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}
	return s.candidate(ctx, id)
}

// ListCandidates returns live candidates matching f in creation order.
func (s *Service) ListCandidates(ctx context.Context, actor *authz.Actor, f CandidateFilter) (out []model.Candidate, err error) {
	const uc, op = "list_candidates", "service.ListCandidates"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	all, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}
	out = make([]model.Candidate, 0, len(all))
	for _, c := range all {
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListCandidateSummaries returns the lean projection used by board views.
func (s *Service) ListCandidateSummaries(ctx context.Context, actor *authz.Actor, f CandidateFilter) (out []model.CandidateSummary, err error) {
	const uc, op = "list_candidate_summaries", "service.ListCandidateSummaries"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	all, err := cache.GetCached(ctx, s.cache, cache.KeyCandidatesLean, []cache.Tag{cache.TagCandidates}, s.listTTL,
		func(ctx context.Context) ([]model.CandidateSummary, error) {
			list, err := s.liveCandidates(ctx)
			if err != nil {
				return nil, err
			}
			lean := make([]model.CandidateSummary, 0, len(list))
			for _, c := range list {
				lean = append(lean, c.Summary())
			}
			return lean, nil
		})
	if err != nil {
		return nil, err
	}
	out = make([]model.CandidateSummary, 0, len(all))
	for _, c := range all {
		if (f.Stage == "" || c.CurrentStage == f.Stage) && (f.JobID == "" || c.JobID == f.JobID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// PipelineSummary returns per-stage counts and dwell times.
func (s *Service) PipelineSummary(ctx context.Context, actor *authz.Actor) (sum pipeline.Summary, err error) {
	const uc, op = "pipeline_summary", "service.PipelineSummary"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return pipeline.Summary{}, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeyPipelineSummary, []cache.Tag{cache.TagCandidates}, s.listTTL,
		func(ctx context.Context) (pipeline.Summary, error) {
			list, err := s.liveCandidates(ctx)
			if err != nil {
				return pipeline.Summary{}, err
			}
			return pipeline.Summarize(list, s.now()), nil
		})
}

// StalledCandidates lists active candidates stuck in their stage for longer
// than limit, longest first.
func (s *Service) StalledCandidates(ctx context.Context, actor *authz.Actor, limit time.Duration) (out []model.CandidateSummary, err error) {
	const uc, op = "stalled_candidates", "service.StalledCandidates"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, apperr.Validation(op, map[string]string{"limit": "must be positive"})
	}
	all, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Stalled(all, s.now(), limit), nil
}

// UpdateStage moves a candidate to stage. Requesting the current stage is a
// no-op that keeps StageUpdatedAt.
func (s *Service) UpdateStage(ctx context.Context, actor *authz.Actor, id string, stage model.Stage) (c model.Candidate, err error) {
	const uc, op = "update_stage", "service.UpdateStage"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ChangeStage, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}
	if !stage.Valid() {
		return model.Candidate{}, apperr.Validation(op, map[string]string{"stage": "unknown value \"" + string(stage) + "\""})
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.candidate(ctx, id)
	if err != nil {
		return model.Candidate{}, err
	}
	change, err := pipeline.ValidateStageChange(current, stage)
	if err != nil {
		return model.Candidate{}, err
	}
	if change.Noop {
		return current, nil
	}

	updated, err := s.store.Candidates.Update(ctx, id, liveOnly(op, id), func(stored *model.Candidate) error {
		change, err := pipeline.ValidateStageChange(*stored, stage)
		if err != nil {
			return err
		}
		pipeline.Apply(stored, change, s.now())
		return nil
	})
	if err != nil {
		return model.Candidate{}, err
	}
	s.purge(ctx, cache.CandidateTag(id), cache.TagCandidates)
	s.enqueueSync(ctx, id, uc)
	fields := []logger.Field{
		logger.String("candidateID", id),
		logger.String("from", string(change.From)),
		logger.String("to", string(change.To)),
	}
	if change.Backward {
		s.logger.Warn(ctx, "stage moved against pipeline order", append(fields, logger.String("actor", actor.ID))...)
	} else {
		s.logger.Debug(ctx, "stage changed", fields...)
	}
	return updated, nil
}

// candidate loads a live candidate through the detail cache.
func (s *Service) candidate(ctx context.Context, id string) (model.Candidate, error) {
	c, err := cache.GetCached(ctx, s.cache, cache.CandidateKey(id), []cache.Tag{cache.CandidateTag(id)}, s.detailTTL,
		func(ctx context.Context) (model.Candidate, error) {
			return s.store.Candidates.FindByID(ctx, id)
		})
	if err != nil {
		return model.Candidate{}, err
	}
	if c.Deleted() {
		return model.Candidate{}, apperr.NewKind("service.candidate", apperr.ErrNotFound, "candidate %s", id)
	}
	return c, nil
}

// candidates loads every live candidate through the list cache.
func (s *Service) candidates(ctx context.Context) ([]model.Candidate, error) {
	return cache.GetCached(ctx, s.cache, cache.KeyCandidates, []cache.Tag{cache.TagCandidates}, s.listTTL, s.liveCandidates)
}

func (s *Service) liveCandidates(ctx context.Context) ([]model.Candidate, error) {
	all, err := s.store.Candidates.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candidate, 0, len(all))
	for _, c := range all {
		if !c.Deleted() {
			out = append(out, c)
		}
	}
	return out, nil
}

// checkCandidateEmail fails with Conflict when another live candidate uses
// email. The caller holds the email lock.
func (s *Service) checkCandidateEmail(ctx context.Context, op, email, selfID string) error {
	all, err := s.liveCandidates(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ID != selfID && strings.EqualFold(c.Email, email) {
			return apperr.NewKind(op, apperr.ErrConflict, "a candidate with email %s already exists", email)
		}
	}
	return nil
}

// requireJob fails with NotFound when a non-empty job id is unknown.
func (s *Service) requireJob(ctx context.Context, op, jobID string) error {
	if jobID == "" {
		return nil
	}
	_, err := s.job(ctx, jobID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NewKind(op, apperr.ErrNotFound, "job %s", jobID)
	}
	return err
}

// liveOnly aborts a store mutation on a soft-deleted candidate.
func liveOnly(op, id string) repository.Mutation[model.Candidate] {
	return func(stored *model.Candidate) error {
		if stored.Deleted() {
			return apperr.NewKind(op, apperr.ErrNotFound, "candidate %s", id)
		}
		return nil
	}
}

func emailLockKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
