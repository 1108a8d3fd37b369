package service

import (
	"context"
	"strings"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
)

// JobInput defines a requisition.
type JobInput struct {
	Title                string           `json:"title"`
	Department           string           `json:"department"`
	Description          string           `json:"description"`
	CoreResponsibilities []string         `json:"coreResponsibilities"`
	RequiredSkills       []string         `json:"requiredSkills"`
	InterviewPlan        []model.PlanStep `json:"interviewPlan"`
	MinExperience        int              `json:"minExperience"`
	MaxExperience        int              `json:"maxExperience"`
	Status               model.JobStatus  `json:"status"`
}

// JobPatch is a sparse job update. Nil fields are left alone.
type JobPatch struct {
	Title                *string           `json:"title"`
	Department           *string           `json:"department"`
	Description          *string           `json:"description"`
	CoreResponsibilities *[]string         `json:"coreResponsibilities"`
	RequiredSkills       *[]string         `json:"requiredSkills"`
	InterviewPlan        *[]model.PlanStep `json:"interviewPlan"`
	MinExperience        *int              `json:"minExperience"`
	MaxExperience        *int              `json:"maxExperience"`
	Status               *model.JobStatus  `json:"status"`
}

// Empty reports whether p changes nothing.
func (p JobPatch) Empty() bool {
	return p == JobPatch{}
}

func (p JobPatch) apply(j *model.Job) {
	if p.Title != nil {
		j.Title = strings.TrimSpace(*p.Title)
	}
	if p.Department != nil {
		j.Department = strings.TrimSpace(*p.Department)
	}
	if p.Description != nil {
		j.Description = strings.TrimSpace(*p.Description)
	}
	if p.CoreResponsibilities != nil {
		j.CoreResponsibilities = cleanList(*p.CoreResponsibilities)
	}
	if p.RequiredSkills != nil {
		j.RequiredSkills = cleanList(*p.RequiredSkills)
	}
	if p.InterviewPlan != nil {
		j.InterviewPlan = append([]model.PlanStep(nil), (*p.InterviewPlan)...)
	}
	if p.MinExperience != nil {
		j.MinExperience = *p.MinExperience
	}
	if p.MaxExperience != nil {
		j.MaxExperience = *p.MaxExperience
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
}

// CreateJob opens a requisition. Status defaults to OPEN.
func (s *Service) CreateJob(ctx context.Context, actor *authz.Actor, in JobInput) (j model.Job, err error) {
	const uc, op = "create_job", "service.CreateJob"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageJob, authz.Resource{}); err != nil {
		return model.Job{}, err
	}
	now := s.now()
	j = model.Job{
		ID:                   s.newID(),
		Title:                strings.TrimSpace(in.Title),
		Department:           strings.TrimSpace(in.Department),
		Description:          strings.TrimSpace(in.Description),
		CoreResponsibilities: cleanList(in.CoreResponsibilities),
		RequiredSkills:       cleanList(in.RequiredSkills),
		InterviewPlan:        in.InterviewPlan,
		MinExperience:        in.MinExperience,
		MaxExperience:        in.MaxExperience,
		Status:               in.Status,
		CreatedByID:          actor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if j.Status == "" {
		j.Status = model.JobOpen
	}
	if err := j.Validate(); err != nil {
		return model.Job{}, err
	}

	created, err := s.store.Jobs.Create(ctx, j)
	if err != nil {
		return model.Job{}, err
	}
	s.purge(ctx, cache.JobTag(created.ID), cache.TagJobs)
	return created, nil
}

// UpdateJob applies a patch. An empty patch returns the current state.
func (s *Service) UpdateJob(ctx context.Context, actor *authz.Actor, id string, patch JobPatch) (j model.Job, err error) {
	const uc, op = "update_job", "service.UpdateJob"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageJob, authz.Resource{}); err != nil {
		return model.Job{}, err
	}

	unlock := s.locks.Lock("job:" + id)
	defer unlock()

	current, err := s.job(ctx, id)
	if err != nil || patch.Empty() {
		return current, err
	}
	next := current
	patch.apply(&next)
	if err := next.Validate(); err != nil {
		return model.Job{}, err
	}

	updated, err := s.store.Jobs.Update(ctx, id, func(stored *model.Job) error {
		patch.apply(stored)
		stored.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return model.Job{}, err
	}
	s.purge(ctx, cache.JobTag(id), cache.TagJobs)
	return updated, nil
}

// DeleteJob removes a job no live candidate references.
func (s *Service) DeleteJob(ctx context.Context, actor *authz.Actor, id string) (err error) {
	const uc, op = "delete_job", "service.DeleteJob"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageJob, authz.Resource{}); err != nil {
		return err
	}

	unlock := s.locks.Lock("job:" + id)
	defer unlock()

	if _, err := s.job(ctx, id); err != nil {
		return err
	}
	live, err := s.liveCandidates(ctx)
	if err != nil {
		return err
	}
	refs := 0
	for _, c := range live {
		if c.JobID == id {
			refs++
		}
	}
	if refs > 0 {
		return apperr.NewKind(op, apperr.ErrConflict, "job %s is referenced by %d candidates", id, refs)
	}
	if err := s.store.Jobs.Delete(ctx, id); err != nil {
		return err
	}
	s.purge(ctx, cache.JobTag(id), cache.TagJobs)
	return nil
}

// GetJob returns one job.
func (s *Service) GetJob(ctx context.Context, actor *authz.Actor, id string) (j model.Job, err error) {
	const uc, op = "get_job", "service.GetJob"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return model.Job{}, err
	}
	return s.job(ctx, id)
}

// ListJobs returns every job in creation order.
func (s *Service) ListJobs(ctx context.Context, actor *authz.Actor) (out []model.Job, err error) {
	const uc, op = "list_jobs", "service.ListJobs"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeyJobs, []cache.Tag{cache.TagJobs}, s.listTTL, s.store.Jobs.List)
}

func (s *Service) job(ctx context.Context, id string) (model.Job, error) {
	return cache.GetCached(ctx, s.cache, cache.JobKey(id), []cache.Tag{cache.JobTag(id)}, s.detailTTL,
		func(ctx context.Context) (model.Job, error) {
			return s.store.Jobs.FindByID(ctx, id)
		})
}
