package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/interview"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/rejection"
	"github.com/okian/talentflow/pkg/logger"
)

// RoundInput schedules one interview.
type RoundInput struct {
	RoundType     model.RoundType `json:"roundType"`
	InterviewerID string          `json:"interviewerId"`
	ScheduledAt   *time.Time      `json:"scheduledAt"`
}

// ScheduleRound appends the next round to a candidate. The interviewer must
// be an active user.
func (s *Service) ScheduleRound(ctx context.Context, actor *authz.Actor, candidateID string, in RoundInput) (c model.Candidate, err error) {
	const uc, op = "schedule_round", "service.ScheduleRound"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ScheduleRound, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}
	fields := map[string]string{}
	if !in.RoundType.Valid() {
		fields["roundType"] = "unknown value \"" + string(in.RoundType) + "\""
	}
	if in.InterviewerID == "" {
		fields["interviewerId"] = "required"
	}
	if len(fields) > 0 {
		return model.Candidate{}, apperr.Validation(op, fields)
	}

	interviewer, err := s.store.Users.FindByID(ctx, in.InterviewerID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !interviewer.Active) {
		return model.Candidate{}, apperr.NewKind(op, apperr.ErrNotFound, "no active user %s", in.InterviewerID)
	}
	if err != nil {
		return model.Candidate{}, err
	}

	unlock := s.locks.Lock(candidateID)
	defer unlock()

	if _, err := s.candidate(ctx, candidateID); err != nil {
		return model.Candidate{}, err
	}
	var round model.InterviewRound
	updated, err := s.store.Candidates.Update(ctx, candidateID, liveOnly(op, candidateID), func(stored *model.Candidate) error {
		r, err := interview.ScheduleRound(stored, in.RoundType, in.InterviewerID, in.ScheduledAt)
		if err != nil {
			return err
		}
		round = r
		stored.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return model.Candidate{}, err
	}
	s.purge(ctx, cache.CandidateTag(candidateID), cache.TagCandidates)
	s.enqueueSync(ctx, candidateID, uc)
	s.logger.Debug(ctx, "round scheduled",
		logger.String("candidateID", candidateID),
		logger.Int("round", round.RoundNumber),
		logger.String("interviewerID", in.InterviewerID),
	)
	return updated, nil
}

// SubmitFeedback closes round roundNumber of a candidate. Only the round's
// interviewer or an admin may submit, and only once.
func (s *Service) SubmitFeedback(ctx context.Context, actor *authz.Actor, candidateID string, roundNumber int, in interview.FeedbackInput) (c model.Candidate, err error) {
	const uc, op = "submit_feedback", "service.SubmitFeedback"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	// Authenticate first; ownership needs the round.
	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}

	unlock := s.locks.Lock(candidateID)
	defer unlock()

	current, err := s.candidate(ctx, candidateID)
	if err != nil {
		return model.Candidate{}, err
	}
	round, ok := current.Round(roundNumber)
	if !ok {
		return model.Candidate{}, apperr.NewKind(op, apperr.ErrNotFound, "round %d of candidate %s", roundNumber, candidateID)
	}
	if err := authz.Authorize(op, actor, authz.SubmitFeedback, authz.Resource{Round: round}); err != nil {
		return model.Candidate{}, err
	}

	updated, err := s.store.Candidates.Update(ctx, candidateID, liveOnly(op, candidateID), func(stored *model.Candidate) error {
		_, err := interview.SubmitFeedback(stored, roundNumber, in, *actor, s.now())
		return err
	})
	if err != nil {
		return model.Candidate{}, err
	}
	s.purge(ctx, cache.CandidateTag(candidateID), cache.TagCandidates)
	s.enqueueSync(ctx, candidateID, uc)
	return updated, nil
}

// NextPendingRound returns the lowest-numbered open round the actor may
// submit feedback for, or nil.
func (s *Service) NextPendingRound(ctx context.Context, actor *authz.Actor, candidateID string) (r *model.InterviewRound, err error) {
	const uc, op = "next_pending_round", "service.NextPendingRound"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return interview.NextPendingRoundForViewer(c, *actor), nil
}

// FeedbackSummary aggregates the feedback of a candidate.
func (s *Service) FeedbackSummary(ctx context.Context, actor *authz.Actor, candidateID string) (sum interview.Summary, err error) {
	const uc, op = "feedback_summary", "service.FeedbackSummary"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return interview.Summary{}, err
	}
	return cache.GetCached(ctx, s.cache, cache.FeedbackKey(candidateID), []cache.Tag{cache.CandidateTag(candidateID)}, s.detailTTL,
		func(ctx context.Context) (interview.Summary, error) {
			c, err := s.candidate(ctx, candidateID)
			if err != nil {
				return interview.Summary{}, err
			}
			return s.aggregator.Aggregate(c), nil
		})
}

// RejectCandidate moves a candidate to REJECTED with a categorized reason.
// Rejecting twice is a Conflict and keeps the first reason.
func (s *Service) RejectCandidate(ctx context.Context, actor *authz.Actor, candidateID string, in rejection.Input) (c model.Candidate, err error) {
	const uc, op = "reject_candidate", "service.RejectCandidate"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.RejectCandidate, authz.Resource{}); err != nil {
		return model.Candidate{}, err
	}
	if err := rejection.Validate(in); err != nil {
		return model.Candidate{}, err
	}

	unlock := s.locks.Lock(candidateID)
	defer unlock()

	if _, err := s.candidate(ctx, candidateID); err != nil {
		return model.Candidate{}, err
	}
	var reason model.RejectionReason
	updated, err := s.store.Candidates.Update(ctx, candidateID, liveOnly(op, candidateID), func(stored *model.Candidate) error {
		r, err := rejection.Reject(stored, s.newID(), in, actor.ID, s.now())
		if err != nil {
			return err
		}
		reason = r
		return nil
	})
	if err != nil {
		return model.Candidate{}, err
	}
	// The candidate carries its reason; the log record only feeds the
	// rejection log view.
	if _, err := s.store.Rejections.Create(ctx, reason); err != nil {
		s.logger.Error(ctx, "rejection log write failed",
			logger.String("candidateID", candidateID),
			logger.Error(err),
		)
	}
	s.purge(ctx, cache.CandidateTag(candidateID), cache.TagCandidates, cache.TagSettings)
	s.enqueueSync(ctx, candidateID, uc)
	return updated, nil
}

// ListRejections returns rejection records, newest first.
func (s *Service) ListRejections(ctx context.Context, actor *authz.Actor) (out []model.RejectionReason, err error) {
	const uc, op = "list_rejections", "service.ListRejections"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewSettings, authz.Resource{}); err != nil {
		return nil, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeyRejections, []cache.Tag{cache.TagSettings, cache.TagCandidates}, s.listTTL,
		func(ctx context.Context) ([]model.RejectionReason, error) {
			list, err := s.store.Rejections.List(ctx)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
			return list, nil
		})
}
