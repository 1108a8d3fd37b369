package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/adapters/mq/queue"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
)

// ResyncReport counts a bulk resync.
type ResyncReport struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// ListSyncLogs returns sync attempts, newest first.
func (s *Service) ListSyncLogs(ctx context.Context, actor *authz.Actor) (out []model.SyncLog, err error) {
	const uc, op = "list_sync_logs", "service.ListSyncLogs"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewSettings, authz.Resource{}); err != nil {
		return nil, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeySyncLogs, []cache.Tag{cache.TagSettings}, s.listTTL,
		func(ctx context.Context) ([]model.SyncLog, error) {
			list, err := s.store.SyncLogs.List(ctx)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
			return list, nil
		})
}

// ForceResync retries the candidate of a FAILED log entry now and returns
// the new entry. Other entries are a Conflict.
func (s *Service) ForceResync(ctx context.Context, actor *authz.Actor, logID string) (entry model.SyncLog, err error) {
	const uc, op = "force_resync", "service.ForceResync"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ForceResync, authz.Resource{}); err != nil {
		return model.SyncLog{}, err
	}
	prev, err := s.store.SyncLogs.FindByID(ctx, logID)
	if err != nil {
		return model.SyncLog{}, err
	}
	if prev.Status != model.SyncFailed {
		return model.SyncLog{}, apperr.NewKind(op, apperr.ErrConflict, "only failed syncs can be retried, %s is %s", logID, prev.Status)
	}
	return s.syncCandidate(ctx, prev.CandidateID)
}

// ResyncFailed retries every candidate whose latest sync failed.
func (s *Service) ResyncFailed(ctx context.Context, actor *authz.Actor) (rep ResyncReport, err error) {
	const uc, op = "resync_failed", "service.ResyncFailed"
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ForceResync, authz.Resource{}); err != nil {
		return ResyncReport{}, err
	}
	logs, err := s.store.SyncLogs.List(ctx)
	if err != nil {
		return ResyncReport{}, err
	}
	latest := make(map[string]model.SyncLog)
	var order []string
	for _, l := range logs {
		prev, seen := latest[l.CandidateID]
		if !seen {
			order = append(order, l.CandidateID)
		}
		if !seen || !l.CreatedAt.Before(prev.CreatedAt) {
			latest[l.CandidateID] = l
		}
	}
	for _, id := range order {
		if latest[id].Status != model.SyncFailed {
			continue
		}
		rep.Attempted++
		ictx, cancel := s.begin(ctx)
		entry, err := s.syncCandidate(ictx, id)
		cancel()
		if err != nil {
			return rep, err
		}
		if entry.Status == model.SyncSuccess {
			rep.Succeeded++
		}
	}
	return rep, nil
}

// enqueueSync schedules a background sync of a candidate. Requests for a
// candidate already waiting in the queue are coalesced; the worker reads the
// latest state. A request the queue refuses is recorded as a FAILED entry so
// it can be retried by hand.
func (s *Service) enqueueSync(ctx context.Context, candidateID, reason string) {
	if s.syncQueue == nil {
		return
	}
	if s.pending.SeenAndRecord(ctx, candidateID) {
		return
	}
	if s.syncQueue.Enqueue(ctx, queue.SyncRequest{CandidateID: candidateID, Reason: reason}) {
		return
	}
	s.pending.Unrecord(ctx, candidateID)
	s.logger.Warn(ctx, "sync queue rejected request", logger.String("candidateID", candidateID))

	entry := model.SyncLog{
		ID:          s.newID(),
		CandidateID: candidateID,
		Status:      model.SyncFailed,
		Message:     "sync could not be queued",
		CreatedAt:   s.now(),
	}
	if _, err := s.store.SyncLogs.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error(ctx, "sync log write failed", logger.Error(err))
		return
	}
	s.purge(ctx, cache.TagSettings)
}

// processSync is the worker entry point.
func (s *Service) processSync(ctx context.Context, req queue.SyncRequest) (model.SyncLog, error) {
	// Release first so writes landing during the push enqueue again.
	s.pending.Unrecord(ctx, req.CandidateID)
	return s.syncCandidate(ctx, req.CandidateID)
}

// syncCandidate pushes the stored candidate and appends the outcome.
func (s *Service) syncCandidate(ctx context.Context, candidateID string) (model.SyncLog, error) {
	var entry model.SyncLog
	c, err := s.store.Candidates.FindByID(ctx, candidateID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		entry = model.SyncLog{
			ID:          s.newID(),
			CandidateID: candidateID,
			Status:      model.SyncFailed,
			Message:     "candidate not found",
			CreatedAt:   s.now(),
		}
	case err != nil:
		return model.SyncLog{}, err
	default:
		entry = s.syncer.Sync(ctx, &c)
	}

	if _, err := s.store.SyncLogs.Create(ctx, entry); err != nil {
		return entry, fmt.Errorf("persist sync log: %w", err)
	}
	s.purge(ctx, cache.TagSettings)
	return entry, nil
}
