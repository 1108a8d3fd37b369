package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/adapters/repository"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/interview"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeSyncer records pushes and answers with a configurable status.
type fakeSyncer struct {
	enabled bool
	fail    atomic.Bool
	calls   atomic.Int64
	clock   *fakeClock
	seq     atomic.Int64
}

func (f *fakeSyncer) Enabled() bool { return f.enabled }

func (f *fakeSyncer) Sync(_ context.Context, c *model.Candidate) model.SyncLog {
	f.calls.Add(1)
	entry := model.SyncLog{
		ID:          fmt.Sprintf("sync-%d", f.seq.Add(1)),
		CandidateID: c.ID,
		Status:      model.SyncSuccess,
		Message:     "synced",
		CreatedAt:   f.clock.Now(),
	}
	if f.fail.Load() {
		entry.Status = model.SyncFailed
		entry.Message = "webhook returned 503"
	}
	return entry
}

// brokenPurgeBackend serves reads and writes but never purges.
type brokenPurgeBackend struct {
	*cache.MemoryBackend
}

func (b brokenPurgeBackend) PurgeTag(context.Context, ...string) error {
	return errors.New("purge unavailable")
}

type fixture struct {
	svc   *service.Service
	store *repository.Store
	clock *fakeClock
	sync  *fakeSyncer

	admin       *authz.Actor
	recruiter   *authz.Actor
	manager     *authz.Actor
	interviewer *authz.Actor
	other       *authz.Actor
}

func newFixture(opts ...service.Option) *fixture {
	return newFixtureWithBackend(nil, opts...)
}

func newFixtureWithBackend(backend cache.Backend, opts ...service.Option) *fixture {
	clock := &fakeClock{now: epoch}
	if backend == nil {
		backend = cache.NewMemoryBackend(cache.WithClock(clock.Now))
	}
	store := repository.NewMemoryStore()
	syncer := &fakeSyncer{clock: clock}

	var n atomic.Int64
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithClock(clock.Now),
		service.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
		service.WithSyncer(syncer),
	}
	f := &fixture{
		svc:   service.New(store, cache.New(backend), append(base, opts...)...),
		store: store,
		clock: clock,
		sync:  syncer,
	}
	f.admin = f.user("admin", model.RoleAdmin)
	f.recruiter = f.user("recruiter", model.RoleRecruiter)
	f.manager = f.user("manager", model.RoleHiringManager)
	f.interviewer = f.user("u1", model.RoleInterviewer)
	f.other = f.user("u2", model.RoleInterviewer)
	return f
}

func (f *fixture) user(id string, role model.Role) *authz.Actor {
	u := model.User{ID: id, Name: id, Email: id + "@example.com", Role: role, Active: true, CreatedAt: epoch}
	if _, err := f.store.Users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	a := authz.FromUser(u)
	return &a
}

func (f *fixture) candidate(name string) model.Candidate {
	c, err := f.svc.CreateCandidate(context.Background(), f.recruiter, service.CandidateInput{
		Name:  name,
		Email: name + "@candidates.test",
	}, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func goodFeedback() interview.FeedbackInput {
	return interview.FeedbackInput{
		Ratings:        model.Ratings{Technical: 4, Communication: 4, ProblemSolving: 5, CultureFit: 4, Overall: 4},
		Strengths:      "clear reasoning",
		Recommendation: model.Yes,
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
