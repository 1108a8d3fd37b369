// Package service is the pipeline orchestrator: every use-case authorizes,
// validates, loads through the cache, applies a domain rule, persists, purges
// the affected cache tags and returns the fresh entity.
package service

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/talentflow/internal/adapters/blob"
	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/adapters/mq/queue"
	"github.com/okian/talentflow/internal/adapters/mq/worker"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/resume"
	"github.com/okian/talentflow/internal/adapters/sheets"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/dedupe"
	"github.com/okian/talentflow/internal/domain/interview"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultListTTL        = time.Minute
	defaultDetailTTL      = 5 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultQueueSize      = 1_000
	defaultDedupeSize     = 10_000
	purgeTimeout          = 2 * time.Second
)

// Syncer pushes a candidate to the spreadsheet. It never fails; the outcome
// is in the returned log entry.
type Syncer interface {
	Sync(ctx context.Context, c *model.Candidate) model.SyncLog
	Enabled() bool
}

// BlobStore keeps uploaded resumes.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (blob.Ref, error)
}

// ResumeParser extracts best-effort fields from a resume.
type ResumeParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) resume.Parsed
}

// Service implements the pipeline use-cases.
type Service struct {
	store *repository.Store
	cache *cache.Cache

	syncer     Syncer
	blobs      BlobStore
	parser     ResumeParser
	aggregator *interview.Aggregator

	now   func() time.Time
	newID func() string
	locks *keyedMutex

	listTTL        time.Duration
	detailTTL      time.Duration
	requestTimeout time.Duration

	// Background sync
	workerCount int
	queueSize   int
	dedupeSize  int
	pending     dedupe.Deduper
	syncQueue   *queue.InMemoryQueue
	workerPool  *worker.Pool

	mu      sync.Mutex
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how new entity ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithCacheTTLs sets the TTL of aggregate list views and of detail views.
func WithCacheTTLs(list, detail time.Duration) Option {
	return func(s *Service) {
		if list > 0 {
			s.listTTL = list
		}
		if detail > 0 {
			s.detailTTL = detail
		}
	}
}

// WithRequestTimeout bounds every use-case.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithSyncer sets the spreadsheet syncer.
func WithSyncer(sy Syncer) Option {
	return func(s *Service) {
		if sy != nil {
			s.syncer = sy
		}
	}
}

// WithBlobStore sets where uploaded resumes go.
func WithBlobStore(b BlobStore) Option {
	return func(s *Service) {
		if b != nil {
			s.blobs = b
		}
	}
}

// WithResumeParser sets the resume parser.
func WithResumeParser(p ResumeParser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithAggregator sets how feedback is summarized.
func WithAggregator(a *interview.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the sync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the set of candidates with a pending sync.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New constructs a Service over store and c.
func New(store *repository.Store, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		store:          store,
		cache:          c,
		syncer:         sheets.New(""),
		parser:         resume.NewParser(),
		aggregator:     interview.NewAggregator(),
		now:            time.Now,
		newID:          uuid.NewString,
		locks:          newKeyedMutex(),
		listTTL:        defaultListTTL,
		detailTTL:      defaultDetailTTL,
		requestTimeout: defaultRequestTimeout,
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		logger:         logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pending = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start launches the sync workers. Without a configured syncer nothing runs
// and candidate writes do not enqueue syncs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.syncer.Enabled() {
		s.syncQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithClock(s.now))
		s.workerPool = worker.NewPool(s.workerCount, s.syncQueue,
			worker.ProcessorFunc(s.processSync),
			worker.WithLogger(s.logger.Named("sync")),
			worker.WithJobTimeout(s.requestTimeout),
		)
		s.workerPool.Start(ctx)
	}
	s.started = true
	s.logger.Info(ctx, "pipeline service started",
		logger.Bool("sync", s.syncer.Enabled()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains pending syncs.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "pipeline service stopped")
	return nil
}

// begin applies the request timeout.
func (s *Service) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.requestTimeout)
}

// finish classifies err, records the outcome and logs internal failures.
func (s *Service) finish(ctx context.Context, usecase string, err error) error {
	if err != nil && apperr.KindOf(err) == apperr.ErrInternal && errors.Is(err, context.DeadlineExceeded) {
		err = apperr.WrapKind("service."+usecase, apperr.ErrTimeout, err)
	}
	metrics.RecordUseCase(usecase, apperr.Label(err))
	if err != nil && apperr.KindOf(err) == apperr.ErrInternal {
		metrics.RecordErrorByComponent("service", usecase)
		s.logger.Error(ctx, "use-case failed",
			logger.String("usecase", usecase),
			logger.Error(err),
		)
	}
	return err
}

// purge drops tags after a committed write. It runs even when the request
// deadline has passed; a failure is logged and the entries age out by TTL.
func (s *Service) purge(ctx context.Context, tags ...cache.Tag) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), purgeTimeout)
	defer cancel()
	if err := s.cache.PurgeTag(pctx, tags...); err != nil {
		s.logger.Error(ctx, "cache purge failed", logger.Error(err))
	}
}

// Stats is a point-in-time view of the sync pipeline.
type Stats struct {
	Started     bool `json:"started"`
	SyncEnabled bool `json:"syncEnabled"`
	QueueLength int  `json:"queueLength"`
	Workers     int  `json:"workers"`
}

// Stats reports whether the service runs and how much sync work is waiting.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Started: s.started, SyncEnabled: s.syncer.Enabled()}
	if s.syncQueue != nil {
		st.QueueLength = s.syncQueue.Len(ctx)
	}
	if s.workerPool != nil {
		st.Workers = s.workerPool.Size()
	}
	return st
}
