// Package queue is the bounded in-memory queue feeding background
// spreadsheet syncs.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/talentflow/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1_000
)

// SyncRequest asks for the current state of a candidate to be pushed to the
// spreadsheet.
type SyncRequest struct {
	CandidateID string
	Reason      string // use-case that triggered the sync, e.g. "update_stage"
	EnqueuedAt  time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false when the queue is full or
	// closed; the request is dropped.
	Enqueue(ctx context.Context, r SyncRequest) bool

	// Dequeue returns the channel workers read from. It is closed by Close
	// once drained.
	Dequeue(ctx context.Context) <-chan SyncRequest

	// Len returns the number of pending requests.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	requests chan SyncRequest
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan SyncRequest, q.capacity)

	metrics.UpdateSyncQueueCapacity(q.capacity)
	metrics.UpdateSyncQueueSize(0)
	return q
}

// Enqueue adds a request without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r SyncRequest) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSyncDropped("closed")
		return false
	}
	if r.EnqueuedAt.IsZero() {
		r.EnqueuedAt = q.now()
	}

	select {
	case <-ctx.Done():
		metrics.RecordSyncDropped("context_cancelled")
		return false
	default:
	}

	select {
	case q.requests <- r:
		metrics.RecordSyncEnqueued()
		metrics.UpdateSyncQueueSize(len(q.requests))
		return true
	default:
		metrics.RecordSyncDropped("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan SyncRequest {
	return q.requests
}

// Len returns the number of pending requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.requests)
	metrics.UpdateSyncQueueSize(size)
	return size
}

// Close stops accepting requests. Pending requests stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
