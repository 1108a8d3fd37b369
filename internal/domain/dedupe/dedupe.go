// Package dedupe collapses duplicate pending work keyed by entity id.
//
// The sync pipeline records a candidate id when it enqueues a spreadsheet
// sync and unrecords it once the worker is done, so a burst of edits to the
// same candidate produces one pending sync instead of many.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is pending and records it
	// if not. Returns true if key was already pending.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key so the next SeenAndRecord records it again.
	Unrecord(ctx context.Context, key string)

	// Pending reports whether key is currently recorded.
	Pending(key string) bool

	Size() int64
}

// inMemoryDeduper keeps keys in insertion order. When bounded and full, the
// oldest key is evicted; a key evicted while its work is still queued may be
// enqueued once more, which the sync pipeline tolerates.
type inMemoryDeduper struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int        // <= 0 means unbounded
}

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many keys stay pending at once. Zero or a negative
// value removes the cap.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) { d.maxSize = maxSize }
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		keys:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.keys, oldest.Value.(string))
	}
	d.keys[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
	}
}

func (d *inMemoryDeduper) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.keys[key]
	return ok
}

// Size returns the number of recorded keys.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
