package cache

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 256

// Backend stores encoded entries with tags and a TTL. Implementations must
// make Get, Set and PurgeTag individually atomic.
type Backend interface {
	// Get returns the live value under key. ok is false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set stores val under key for ttl and registers it with every tag.
	Set(ctx context.Context, key string, val []byte, tags []string, ttl time.Duration) error
	// PurgeTag removes every entry registered with any of tags.
	PurgeTag(ctx context.Context, tags ...string) error
	Close() error
}

type memEntry struct {
	val     []byte
	expires time.Time
	tags    []string
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	byTag   map[string]map[string]struct{}
	now     func() time.Time
	sets    int
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		entries: make(map[string]memEntry),
		byTag:   make(map[string]map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, val []byte, tags []string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	m.entries[key] = memEntry{val: val, expires: m.now().Add(ttl), tags: tags}
	for _, t := range tags {
		keys := m.byTag[t]
		if keys == nil {
			keys = make(map[string]struct{})
			m.byTag[t] = keys
		}
		keys[key] = struct{}{}
	}

	m.sets++
	if m.sets%sweepEvery == 0 {
		m.sweepLocked()
	}
	return nil
}

func (m *MemoryBackend) PurgeTag(_ context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range tags {
		for key := range m.byTag[t] {
			m.removeLocked(key)
		}
		delete(m.byTag, t)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryBackend) Close() error { return nil }

// removeLocked drops key and its tag registrations. Caller holds mu.
func (m *MemoryBackend) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, t := range e.tags {
		if keys := m.byTag[t]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byTag, t)
			}
		}
	}
}

func (m *MemoryBackend) sweepLocked() {
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expires) {
			m.removeLocked(key)
		}
	}
}
