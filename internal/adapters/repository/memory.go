package repository

import (
	"context"
	"sort"
	"sync"
)

type memDoc struct {
	seq  int64
	body []byte
}

// memDriver keeps documents in process memory. Each store owns its maps;
// there is no package-level state.
type memDriver struct {
	mu     sync.RWMutex
	kinds  map[string]map[string]memDoc
	seq    int64
	closed bool
}

// NewMemoryStore returns a Store that lives as long as the process.
func NewMemoryStore() *Store {
	return newStore(&memDriver{kinds: make(map[string]map[string]memDoc)})
}

func (m *memDriver) get(ctx context.Context, kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	d, ok := m.kinds[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.body, nil
}

func (m *memDriver) list(ctx context.Context, kind string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	docs := make([]memDoc, 0, len(m.kinds[kind]))
	for _, d := range m.kinds[kind] {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })
	out := make([][]byte, len(docs))
	for i, d := range docs {
		out[i] = d.body
	}
	return out, nil
}

func (m *memDriver) insert(ctx context.Context, kind, id string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	docs := m.kinds[kind]
	if docs == nil {
		docs = make(map[string]memDoc)
		m.kinds[kind] = docs
	}
	if _, ok := docs[id]; ok {
		return ErrConflict
	}
	m.seq++
	docs[id] = memDoc{seq: m.seq, body: doc}
	return nil
}

func (m *memDriver) update(ctx context.Context, kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	d, ok := m.kinds[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := fn(d.body)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return d.body, nil
	}
	d.body = next
	m.kinds[kind][id] = d
	return next, nil
}

func (m *memDriver) remove(ctx context.Context, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.kinds[kind][id]; !ok {
		return ErrNotFound
	}
	delete(m.kinds[kind], id)
	return nil
}

func (m *memDriver) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.kinds = nil
	return nil
}
