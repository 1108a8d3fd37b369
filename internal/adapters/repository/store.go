// Package repository is the entity store: generic CRUD collections over a
// document table, with in-memory, SQLite and PostgreSQL drivers.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
)

// Entity is anything stored by id.
type Entity interface {
	GetID() string
}

// Mutation edits an entity in place. A non-nil error aborts the update and
// is returned unchanged.
type Mutation[T any] func(*T) error

// Collection is CRUD access to one entity kind.
type Collection[T Entity] interface {
	// FindByID returns ErrNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (T, error)
	// List returns every entity in creation order.
	List(ctx context.Context) ([]T, error)
	// Create returns ErrConflict when the id is taken.
	Create(ctx context.Context, v T) (T, error)
	// Update applies muts atomically to the stored entity. With no mutations
	// it returns the current state without writing.
	Update(ctx context.Context, id string, muts ...Mutation[T]) (T, error)
	// Delete returns ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
}

// driver stores opaque JSON documents keyed by (kind, id).
type driver interface {
	get(ctx context.Context, kind, id string) ([]byte, error)
	list(ctx context.Context, kind string) ([][]byte, error)
	insert(ctx context.Context, kind, id string, doc []byte) error
	// update runs fn on the current document inside the driver's atomic
	// section. fn returning a nil document means "no change".
	update(ctx context.Context, kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error)
	remove(ctx context.Context, kind, id string) error
	close() error
}

// Entity kinds.
const (
	KindCandidate = "candidate"
	KindJob       = "job"
	KindUser      = "user"
	KindSyncLog   = "synclog"
	KindRejection = "rejection"
)

// Store bundles every collection over one driver.
type Store struct {
	Candidates Collection[model.Candidate]
	Jobs       Collection[model.Job]
	Users      Collection[model.User]
	SyncLogs   Collection[model.SyncLog]
	Rejections Collection[model.RejectionReason]

	drv driver
}

func newStore(drv driver) *Store {
	return &Store{
		Candidates: &docCollection[model.Candidate]{kind: KindCandidate, drv: drv},
		Jobs:       &docCollection[model.Job]{kind: KindJob, drv: drv},
		Users:      &docCollection[model.User]{kind: KindUser, drv: drv},
		SyncLogs:   &docCollection[model.SyncLog]{kind: KindSyncLog, drv: drv},
		Rejections: &docCollection[model.RejectionReason]{kind: KindRejection, drv: drv},
		drv:        drv,
	}
}

// Close releases the underlying driver.
func (s *Store) Close() error { return s.drv.close() }

type docCollection[T Entity] struct {
	kind string
	drv  driver
}

func (c *docCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := c.drv.get(ctx, c.kind, id)
	if err != nil {
		return zero, c.classify("FindByID", id, err)
	}
	return c.decode(doc)
}

func (c *docCollection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.drv.list(ctx, c.kind)
	if err != nil {
		return nil, c.classify("List", "", err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *docCollection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	id := v.GetID()
	if id == "" {
		return zero, apperr.NewKind("repository.Create", apperr.ErrValidation, "%s without id", c.kind)
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return zero, apperr.WrapKind("repository.Create", apperr.ErrInternal, err)
	}
	if err := c.drv.insert(ctx, c.kind, id, doc); err != nil {
		return zero, c.classify("Create", id, err)
	}
	return v, nil
}

func (c *docCollection[T]) Update(ctx context.Context, id string, muts ...Mutation[T]) (T, error) {
	var zero T
	if len(muts) == 0 {
		return c.FindByID(ctx, id)
	}

	var mutErr error
	doc, err := c.drv.update(ctx, c.kind, id, func(cur []byte) ([]byte, error) {
		v, err := c.decode(cur)
		if err != nil {
			return nil, err
		}
		for _, m := range muts {
			if err := m(&v); err != nil {
				mutErr = err
				return nil, err
			}
		}
		if v.GetID() != id {
			mutErr = apperr.NewKind("repository.Update", apperr.ErrValidation, "%s id is immutable", c.kind)
			return nil, mutErr
		}
		return json.Marshal(v)
	})
	if mutErr != nil {
		return zero, mutErr
	}
	if err != nil {
		return zero, c.classify("Update", id, err)
	}
	return c.decode(doc)
}

func (c *docCollection[T]) Delete(ctx context.Context, id string) error {
	if err := c.drv.remove(ctx, c.kind, id); err != nil {
		return c.classify("Delete", id, err)
	}
	return nil
}

func (c *docCollection[T]) decode(doc []byte) (T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, apperr.WrapKind("repository.decode", apperr.ErrInternal, fmt.Errorf("%s: %w", c.kind, err))
	}
	return v, nil
}

// classify maps driver errors onto error kinds.
func (c *docCollection[T]) classify(op, id string, err error) error {
	op = "repository." + op
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.WrapKind(op, apperr.ErrNotFound, fmt.Errorf("%s %s: %w", c.kind, id, err))
	case errors.Is(err, ErrConflict):
		return apperr.WrapKind(op, apperr.ErrConflict, fmt.Errorf("%s %s: %w", c.kind, id, err))
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.WrapKind(op, apperr.ErrTimeout, err)
	case apperr.KindOf(err) != apperr.ErrInternal:
		return err
	default:
		return apperr.WrapKind(op, apperr.ErrInternal, fmt.Errorf("%s: %w", c.kind, err))
	}
}
