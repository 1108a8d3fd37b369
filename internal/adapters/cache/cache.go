package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Cache is the read-through cache shared by every use-case.
type Cache struct {
	backend Backend
	log     logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for degraded backend reads and writes.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{backend: backend, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Loader computes a value on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// GetCached returns the live value under key or, on a miss, calls loader and
// stores its result under key with tags and ttl.
//
// Backend failures and undecodable entries count as misses. Loader errors are
// returned unchanged, except a passed deadline which becomes ErrTimeout.
// Concurrent misses on one key may each call loader; the last store wins.
func GetCached[T any](ctx context.Context, c *Cache, key Key, tags []Tag, ttl time.Duration, loader Loader[T]) (T, error) {
	const op = "cache.GetCached"
	var zero T

	if loader == nil {
		return zero, apperr.WrapKind(op, apperr.ErrInternal, ErrNoLoader)
	}
	names := tagNames(tags)
	if len(names) == 0 {
		return zero, apperr.WrapKind(op, apperr.ErrInternal, fmt.Errorf("%w: %s", ErrNoTags, key))
	}
	if err := ctx.Err(); err != nil {
		return zero, ctxError(op, err)
	}

	view := key.View()
	raw, ok, err := c.backend.Get(ctx, string(key))
	switch {
	case err != nil:
		c.degraded(ctx, "get", key, err)
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.RecordCacheHit(view)
			return v, nil
		}
		c.degraded(ctx, "decode", key, err)
	}
	metrics.RecordCacheMiss(view)

	start := time.Now()
	v, err := loader(ctx)
	metrics.RecordCacheLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return zero, ctxError(op, err)
		}
		return zero, err
	}

	enc, err := json.Marshal(v)
	if err != nil {
		c.degraded(ctx, "encode", key, err)
		return v, nil
	}
	if err := c.backend.Set(ctx, string(key), enc, names, ttl); err != nil {
		c.degraded(ctx, "set", key, err)
	}
	return v, nil
}

// PurgeTag removes every entry registered with any of tags. It returns only
// after the backend has dropped them.
func (c *Cache) PurgeTag(ctx context.Context, tags ...Tag) error {
	names := tagNames(tags)
	if len(names) == 0 {
		return nil
	}
	if err := c.backend.PurgeTag(ctx, names...); err != nil {
		metrics.RecordCacheBackendError("purge")
		return fmt.Errorf("purge %v: %w", names, err)
	}
	for _, t := range tags {
		metrics.RecordCachePurge(t.Kind())
	}
	return nil
}

// Close releases the backend.
func (c *Cache) Close() error { return c.backend.Close() }

func (c *Cache) degraded(ctx context.Context, op string, key Key, err error) {
	metrics.RecordCacheBackendError(op)
	c.log.Warn(ctx, "cache degraded to miss",
		logger.String("op", op),
		logger.String("key", string(key)),
		logger.Error(err),
	)
}

func ctxError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.WrapKind(op, apperr.ErrTimeout, err)
	}
	return apperr.WrapKind(op, apperr.ErrInternal, err)
}
