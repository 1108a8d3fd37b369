package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "talentflow:"
	defaultTagTTL    = 24 * time.Hour
)

// RedisBackend stores entries as plain keys with EX and keeps one Redis set
// per tag listing the keys registered with it.
type RedisBackend struct {
	client *redis.Client
	prefix string
	tagTTL time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithKeyPrefix namespaces every key and tag set.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisBackend) {
		r.prefix = prefix
	}
}

// WithTagTTL sets the minimum lifetime of a tag set. It must exceed the
// longest entry TTL or a purge can miss live keys.
func WithTagTTL(ttl time.Duration) RedisOption {
	return func(r *RedisBackend) {
		if ttl > 0 {
			r.tagTTL = ttl
		}
	}
}

// NewRedisClient builds a go-redis client.
func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

// Ping checks connectivity.
func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// NewRedisBackend wraps client. The backend owns the client and closes it.
func NewRedisBackend(client *redis.Client, opts ...RedisOption) *RedisBackend {
	r := &RedisBackend{client: client, prefix: defaultKeyPrefix, tagTTL: defaultTagTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisBackend) entryKey(key string) string { return r.prefix + "entry:" + key }
func (r *RedisBackend) tagKey(tag string) string   { return r.prefix + "tag:" + tag }

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, tags []string, ttl time.Duration) error {
	entry := r.entryKey(key)
	tagTTL := max(r.tagTTL, ttl)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, entry, val, ttl)
		for _, t := range tags {
			p.SAdd(ctx, r.tagKey(t), entry)
			p.Expire(ctx, r.tagKey(t), tagTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (r *RedisBackend) PurgeTag(ctx context.Context, tags ...string) error {
	for _, t := range tags {
		tk := r.tagKey(t)
		members, err := r.client.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("%w: members of %s: %w", ErrBackend, t, err)
		}
		_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if len(members) > 0 {
				p.Del(ctx, members...)
			}
			p.Del(ctx, tk)
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: purge %s: %w", ErrBackend, t, err)
		}
	}
	return nil
}

func (r *RedisBackend) Close() error { return r.client.Close() }
