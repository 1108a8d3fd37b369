package repository

import "time"

const (
	defaultMaxConns        = 20
	defaultMaxConnLifetime = time.Hour
)

type settings struct {
	maxConns        int32
	maxConnLifetime time.Duration
}

// Option configures a SQL-backed store.
type Option func(*settings)

// WithMaxConns caps the PostgreSQL pool size.
func WithMaxConns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxConns = int32(n)
		}
	}
}

// WithMaxConnLifetime bounds how long a pooled connection is reused.
func WithMaxConnLifetime(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.maxConnLifetime = d
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{maxConns: defaultMaxConns, maxConnLifetime: defaultMaxConnLifetime}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
