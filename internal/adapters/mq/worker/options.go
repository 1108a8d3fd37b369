package worker

import (
	"time"

	"github.com/okian/talentflow/pkg/logger"
)

// Option configures an InMemoryWorker. Pool passes its options to every
// worker it starts.
type Option func(*InMemoryWorker)

// WithName labels the worker in logs. Pool overrides it with "worker-<index>".
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the "worker" named global logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout is the deadline given to each Process call, so a stuck
// webhook cannot hold a worker forever.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}
