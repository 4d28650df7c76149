// Package worker runs detection jobs off the queue.
package worker

import (
	"github.com/okian/jamal/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithStats shares processed/failed counters between workers of a pool.
func WithStats(s *Stats) Option {
	return func(w *InMemoryWorker) {
		if s != nil {
			w.stats = s
		}
	}
}
