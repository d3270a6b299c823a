// Package worker runs the pool that applies queued ledger updates.
package worker

import (
	"time"

	"github.com/nebulon/tierd/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker or Pool.
type Option func(*settings)

type settings struct {
	name          string
	logger        logger.Logger
	updateTimeout time.Duration
	onDone        func(u Update, err error)
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUpdateTimeout bounds a single ledger call.
func WithUpdateTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.updateTimeout = d
		}
	}
}

// WithOnDone registers a hook called after every update attempt.
func WithOnDone(fn func(u Update, err error)) Option {
	return func(s *settings) {
		s.onDone = fn
	}
}
