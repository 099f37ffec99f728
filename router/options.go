package router

import (
	"time"

	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/google/uuid"
)

type Option func(*Service)

func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithLogMatchingHandlerCounts logs the number of matching handlers before
// each fan-out.
func WithLogMatchingHandlerCounts(enabled bool) Option {
	return func(s *Service) {
		s.logCounts = enabled
	}
}

// WithLifecycle gates dispatch on lifecycle reaching core.StateReady.
func WithLifecycle(lifecycle *core.Lifecycle) Option {
	return func(s *Service) {
		s.lifecycle = lifecycle
	}
}

func WithIDGenerator(generator func() string) Option {
	return func(s *Service) {
		s.newID = generator
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func defaultIDGenerator() string {
	return "dsp_" + uuid.NewString()
}
