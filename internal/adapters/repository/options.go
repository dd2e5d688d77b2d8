package repository

import (
	"time"

	"github.com/okian/votesheet/internal/domain/validation"
	"github.com/okian/votesheet/pkg/logger"
)

// Option applies a configuration option to the SheetStore.
type Option func(*SheetStore)

// WithTopN sets how many leading ranks are highlighted.
func WithTopN(n int) Option {
	return func(s *SheetStore) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithRules sets the utilization rules.
func WithRules(r *validation.Rules) Option {
	return func(s *SheetStore) {
		if r != nil {
			s.rules = r
		}
	}
}

// WithPublisher sets the change publisher.
func WithPublisher(p Publisher) Option {
	return func(s *SheetStore) {
		s.publisher = p
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SheetStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SheetStore) {
		if now != nil {
			s.now = now
		}
	}
}
