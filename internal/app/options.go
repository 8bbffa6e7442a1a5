package service

import (
	"github.com/okian/clockery/internal/adapters/repository"
	"github.com/okian/clockery/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore selects the store kind. path is used by the sqlite store.
func WithStore(kind, path string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
		s.sqlitePath = path
	}
}

// WithRepository uses st instead of opening one. The service closes it on Stop.
func WithRepository(st repository.Store) Option {
	return func(s *Service) {
		s.injected = st
	}
}

// WithLimits sets the default and maximum leaderboard page size.
func WithLimits(defaultN, maxN int) Option {
	return func(s *Service) {
		if defaultN > 0 {
			s.defaultLimit = defaultN
		}
		if maxN > 0 {
			s.maxLimit = maxN
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
