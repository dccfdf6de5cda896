// Package srvenv holds the shared resources of a running server.
package srvenv

import (
	"context"
	"fmt"

	"github.com/go-sod/powersod/internal/alert"
	"github.com/go-sod/powersod/internal/cache"
	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/forecast"
	"github.com/go-sod/powersod/internal/ingest"
	"github.com/go-sod/powersod/internal/refresh"
	"github.com/go-sod/powersod/internal/statistics"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	cache      cache.Cache
	statistics *statistics.Service
	forecaster *forecast.Engine
	ingest     ingest.ProvideFn
	notifier   alert.ProvideFn
	refresh    refresh.ProvideFn
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() cache.Cache {
	return s.cache
}

func (s *SrvEnv) Statistics() *statistics.Service {
	return s.statistics
}

func (s *SrvEnv) Forecaster() *forecast.Engine {
	return s.forecaster
}

func (s *SrvEnv) ProvideIngest() ingest.ProvideFn {
	return s.ingest
}

func (s *SrvEnv) ProvideNotifier() alert.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ProvideRefresh() refresh.ProvideFn {
	return s.refresh
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func WithStatistics(svc *statistics.Service) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.statistics = svc
		return s
	}
}

func WithForecaster(e *forecast.Engine) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.forecaster = e
		return s
	}
}

func WithIngest(fn ingest.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.ingest = fn
		return s
	}
}

func WithNotifier(fn alert.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithRefresh(fn refresh.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.refresh = fn
		return s
	}
}

// Close releases the cache and the database. Both are attempted; the first
// error is returned.
func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var firstErr error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			firstErr = fmt.Errorf("unable close cache: %w", err)
		}
	}
	if s.database != nil {
		if err := s.database.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unable close database: %w", err)
		}
	}
	return firstErr
}
