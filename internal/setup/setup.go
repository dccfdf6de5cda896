// Package setup turns the environment configuration into the server
// environment: storage, cache, forecasting engine and the provide functions
// of the background managers.
package setup

import (
	"context"
	"fmt"

	"github.com/go-sod/powersod/internal/alert"
	"github.com/go-sod/powersod/internal/cache"
	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/forecast"
	"github.com/go-sod/powersod/internal/ingest"
	"github.com/go-sod/powersod/internal/logging"
	readingDb "github.com/go-sod/powersod/internal/reading/database"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
	"github.com/go-sod/powersod/internal/refresh"
	"github.com/go-sod/powersod/internal/srvenv"
	"github.com/go-sod/powersod/internal/statistics"
	"github.com/kelseyhightower/envconfig"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type IngestConfigProvider interface {
	IngestConfig() *ingest.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *alert.Config
}

type RefreshConfigProvider interface {
	RefreshConfig() *refresh.Config
}

type ForecastConfigProvider interface {
	ForecastConfig() *forecast.Config
}

// Setup loads config from the environment and builds every component whose
// provider interface config implements. Components that depend on storage
// are skipped when no DatabaseConfigProvider is present.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		serverEnvOpts []srvenv.Option
		db            *database.DB
		c             cache.Cache
		stats         *statistics.Service
	)
	env := func() *srvenv.SrvEnv { return srvenv.New(serverEnvOpts...) }

	if provider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("configuring database")
		dbFromEnv, err := database.NewFromEnv(ctx, provider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if provider, ok := config.(CacheConfigProvider); ok {
		logger.Info("configuring cache")
		cfg := provider.CacheConfig()
		cacheFromEnv, err := cache.NewFromEnv(ctx, cfg)
		if err != nil {
			_ = env().Close(ctx)
			return nil, fmt.Errorf("unable to create cache: %w", err)
		}
		c = cacheFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(c))
		if db != nil {
			stats = statistics.New(readingDb.New(db), c, cfg.TTL)
			serverEnvOpts = append(serverEnvOpts, srvenv.WithStatistics(stats))
		}
	}

	if provider, ok := config.(ForecastConfigProvider); ok {
		logger.Info("configuring forecast engine")
		engine, err := forecast.NewFromConfig(provider.ForecastConfig())
		if err != nil {
			_ = env().Close(ctx)
			return nil, fmt.Errorf("unable to create forecast engine: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithForecaster(engine))
	}

	if db == nil {
		return env(), nil
	}

	if provider, ok := config.(IngestConfigProvider); ok {
		logger.Info("configuring ingest")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithIngest(ProvideIngestFor(provider, db, stats)))
	}

	if provider, ok := config.(NotifierConfigProvider); ok {
		logger.Info("configuring notifier")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(ProvideNotifierFor(provider, db)))
	}

	if provider, ok := config.(RefreshConfigProvider); ok && stats != nil {
		logger.Info("configuring statistics refresh")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRefresh(ProvideRefreshFor(provider, db, stats)))
	}

	return env(), nil
}

// ProvideIngestFor builds the ingest manager. When stats is set every flushed
// batch drops the cached aggregates it touches.
func ProvideIngestFor(provider IngestConfigProvider, db *database.DB, stats *statistics.Service) ingest.ProvideFn {
	cfg := provider.IngestConfig()
	return func(shutdownCh chan<- error) (ingest.Manager, error) {
		opts := []ingest.Option{
			ingest.WithFlushSize(cfg.FlushSize),
			ingest.WithFlushTime(cfg.FlushTime),
			ingest.WithMaxItemsStored(cfg.MaxItemsStored),
			ingest.WithMaxStorageTime(cfg.MaxStorageTime),
			ingest.WithRebuildDBTime(cfg.RebuildDBTime),
		}
		if stats != nil {
			opts = append(opts, ingest.WithFlushHook(func(ctx context.Context, readings []readingModel.Reading) {
				if err := stats.Invalidate(ctx, readings); err != nil {
					logging.FromContext(ctx).Warnf("unable invalidate statistics: %v", err)
				}
			}))
		}
		return ingest.New(db, shutdownCh, opts...)
	}
}

// ProvideNotifierFor builds the alert manager. With alerts disallowed it
// runs without targets and drops every notification.
func ProvideNotifierFor(provider NotifierConfigProvider, db *database.DB) alert.ProvideFn {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (alert.Manager, error) {
		targets := cfg.Targets
		if !cfg.AllowAlerts {
			targets = nil
		}
		return alert.New(
			db,
			shutdownCh,
			alert.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			alert.WithInterval(cfg.Interval),
			alert.WithRequestTimeout(cfg.RequestTimeout),
			alert.WithTargets(targets),
		)
	}
}

func ProvideRefreshFor(provider RefreshConfigProvider, db *database.DB, stats *statistics.Service) refresh.ProvideFn {
	cfg := provider.RefreshConfig()
	return func(shutdownCh chan<- error) (refresh.Manager, error) {
		return refresh.New(
			readingDb.New(db),
			stats,
			shutdownCh,
			refresh.WithInterval(cfg.Interval),
			refresh.WithMaxConcurrent(cfg.MaxConcurrent),
		)
	}
}
