// Package config aggregates the environment configuration of the powersod
// server.
package config

import (
	"github.com/go-sod/powersod/internal/alert"
	"github.com/go-sod/powersod/internal/analyze"
	"github.com/go-sod/powersod/internal/cache"
	"github.com/go-sod/powersod/internal/collect"
	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/forecast"
	"github.com/go-sod/powersod/internal/ingest"
	"github.com/go-sod/powersod/internal/predict"
	"github.com/go-sod/powersod/internal/refresh"
	"github.com/go-sod/powersod/internal/server"
	"github.com/go-sod/powersod/internal/setup"
	"github.com/go-sod/powersod/internal/statistics"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.CacheConfigProvider    = (*Config)(nil)
	_ setup.IngestConfigProvider   = (*Config)(nil)
	_ setup.NotifierConfigProvider = (*Config)(nil)
	_ setup.RefreshConfigProvider  = (*Config)(nil)
	_ setup.ForecastConfigProvider = (*Config)(nil)
)

type Config struct {
	Server     server.Config
	Database   database.Config
	Cache      cache.Config
	Ingest     ingest.Config
	Collect    collect.Config
	Statistics statistics.Config
	Refresh    refresh.Config
	Alert      alert.Config
	Analyze    analyze.Config
	Predict    predict.Config
	Forecast   forecast.Config
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c *Config) IngestConfig() *ingest.Config {
	return &c.Ingest
}

func (c *Config) NotifyConfig() *alert.Config {
	return &c.Alert
}

func (c *Config) RefreshConfig() *refresh.Config {
	return &c.Refresh
}

func (c *Config) ForecastConfig() *forecast.Config {
	return &c.Forecast
}
