// Package statistics serves monthly consumption aggregates per building
// through a read-through cache.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/powersod/internal/cache"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/metrics"
	"github.com/go-sod/powersod/internal/reading/model"
	"github.com/go-sod/powersod/internal/stats"
)

var ErrNoReadings = errors.New("no readings found for the period")

// ReadingFinder loads the readings of a building over [from, to).
type ReadingFinder interface {
	FindByBuilding(ctx context.Context, building string, from, to time.Time) ([]model.Reading, error)
}

// Monthly is the aggregate of one building over a month, or over a whole
// year when Month is 0.
type Monthly struct {
	Building string `json:"building"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	stats.Summary
}

// cached is the XDR representation of Monthly.
type cached struct {
	Building string
	Year     int64
	Month    int64
	Mean     float64
	Highest  float64
	Lowest   float64
	Median   float64
	Total    float64
	Count    int64
}

func toCached(m Monthly) cached {
	return cached{
		Building: m.Building,
		Year:     int64(m.Year),
		Month:    int64(m.Month),
		Mean:     m.Mean,
		Highest:  m.Highest,
		Lowest:   m.Lowest,
		Median:   m.Median,
		Total:    m.Total,
		Count:    int64(m.Count),
	}
}

func (c cached) monthly() Monthly {
	return Monthly{
		Building: c.Building,
		Year:     int(c.Year),
		Month:    int(c.Month),
		Summary: stats.Summary{
			Mean:    c.Mean,
			Highest: c.Highest,
			Lowest:  c.Lowest,
			Median:  c.Median,
			Total:   c.Total,
			Count:   int(c.Count),
		},
	}
}

// Key is the cache key of a building period, "stats:<building>:<YYYY-MM>",
// or "stats:<building>:<YYYY>" for a whole year.
func Key(building string, year, month int) string {
	if month == 0 {
		return fmt.Sprintf("stats:%s:%04d", building, year)
	}
	return fmt.Sprintf("stats:%s:%04d-%02d", building, year, month)
}

func New(readings ReadingFinder, c cache.Cache, ttl time.Duration) *Service {
	return &Service{readings: readings, cache: c, ttl: ttl}
}

type Service struct {
	readings ReadingFinder
	cache    cache.Cache
	ttl      time.Duration
}

// Monthly returns the cached aggregate or computes and stores it.
func (s *Service) Monthly(ctx context.Context, building string, year, month int) (Monthly, error) {
	logger := logging.FromContext(ctx)
	key := Key(building, year, month)

	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("unable read cache %s: %v", key, err)
	}
	if ok {
		var c cached
		if err := cache.Decode(b, &c); err == nil {
			metrics.RecordCacheLookup(ctx, true)
			return c.monthly(), nil
		}
		logger.Warnf("unable decode cached %s: %v", key, err)
	}
	metrics.RecordCacheLookup(ctx, false)

	return s.Refresh(ctx, building, year, month)
}

// Refresh recomputes the aggregate from storage and overwrites the cache.
func (s *Service) Refresh(ctx context.Context, building string, year, month int) (Monthly, error) {
	if month < 0 || month > 12 {
		return Monthly{}, fmt.Errorf("month must be in [0, 12], got %d", month)
	}
	from, to := model.MonthRange(year, month)
	readings, err := s.readings.FindByBuilding(ctx, building, from, to)
	if err != nil {
		return Monthly{}, fmt.Errorf("unable load readings: %w", err)
	}
	if len(readings) == 0 {
		return Monthly{}, ErrNoReadings
	}

	m := Monthly{
		Building: building,
		Year:     year,
		Month:    month,
		Summary:  stats.Summarize(model.Consumptions(readings)),
	}

	b, err := cache.Encode(toCached(m))
	if err != nil {
		return Monthly{}, err
	}
	if err := s.cache.Set(ctx, Key(building, year, month), b, s.ttl); err != nil {
		logging.FromContext(ctx).Warnf("unable write cache: %v", err)
	}
	return m, nil
}

// Invalidate drops the month and year aggregates touched by readings.
func (s *Service) Invalidate(ctx context.Context, readings []model.Reading) error {
	seen := map[string]struct{}{}
	var keys []string
	for _, r := range readings {
		for _, k := range []string{
			Key(r.Building, r.Date.Year(), int(r.Date.Month())),
			Key(r.Building, r.Date.Year(), 0),
		} {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	return s.cache.Delete(ctx, keys...)
}
