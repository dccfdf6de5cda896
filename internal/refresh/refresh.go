// Package refresh periodically recomputes the cached statistics of the
// current and the previous month for every known building.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/statistics"
	"github.com/go-sod/powersod/pkg/rworker"
)

type Manager interface {
	Run(context.Context) error
	Stop()
}

type ProvideFn func(chan<- error) (Manager, error)

// BuildingLister returns every building known to storage.
type BuildingLister interface {
	Buildings() ([]string, error)
}

type Refresher interface {
	Refresh(ctx context.Context, building string, year, month int) (statistics.Monthly, error)
}

type Option func(*manager)

func WithInterval(t time.Duration) Option {
	return func(m *manager) {
		m.interval = t
	}
}

func WithMaxConcurrent(n int) Option {
	return func(m *manager) {
		m.maxConcurrent = n
	}
}

func New(buildings BuildingLister, refresher Refresher, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if buildings == nil || refresher == nil {
		return nil, fmt.Errorf("refresh dependencies are not defined")
	}
	m := &manager{
		buildings:     buildings,
		refresher:     refresher,
		shutdownCh:    shutdownCh,
		interval:      15 * time.Minute,
		maxConcurrent: 8,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %v", m.interval)
	}
	if m.maxConcurrent < 1 {
		m.maxConcurrent = 1
	}
	return m, nil
}

type manager struct {
	buildings     BuildingLister
	refresher     Refresher
	shutdownCh    chan<- error
	interval      time.Duration
	maxConcurrent int
	now           func() time.Time
	cancel        func()
}

func (m *manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go func() {
		defer func() {
			if m.shutdownCh != nil {
				m.shutdownCh <- nil
			}
		}()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.refresh(ctx); err != nil {
					logging.FromContext(ctx).Errorf("unable refresh statistics: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

type period struct {
	year, month int
}

// periods returns the current and the previous month of now.
func periods(now time.Time) []period {
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := cur.AddDate(0, -1, 0)
	return []period{
		{year: cur.Year(), month: int(cur.Month())},
		{year: prev.Year(), month: int(prev.Month())},
	}
}

func (m *manager) refresh(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	buildings, err := m.buildings.Buildings()
	if err != nil {
		return fmt.Errorf("unable fetch buildings: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		for err := range errCh {
			logger.Warnf("refresh statistics: %v", err)
		}
	}()
	pool := rworker.New(m.maxConcurrent, errCh)
	for _, b := range buildings {
		for _, p := range periods(m.now()) {
			b, p := b, p
			pool.Go(func() error {
				if _, err := m.refresher.Refresh(ctx, b, p.year, p.month); err != nil && !errors.Is(err, statistics.ErrNoReadings) {
					return fmt.Errorf("building %s %04d-%02d: %w", b, p.year, p.month, err)
				}
				return nil
			})
		}
	}
	pool.Wait()
	close(errCh)
	return nil
}
