package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/powersod/internal/logging"
	readingDb "github.com/go-sod/powersod/internal/reading/database"
	"github.com/go-sod/powersod/internal/reading/model"
)

type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
	now            func() time.Time
}

type (
	deleteReadingsFn   func(context.Context, []model.Reading) error
	filterByBuildingFn func(string, readingDb.FilterFn) ([]model.Reading, error)
	fetchBuildingsFn   func() ([]string, error)
	countByBuildingFn  func(string) (int, error)
)

// scheduleDependencies are the storage operations the retention loop uses.
type scheduleDependencies struct {
	buildings       fetchBuildingsFn
	countByBuilding countByBuildingFn
	filter          filterByBuildingFn
	delete          deleteReadingsFn
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	if config.now == nil {
		config.now = time.Now
	}
	return &dbScheduler{opts: config}
}

// dbScheduler trims the reading store, either to the newest maxItemsStored
// days per building or to readings younger than maxStorageTime.
type dbScheduler struct {
	opts dbSchedulerConfig
}

// processOutdatedReadings deletes readings of the building whose day is
// older than maxStorageTime.
func (s *dbScheduler) processOutdatedReadings(building string, filterFn filterByBuildingFn, deleteFn deleteReadingsFn) error {
	now := s.opts.now()
	readings, err := filterFn(building, func(r model.Reading) bool {
		return now.Sub(r.Date) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find readings by building %s: %w", building, err)
	}
	if err := deleteFn(context.Background(), readings); err != nil {
		return fmt.Errorf("unable delete outdated readings of building %s: %w", building, err)
	}
	return nil
}

// processOverSizeReadings deletes the oldest readings of the building so that
// maxItemsStored remain. Readings come back from storage in day order.
func (s *dbScheduler) processOverSizeReadings(building string, filterFn filterByBuildingFn, deleteFn deleteReadingsFn) error {
	readings, err := filterFn(building, nil)
	if err != nil {
		return fmt.Errorf("unable find readings by building %s: %w", building, err)
	}
	if len(readings) <= s.opts.maxItemsStored {
		return nil
	}
	if err := deleteFn(context.Background(), readings[:len(readings)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize readings of building %s: %w", building, err)
	}
	return nil
}

func (s *dbScheduler) rebuildOutdated(deps scheduleDependencies) error {
	buildings, err := deps.buildings()
	if err != nil {
		return fmt.Errorf("unable fetch buildings: %w", err)
	}
	for i := range buildings {
		if err := s.processOutdatedReadings(buildings[i], deps.filter, deps.delete); err != nil {
			return fmt.Errorf("unable process readings: %w", err)
		}
	}
	return nil
}

func (s *dbScheduler) rebuildSize(deps scheduleDependencies) error {
	buildings, err := deps.buildings()
	if err != nil {
		return fmt.Errorf("unable fetch buildings: %w", err)
	}
	for i := range buildings {
		length, err := deps.countByBuilding(buildings[i])
		if err != nil {
			return fmt.Errorf("unable count by building %s: %w", buildings[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeReadings(buildings[i], deps.filter, deps.delete); err != nil {
				return fmt.Errorf("unable process readings: %w", err)
			}
		}
	}
	return nil
}

func (s *dbScheduler) schedule(ctx context.Context, deps scheduleDependencies) {
	logger := logging.FromContext(ctx)
	if s.opts.rebuildDBTime <= 0 || (s.opts.maxItemsStored <= 0 && s.opts.maxStorageTime <= 0) {
		return
	}
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(deps); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(deps); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
