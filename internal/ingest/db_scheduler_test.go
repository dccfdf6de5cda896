package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	readingDb "github.com/go-sod/powersod/internal/reading/database"
	"github.com/go-sod/powersod/internal/reading/model"
)

func TestProcessOverSizeReadings(t *testing.T) {
	tests := []struct {
		name           string
		maxItemsStored int
		expectedErr    error
		expectedLen    int
		batch          []model.Reading
	}{
		{name: "positive_process_over_size_readings", maxItemsStored: 3, batch: batch(5), expectedLen: 2},
		{name: "positive_under_limit", maxItemsStored: 10, batch: batch(5), expectedLen: 0},
		{name: "negative_process_over_size_readings", maxItemsStored: 3, batch: batch(5), expectedErr: errors.New("test error")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var deleted []model.Reading
			scheduler := newDBScheduler(dbSchedulerConfig{maxItemsStored: test.maxItemsStored})
			err := scheduler.processOverSizeReadings(
				"test-building",
				func(s string, fn readingDb.FilterFn) ([]model.Reading, error) {
					return test.batch, test.expectedErr
				},
				func(ctx context.Context, readings []model.Reading) error {
					deleted = readings
					return nil
				},
			)
			if !errors.Is(err, test.expectedErr) {
				t.Errorf("calling the processOverSizeReadings method, err got: %v, expected: %v", err, test.expectedErr)
			}
			if len(deleted) != test.expectedLen {
				t.Errorf("calling the processOverSizeReadings method, the length of deleted data got: %v, expected: %v", len(deleted), test.expectedLen)
			}
			// the oldest days go first
			if len(deleted) > 0 && !deleted[0].Date.Equal(test.batch[0].Date) {
				t.Errorf("calling the processOverSizeReadings method, first deleted day got: %v, expected: %v", deleted[0].Date, test.batch[0].Date)
			}
		})
	}
}

func TestProcessOutdatedReadings(t *testing.T) {
	readings := batch(10)
	now := readings[9].Date.Add(12 * time.Hour)
	scheduler := newDBScheduler(dbSchedulerConfig{
		maxStorageTime: 72 * time.Hour,
		now:            func() time.Time { return now },
	})
	var deleted []model.Reading
	err := scheduler.processOutdatedReadings(
		"test-building",
		func(s string, fn readingDb.FilterFn) ([]model.Reading, error) {
			var out []model.Reading
			for _, r := range readings {
				if fn(r) {
					out = append(out, r)
				}
			}
			return out, nil
		},
		func(ctx context.Context, rs []model.Reading) error {
			deleted = rs
			return nil
		},
	)
	if err != nil {
		t.Fatalf("calling the processOutdatedReadings method, err got: %v, expected: nil", err)
	}
	// days 0..6 are more than 72h before now
	if len(deleted) != 7 {
		t.Errorf("calling the processOutdatedReadings method, the length of deleted data got: %v, expected: %v", len(deleted), 7)
	}
}

func TestRebuildSize(t *testing.T) {
	counts := map[string]int{"north": 5, "south": 2}
	var processed []string
	scheduler := newDBScheduler(dbSchedulerConfig{maxItemsStored: 3})
	err := scheduler.rebuildSize(scheduleDependencies{
		buildings:       func() ([]string, error) { return []string{"north", "south"}, nil },
		countByBuilding: func(b string) (int, error) { return counts[b], nil },
		filter: func(b string, fn readingDb.FilterFn) ([]model.Reading, error) {
			processed = append(processed, b)
			return batch(counts[b]), nil
		},
		delete: func(ctx context.Context, rs []model.Reading) error { return nil },
	})
	if err != nil {
		t.Fatalf("calling the rebuildSize method, err got: %v, expected: nil", err)
	}
	if len(processed) != 1 || processed[0] != "north" {
		t.Errorf("calling the rebuildSize method, processed got: %v, expected: %v", processed, []string{"north"})
	}
}
