package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/powersod/internal/anomaly/model"
)

// Store opens a unit of work over the anomaly persistence.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single atomic batch of anomaly upserts.
type Tx interface {
	FindExisting(date time.Time, building string, method model.Method) (*model.Anomaly, error)
	// Upsert stores the record under its natural key and reports whether it was newly inserted.
	Upsert(a model.Anomaly) (bool, error)
	Commit() error
	Rollback() error
}

// StoreAnomalies upserts every record in one transaction and returns how many
// of them were new. An existing record keeps its id, creation time and status
// flags, only consumption, score and severity are refreshed.
func StoreAnomalies(ctx context.Context, store Store, anomalies []model.Anomaly) (int, error) {
	_, inserted, err := StoreNew(ctx, store, anomalies)
	return len(inserted), err
}

// StoreNew behaves like StoreAnomalies. It returns the persisted form of
// every input record, in input order, and the subset that was newly inserted.
func StoreNew(ctx context.Context, store Store, anomalies []model.Anomaly) (stored, inserted []model.Anomaly, err error) {
	tx, err := store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable begin anomaly transaction: %w", err)
	}

	stored = make([]model.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		existing, err := tx.FindExisting(a.Date, a.Building, a.Method)
		if err != nil {
			_ = tx.Rollback()
			return nil, nil, fmt.Errorf("unable find anomaly %s: %w", a.Key(), err)
		}
		if existing != nil {
			updated := *existing
			updated.Consumption = a.Consumption
			updated.DeviationScore = a.DeviationScore
			updated.Severity = a.Severity
			a = updated
		}
		isNew, err := tx.Upsert(a)
		if err != nil {
			_ = tx.Rollback()
			return nil, nil, fmt.Errorf("unable upsert anomaly %s: %w", a.Key(), err)
		}
		stored = append(stored, a)
		if isNew {
			inserted = append(inserted, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("unable commit anomalies: %w", err)
	}
	return stored, inserted, nil
}
