package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/powersod/internal/anomaly"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/database"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	recordsBucket = "anomaly:records"
	// id -> natural key
	idsBucket = "anomaly:ids"
)

var ErrNotFound = errors.New("anomaly not found")

var _ anomaly.Store = (*DB)(nil)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Filter narrows FindAll. Zero values match everything, Date bounds are inclusive.
type Filter struct {
	Building     string
	Severity     model.Severity
	Method       model.Method
	Acknowledged *bool
	Cleared      *bool
	SDT          *bool
	From         time.Time
	To           time.Time
}

func (f Filter) match(a model.Anomaly) bool {
	switch {
	case f.Building != "" && a.Building != f.Building:
		return false
	case f.Severity != 0 && a.Severity != f.Severity:
		return false
	case f.Method != 0 && a.Method != f.Method:
		return false
	case f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged:
		return false
	case f.Cleared != nil && a.Cleared != *f.Cleared:
		return false
	case f.SDT != nil && a.SDT != *f.SDT:
		return false
	case !f.From.IsZero() && a.Date.Before(f.From):
		return false
	case !f.To.IsZero() && a.Date.After(f.To):
		return false
	}
	return true
}

// Begin opens a writable transaction. All upserts are visible to other
// readers only after Commit.
func (db *DB) Begin(_ context.Context) (anomaly.Tx, error) {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	records, err := database.EnsureBucket(tx, recordsBucket)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	ids, err := database.EnsureBucket(tx, idsBucket)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &Tx{tx: tx, records: records, ids: ids}, nil
}

type Tx struct {
	tx      *bolt.Tx
	records *bolt.Bucket
	ids     *bolt.Bucket
}

func (t *Tx) FindExisting(date time.Time, building string, method model.Method) (*model.Anomaly, error) {
	v := t.records.Get([]byte(model.Key(date, building, method)))
	if v == nil {
		return nil, nil
	}
	var a model.Anomaly
	if err := json.Unmarshal(v, &a); err != nil {
		return nil, fmt.Errorf("json unmarshal error, %q", err)
	}
	return &a, nil
}

func (t *Tx) Upsert(a model.Anomaly) (bool, error) {
	key := []byte(a.Key())
	inserted := t.records.Get(key) == nil
	bytes, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	if err := t.records.Put(key, bytes); err != nil {
		return false, fmt.Errorf("put to bucket error: %w", err)
	}
	if err := t.ids.Put([]byte(a.ID.String()), key); err != nil {
		return false, fmt.Errorf("put to ids bucket error: %w", err)
	}
	return inserted, nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return err
	}
	return nil
}

// FindAll returns the matching anomalies, newest date first.
func (db *DB) FindAll(_ context.Context, filter Filter) ([]model.Anomaly, error) {
	list := []model.Anomaly{}
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordsBucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var a model.Anomaly
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter.match(a) {
				list = append(list, a)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) FindByID(_ context.Context, id uuid.UUID) (model.Anomaly, error) {
	var a model.Anomaly
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		found, _, err := lookup(tx, id)
		if err != nil {
			return err
		}
		a = found
		return nil
	})
	return a, err
}

// UpdateStatus sets one operator flag of the anomaly with the given id.
func (db *DB) UpdateStatus(_ context.Context, id uuid.UUID, kind model.StatusKind, value bool) (model.Anomaly, error) {
	var updated model.Anomaly
	err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		a, key, err := lookup(tx, id)
		if err != nil {
			return err
		}
		if err := a.SetStatus(kind, value); err != nil {
			return err
		}
		bytes, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(recordsBucket)).Put(key, bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		updated = a
		return nil
	})
	return updated, err
}

func lookup(tx *bolt.Tx, id uuid.UUID) (model.Anomaly, []byte, error) {
	var a model.Anomaly
	ids, records := tx.Bucket([]byte(idsBucket)), tx.Bucket([]byte(recordsBucket))
	if ids == nil || records == nil {
		return a, nil, ErrNotFound
	}
	key := ids.Get([]byte(id.String()))
	if key == nil {
		return a, nil, ErrNotFound
	}
	v := records.Get(key)
	if v == nil {
		return a, nil, ErrNotFound
	}
	if err := json.Unmarshal(v, &a); err != nil {
		return a, nil, fmt.Errorf("json unmarshal error, %q", err)
	}
	// bolt reuses the key memory after the tx
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return a, keyCopy, nil
}
