package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-sod/powersod/internal/alert/model"
	"github.com/go-sod/powersod/internal/database"
	bolt "go.etcd.io/bbolt"
)

const (
	buildingKeys = "alert:keys:"
	prefix       = "alert:"
)

type FilterFn func(alert model.Alert) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps undelivered alerts, one bucket per building keyed by alert id.
type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, alert model.Alert) error {
	bytes, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("unable marshal alert: %w", err)
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := database.EnsureBucket(tx, prefix+alert.Building)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(alert.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		keys, err := database.EnsureBucket(tx, buildingKeys)
		if err != nil {
			return err
		}
		if err := keys.Put([]byte(prefix+alert.Building), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to buildings bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) Delete(_ context.Context, alert model.Alert) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + alert.Building))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(alert.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

// FindAll returns stored alerts ordered by building. A nil filter keeps all.
func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket([]byte(buildingKeys))
		if keys == nil {
			return nil
		}
		return keys.ForEach(func(k, _ []byte) error {
			b := tx.Bucket(k)
			if b == nil {
				return nil
			}
			return b.ForEach(func(_, v []byte) error {
				var a model.Alert
				if err := json.Unmarshal(v, &a); err != nil {
					return fmt.Errorf("alert unmarshal error, %q", err)
				}
				if filter == nil || filter(a) {
					alerts = append(alerts, a)
				}
				return nil
			})
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return alerts, nil
}
