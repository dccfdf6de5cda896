package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/reading/model"
	bolt "go.etcd.io/bbolt"
)

const (
	buildingKeys = "building:keys:"
	prefix       = "reading:"
)

type FilterFn func(reading model.Reading) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps one bucket per building. Keys are YYYY-MM-DD so cursor order is
// chronological and a later write for the same day replaces the earlier one.
type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Buildings returns every building that has ever stored a reading.
func (db *DB) Buildings() ([]string, error) {
	var buildings []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(buildingKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			buildings = append(buildings, db.extractKey(string(k)))
		}
		return nil
	})

	return buildings, err
}

func (db *DB) AppendMany(_ context.Context, readings []model.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		keys, err := database.EnsureBucket(tx, buildingKeys)
		if err != nil {
			return err
		}
		for _, reading := range readings {
			b, err := database.EnsureBucket(tx, prefix+reading.Building)
			if err != nil {
				return err
			}
			bytes, err := json.Marshal(reading)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(reading.Key()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			if err := keys.Put([]byte(prefix+reading.Building), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to buildings bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, readings []model.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, reading := range readings {
			b := tx.Bucket([]byte(prefix + reading.Building))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(reading.Key())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) CountByBuilding(building string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + building))
		if b == nil {
			return nil
		}
		length = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %w", err)
	}

	return length, nil
}

// FindByBuilding returns the readings of [from, to) in chronological order.
// A zero bound is open.
func (db *DB) FindByBuilding(_ context.Context, building string, from, to time.Time) ([]model.Reading, error) {
	var list []model.Reading
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + building))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		k, v := c.First()
		if !from.IsZero() {
			k, v = c.Seek([]byte(from.Format(model.DateLayout)))
		}
		var upper string
		if !to.IsZero() {
			upper = to.Format(model.DateLayout)
		}
		for ; k != nil; k, v = c.Next() {
			if upper != "" && string(k) >= upper {
				break
			}
			var reading model.Reading
			if err := json.Unmarshal(v, &reading); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			list = append(list, reading)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// FilterByBuilding walks every reading of the building and keeps those
// accepted by filter. A nil filter keeps everything.
func (db *DB) FilterByBuilding(building string, filter FilterFn) ([]model.Reading, error) {
	var list []model.Reading
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + building))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var reading model.Reading
			if err := json.Unmarshal(v, &reading); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(reading) {
				list = append(list, reading)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}
