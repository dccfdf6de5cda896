package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestNewFromEnv(t *testing.T) {
	ctx := context.Background()
	db, err := NewFromEnv(ctx, &Config{FileName: filepath.Join(t.TempDir(), "test.db"), Timeout: time.Second})
	if err != nil {
		t.Fatalf("open db, got: %v, expected: nil", err)
	}

	if err := db.DB.Update(func(tx *bolt.Tx) error {
		b, err := EnsureBucket(tx, "readings")
		if err != nil {
			return err
		}
		if _, err := EnsureBucket(tx, "readings"); err != nil {
			return err
		}
		return b.Put([]byte("k"), []byte("v"))
	}); err != nil {
		t.Fatalf("ensure bucket, got: %v, expected: nil", err)
	}

	if err := db.Close(ctx); err != nil {
		t.Errorf("close db, got: %v, expected: nil", err)
	}
}
