// Package cache stores XDR encoded aggregates with a TTL, in Redis or in
// process memory.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"time"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/powersod/internal/logging"
)

type Cache interface {
	// Get returns the stored value and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

type ProvideFn func(context.Context) (Cache, error)

// NewFromEnv connects to Redis, or falls back to an in-process cache when no
// address is configured.
func NewFromEnv(ctx context.Context, cfg *Config) (Cache, error) {
	logger := logging.FromContext(ctx)
	if cfg.RedisAddr == "" {
		logger.Infof("redis address is not set, using in-memory cache")
		return NewMemory(), nil
	}
	logger.Infof("creating redis connection, addr: %s", cfg.RedisAddr)
	return NewRedis(ctx, cfg)
}

// Encode serializes v with XDR.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("xdr marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes XDR data into v, which must be a pointer.
func Decode(data []byte, v interface{}) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("xdr unmarshal: %w", err)
	}
	return nil
}
