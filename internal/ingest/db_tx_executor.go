package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/reading/model"
)

// appendReadingsFn stores a batch of readings.
type appendReadingsFn func(context.Context, []model.Reading) error

type dbTxExecutorOptions struct {
	flushSize int
	flushTime time.Duration
}

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

// dbTxExecutor accumulates readings and writes them to storage in bulk,
// either when the buffer reaches flushSize or every flushTime.
type dbTxExecutor struct {
	mtx sync.Mutex

	opts       dbTxExecutorOptions
	buf        []model.Reading
	shutdownCh chan<- error
}

// shutdown writes whatever is left in the buffer.
func (tx *dbTxExecutor) shutdown(fn appendReadingsFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := fn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %w", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

func (tx *dbTxExecutor) append(ctx context.Context, reading model.Reading, fn appendReadingsFn) {
	tx.mtx.Lock()
	tx.buf = append(tx.buf, reading)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if tx.opts.flushSize > 0 && bufLen >= tx.opts.flushSize {
		go tx.bulkAppend(ctx, fn)
	}
}

func (tx *dbTxExecutor) bulkAppend(ctx context.Context, fn appendReadingsFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Reading, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if len(tmpBuf) == 0 {
		return
	}
	if err := fn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

func (tx *dbTxExecutor) flusher(ctx context.Context, fn appendReadingsFn) {
	defer func() {
		err := tx.shutdown(fn)
		if tx.shutdownCh != nil {
			tx.shutdownCh <- err
		}
	}()
	ticker := time.NewTicker(tx.opts.flushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, fn)
		case <-ctx.Done():
			return
		}
	}
}
