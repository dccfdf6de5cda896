// Package ingest buffers incoming readings and writes them to the reading
// store in bulk, trimming the store to its retention limits.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/logging"
	readingDb "github.com/go-sod/powersod/internal/reading/database"
	"github.com/go-sod/powersod/internal/reading/model"
)

// ErrClosed is returned by Collect once the manager is shutting down.
var ErrClosed = fmt.Errorf("ingest manager is closed")

type ProvideFn func(chan<- error) (Manager, error)

type Collector interface {
	// Collect queues readings for storage.
	Collect(ctx context.Context, readings ...model.Reading) error
}

type Manager interface {
	Collector
	Run(context.Context) error
	Stop()
}

// FlushHook is called with every batch successfully written to storage.
type FlushHook func(ctx context.Context, readings []model.Reading)

type Option func(*manager)

func WithFlushSize(n int) Option {
	return func(m *manager) {
		m.executorOpts.flushSize = n
	}
}

func WithFlushTime(t time.Duration) Option {
	return func(m *manager) {
		m.executorOpts.flushTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(m *manager) {
		m.schedulerOpts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(m *manager) {
		m.schedulerOpts.maxStorageTime = t
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(m *manager) {
		m.schedulerOpts.rebuildDBTime = t
	}
}

func WithFlushHook(fn FlushHook) Option {
	return func(m *manager) {
		m.hooks = append(m.hooks, fn)
	}
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is not created")
	}
	m := &manager{
		readingDB:    readingDb.New(db),
		shutdownCh:   shutdownCh,
		executorOpts: dbTxExecutorOptions{flushSize: 100, flushTime: 5 * time.Second},
	}
	for _, f := range opts {
		f(m)
	}
	if m.executorOpts.flushTime <= 0 {
		return nil, fmt.Errorf("flush time must be positive, got %v", m.executorOpts.flushTime)
	}

	m.dbTxExecutor = newDBTxExecutor(m.executorOpts, shutdownCh)
	m.dbScheduler = newDBScheduler(m.schedulerOpts)
	m.deps = scheduleDependencies{
		buildings:       m.readingDB.Buildings,
		countByBuilding: m.readingDB.CountByBuilding,
		filter:          m.readingDB.FilterByBuilding,
		delete:          m.readingDB.DeleteMany,
	}
	return m, nil
}

type manager struct {
	mtx    sync.RWMutex
	closed bool

	readingDB     *readingDb.DB
	executorOpts  dbTxExecutorOptions
	schedulerOpts dbSchedulerConfig
	dbTxExecutor  *dbTxExecutor
	dbScheduler   *dbScheduler
	deps          scheduleDependencies
	hooks         []FlushHook
	shutdownCh    chan<- error

	cancel func()
}

// Run starts the flusher and the retention scheduler. The buffer is written
// out once more after ctx is done or Stop is called.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	flushCtx, cancelFlush := context.WithCancel(logging.WithLogger(context.Background(), logging.FromContext(ctx)))

	go m.dbTxExecutor.flusher(flushCtx, m.appendReadings)
	go m.dbScheduler.schedule(ctx, m.deps)
	go func() {
		<-ctx.Done()
		m.mtx.Lock()
		m.closed = true
		m.mtx.Unlock()
		cancelFlush()
	}()
	return nil
}

func (m *manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) Collect(ctx context.Context, readings ...model.Reading) error {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.closed {
		return ErrClosed
	}
	for i := range readings {
		m.dbTxExecutor.append(ctx, readings[i], m.appendReadings)
	}
	return nil
}

func (m *manager) appendReadings(ctx context.Context, readings []model.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := m.readingDB.AppendMany(ctx, readings); err != nil {
		return err
	}
	for _, hook := range m.hooks {
		hook(ctx, readings)
	}
	return nil
}
