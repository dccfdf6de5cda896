// Package alert delivers critical anomalies to webhook targets in batches
// per building.
package alert

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	alertDb "github.com/go-sod/powersod/internal/alert/database"
	"github.com/go-sod/powersod/internal/alert/model"
	anomalyModel "github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/database"
	"github.com/go-sod/powersod/internal/httputil"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/pkg/rworker"
)

type ProvideFn = func(chan<- error) (Manager, error)

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.interval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

// WithMinSeverity sets the lowest severity that is queued for delivery.
func WithMinSeverity(s anomalyModel.Severity) Option {
	return func(o *manager) {
		o.minSeverity = s
	}
}

// retryKey addresses a batch that one target rejected. Targets that
// accepted the batch are not sent it again.
type retryKey struct {
	target   string
	building string
}

// job is one batch together with the targets still owed it.
type job struct {
	building  string
	anomalies []anomalyModel.Anomaly
	targets   []string
}

type request struct {
	Building  string                 `json:"building"`
	Anomalies []anomalyModel.Anomaly `json:"anomalies"`
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is not created")
	}
	m := &manager{
		alertDb:              alertDb.New(db),
		shutdownCh:           shutdownCh,
		targets:              Targets{},
		clients:              map[string]*http.Client{},
		alerts:               map[string][]anomalyModel.Anomaly{},
		retries:              map[retryKey][]anomalyModel.Anomaly{},
		interval:             5 * time.Second,
		requestTimeout:       10 * time.Second,
		maxConcurrentRequest: 64,
		minSeverity:          anomalyModel.SeverityCritical,
	}
	for _, f := range opts {
		f(m)
	}
	if m.maxConcurrentRequest < 1 {
		m.maxConcurrentRequest = 1
	}
	for _, target := range m.targets {
		if _, ok := m.clients[target.URL]; ok {
			continue
		}
		client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
		if err != nil {
			return nil, fmt.Errorf("unable create client for target %s: %w", target.URL, err)
		}
		client.Timeout = m.requestTimeout
		m.clients[target.URL] = client
	}
	return m, nil
}

type Notifier interface {
	// Notify queues anomalies at or above the configured severity.
	Notify(anomalies ...anomalyModel.Anomaly)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type manager struct {
	mtx                  sync.Mutex
	alertDb              *alertDb.DB
	shutdownCh           chan<- error
	targets              Targets
	clients              map[string]*http.Client
	alerts               map[string][]anomalyModel.Anomaly
	retries              map[retryKey][]anomalyModel.Anomaly
	interval             time.Duration
	requestTimeout       time.Duration
	maxConcurrentRequest int
	minSeverity          anomalyModel.Severity
	cancel               func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	if err := m.initialize(ctx); err != nil {
		cancel()
		return fmt.Errorf("can not start alert manager: %w", err)
	}
	go m.notifier(ctx)
	return nil
}

func (m *manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) Notify(anomalies ...anomalyModel.Anomaly) {
	if len(m.targets) == 0 {
		return
	}
	m.mtx.Lock()
	for i := range anomalies {
		if anomalies[i].Severity < m.minSeverity {
			continue
		}
		m.alerts[anomalies[i].Building] = append(m.alerts[anomalies[i].Building], anomalies[i])
	}
	m.mtx.Unlock()
}

// initialize replays alerts persisted by the previous shutdown.
func (m *manager) initialize(ctx context.Context) error {
	alerts, err := m.alertDb.FindAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable fetch stored alerts: %w", err)
	}
	for i := range alerts {
		m.mtx.Lock()
		if alerts[i].Target != "" {
			key := retryKey{target: alerts[i].Target, building: alerts[i].Building}
			m.retries[key] = append(m.retries[key], alerts[i].Anomalies...)
		} else {
			m.alerts[alerts[i].Building] = append(m.alerts[alerts[i].Building], alerts[i].Anomalies...)
		}
		m.mtx.Unlock()
		if err := m.alertDb.Delete(ctx, alerts[i]); err != nil {
			return fmt.Errorf("unable delete alert on initialize: %w", err)
		}
	}
	if len(alerts) > 0 {
		logging.FromContext(ctx).Infof("replayed %d stored alerts", len(alerts))
	}
	return nil
}

// shutdown persists everything still queued.
func (m *manager) shutdown() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for building, anomalies := range m.alerts {
		if len(anomalies) == 0 {
			continue
		}
		if err := m.alertDb.Store(context.Background(), model.NewAlert(building, anomalies)); err != nil {
			return fmt.Errorf("alert shutdown: unable store alert: %w", err)
		}
		delete(m.alerts, building)
	}
	for key, anomalies := range m.retries {
		if len(anomalies) == 0 {
			continue
		}
		alert := model.NewAlert(key.building, anomalies)
		alert.Target = key.target
		if err := m.alertDb.Store(context.Background(), alert); err != nil {
			return fmt.Errorf("alert shutdown: unable store alert: %w", err)
		}
		delete(m.retries, key)
	}
	return nil
}

// take removes the queued batches and returns them as jobs. A fresh batch
// is owed to every target accepting its building, a retried one only to the
// target that rejected it.
func (m *manager) take() []job {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	jobs := make([]job, 0, len(m.alerts)+len(m.retries))
	for building, anomalies := range m.alerts {
		if len(anomalies) == 0 {
			continue
		}
		var targets []string
		for _, target := range m.targets {
			if target.accepts(building) {
				targets = append(targets, target.URL)
			}
		}
		if len(targets) == 0 {
			continue
		}
		jobs = append(jobs, job{building: building, anomalies: anomalies, targets: targets})
	}
	for key, anomalies := range m.retries {
		if len(anomalies) == 0 {
			continue
		}
		jobs = append(jobs, job{building: key.building, anomalies: anomalies, targets: []string{key.target}})
	}
	m.alerts = map[string][]anomalyModel.Anomaly{}
	m.retries = map[retryKey][]anomalyModel.Anomaly{}
	return jobs
}

// requeue puts an undelivered batch back in front of newer anomalies for
// the given target.
func (m *manager) requeue(target, building string, anomalies []anomalyModel.Anomaly) {
	key := retryKey{target: target, building: building}
	m.mtx.Lock()
	m.retries[key] = append(anomalies, m.retries[key]...)
	m.mtx.Unlock()
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	defer func() {
		err := m.shutdown()
		if m.shutdownCh != nil {
			m.shutdownCh <- err
		}
	}()
	go func() {
		for err := range errCh {
			logger.Errorf("alert error: %v", err)
		}
	}()
	defer close(errCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.deliver(ctx, errCh)
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) deliver(ctx context.Context, errCh chan<- error) {
	pool := rworker.New(m.maxConcurrentRequest, errCh)
	for _, j := range m.take() {
		j := j
		pool.Go(func() error {
			alert := model.NewAlert(j.building, j.anomalies)
			if err := m.alertDb.Store(context.Background(), alert); err != nil {
				for _, target := range j.targets {
					m.requeue(target, j.building, j.anomalies)
				}
				return fmt.Errorf("unable store alert: %w", err)
			}
			failed, err := m.send(ctx, j)
			for _, target := range failed {
				m.requeue(target, j.building, j.anomalies)
			}
			if dErr := m.alertDb.Delete(context.Background(), alert); dErr != nil && err == nil {
				err = fmt.Errorf("unable delete delivered alert: %w", dErr)
			}
			return err
		})
	}
	pool.Wait()
}

// send posts the batch to every target of the job and returns the targets
// that rejected it.
func (m *manager) send(ctx context.Context, j job) ([]string, error) {
	body := request{Building: j.building, Anomalies: j.anomalies}
	var (
		failed  []string
		lastErr error
	)
	for _, url := range j.targets {
		if err := httputil.PostJSON(ctx, m.clients[url], url, body); err != nil {
			failed = append(failed, url)
			lastErr = err
		}
	}
	if lastErr != nil {
		return failed, fmt.Errorf("alert do request error: %d of %d targets failed: %w", len(failed), len(j.targets), lastErr)
	}
	return nil, nil
}
