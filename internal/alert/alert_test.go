package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	anomalyModel "github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "alert.db"), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })
	return db
}

func anomalies() []anomalyModel.Anomaly {
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return []anomalyModel.Anomaly{
		anomalyModel.NewAnomaly("north", day, 500, 7, anomalyModel.SeverityCritical, anomalyModel.MethodZScore),
		anomalyModel.NewAnomaly("north", day.AddDate(0, 0, 1), 200, 3.5, anomalyModel.SeverityWarning, anomalyModel.MethodZScore),
		anomalyModel.NewAnomaly("south", day, 900, 9, anomalyModel.SeverityCritical, anomalyModel.MethodIQR),
	}
}

type receiver struct {
	mtx      sync.Mutex
	status   int
	requests []request
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	_ = json.NewDecoder(r.Body).Decode(&req)
	rc.mtx.Lock()
	defer rc.mtx.Unlock()
	rc.requests = append(rc.requests, req)
	w.WriteHeader(rc.status)
}

func TestManager_Deliver(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		expectedQueued int
	}{
		{name: "positive_deliver", status: http.StatusOK, expectedQueued: 0},
		{name: "negative_target_error", status: http.StatusInternalServerError, expectedQueued: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rc := &receiver{status: test.status}
			srv := httptest.NewServer(rc)
			defer srv.Close()

			m, err := New(newTestDB(t), nil, WithTargets(Targets{{URL: srv.URL, Building: "north"}}))
			require.NoError(t, err)
			m.Notify(anomalies()...)

			errCh := make(chan error, 10)
			m.deliver(context.Background(), errCh)

			rc.mtx.Lock()
			require.Len(t, rc.requests, 1)
			assert.Equal(t, "north", rc.requests[0].Building)
			// warnings are not queued
			assert.Len(t, rc.requests[0].Anomalies, 1)
			rc.mtx.Unlock()

			m.mtx.Lock()
			assert.Empty(t, m.alerts)
			assert.Len(t, m.retries[retryKey{target: srv.URL, building: "north"}], test.expectedQueued)
			m.mtx.Unlock()

			stored, err := m.alertDb.FindAll(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestManager_DeliverRetriesOnlyFailedTarget(t *testing.T) {
	ok := &receiver{status: http.StatusOK}
	okSrv := httptest.NewServer(ok)
	defer okSrv.Close()
	failing := &receiver{status: http.StatusServiceUnavailable}
	failingSrv := httptest.NewServer(failing)
	defer failingSrv.Close()

	m, err := New(newTestDB(t), nil, WithTargets(Targets{
		{URL: okSrv.URL, Building: "north"},
		{URL: failingSrv.URL, Building: "north"},
	}))
	require.NoError(t, err)
	m.Notify(anomalies()...)

	errCh := make(chan error, 10)
	m.deliver(context.Background(), errCh)
	require.Len(t, errCh, 1)
	<-errCh

	failing.mtx.Lock()
	failing.status = http.StatusOK
	failing.mtx.Unlock()
	m.deliver(context.Background(), errCh)
	assert.Empty(t, errCh)

	ok.mtx.Lock()
	assert.Len(t, ok.requests, 1, "accepted batch must not be sent again")
	ok.mtx.Unlock()

	failing.mtx.Lock()
	require.Len(t, failing.requests, 2)
	assert.Equal(t, failing.requests[0].Anomalies[0].ID, failing.requests[1].Anomalies[0].ID)
	failing.mtx.Unlock()

	m.mtx.Lock()
	assert.Empty(t, m.alerts)
	assert.Empty(t, m.retries)
	m.mtx.Unlock()
}

func TestManager_ShutdownReplayKeepsTarget(t *testing.T) {
	db := newTestDB(t)
	targets := Targets{{URL: "http://127.0.0.1:1"}, {URL: "http://127.0.0.1:2"}}

	m, err := New(db, nil, WithTargets(targets))
	require.NoError(t, err)
	m.requeue("http://127.0.0.1:2", "north", anomalies()[:1])
	require.NoError(t, m.shutdown())

	replayed, err := New(db, nil, WithTargets(targets))
	require.NoError(t, err)
	require.NoError(t, replayed.initialize(context.Background()))
	assert.Empty(t, replayed.alerts)
	assert.Len(t, replayed.retries[retryKey{target: "http://127.0.0.1:2", building: "north"}], 1)

	jobs := replayed.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, []string{"http://127.0.0.1:2"}, jobs[0].targets)
}

func TestManager_ShutdownReplay(t *testing.T) {
	db := newTestDB(t)
	targets := Targets{{URL: "http://127.0.0.1:1"}}

	m, err := New(db, nil, WithTargets(targets))
	require.NoError(t, err)
	m.Notify(anomalies()...)
	require.NoError(t, m.shutdown())

	stored, err := m.alertDb.FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	replayed, err := New(db, nil, WithTargets(targets))
	require.NoError(t, err)
	require.NoError(t, replayed.initialize(context.Background()))
	assert.Len(t, replayed.alerts["north"], 1)
	assert.Len(t, replayed.alerts["south"], 1)

	stored, err = replayed.alertDb.FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestManager_NotifyWithoutTargets(t *testing.T) {
	m, err := New(newTestDB(t), nil)
	require.NoError(t, err)
	m.Notify(anomalies()...)
	assert.Empty(t, m.alerts)
}

func TestTargets_Decode(t *testing.T) {
	var ts Targets
	require.NoError(t, ts.Decode(`[{"url":"http://hook","building":"north","httpConfig":{"bearerToken":"t"}}]`))
	require.Len(t, ts, 1)
	assert.Equal(t, "t", ts[0].HTTPConfig.BearerToken)
	assert.True(t, ts[0].accepts("north"))
	assert.False(t, ts[0].accepts("south"))
	assert.Error(t, ts.Decode(`{`))
}
