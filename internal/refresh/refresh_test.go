package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-sod/powersod/internal/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lister []string

func (l lister) Buildings() ([]string, error) { return l, nil }

type refresherStub struct {
	mtx   sync.Mutex
	calls []string
	err   error
}

func (r *refresherStub) Refresh(_ context.Context, building string, year, month int) (statistics.Monthly, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.calls = append(r.calls, statistics.Key(building, year, month))
	return statistics.Monthly{}, r.err
}

func TestPeriods(t *testing.T) {
	got := periods(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []period{{year: 2024, month: 1}, {year: 2023, month: 12}}, got)
}

func TestManager_Refresh(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "positive_refresh"},
		{name: "positive_no_readings", err: statistics.ErrNoReadings},
		{name: "negative_refresh_error", err: errors.New("storage")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := &refresherStub{err: test.err}
			m, err := New(lister{"north", "south"}, stub, nil, WithMaxConcurrent(2))
			require.NoError(t, err)
			m.now = func() time.Time { return time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC) }

			require.NoError(t, m.refresh(context.Background()))
			assert.ElementsMatch(t, []string{
				"stats:north:2024-03", "stats:north:2024-02",
				"stats:south:2024-03", "stats:south:2024-02",
			}, stub.calls)
		})
	}
}

func TestManager_RunStop(t *testing.T) {
	shutdownCh := make(chan error, 1)
	stub := &refresherStub{}
	m, err := New(lister{"north"}, stub, shutdownCh, WithInterval(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background()))
	time.Sleep(50 * time.Millisecond)
	m.Stop()
	select {
	case err := <-shutdownCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresh manager did not stop")
	}
	stub.mtx.Lock()
	assert.NotEmpty(t, stub.calls)
	stub.mtx.Unlock()
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
	_, err = New(lister{}, &refresherStub{}, nil, WithInterval(0))
	assert.Error(t, err)
}
