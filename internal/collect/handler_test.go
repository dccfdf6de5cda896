package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-sod/powersod/internal/reading/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectorStub struct {
	readings []model.Reading
}

func (c *collectorStub) Collect(_ context.Context, readings ...model.Reading) error {
	c.readings = append(c.readings, readings...)
	return nil
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		accepted int
		dropped  int
	}{
		{
			name:     "positive_collect",
			body:     `{"building":"north","data":[{"date":"2024-03-02","consumption":5},{"date":"2024-03-01","consumption":4},{"date":"bad","consumption":1},{"date":"2024-03-03"}]}`,
			status:   http.StatusOK,
			accepted: 2,
			dropped:  2,
		},
		{
			name:   "negative_building",
			body:   `{"data":[]}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "negative_malformed",
			body:   `{"building":`,
			status: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := &collectorStub{}
			h, err := NewHandler(&Config{RequestTimeout: time.Second}, stub)
			require.NoError(t, err)

			r := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(test.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != test.status {
				t.Fatalf("status code, got: %v, expected: %v", w.Code, test.status)
			}
			if test.status != http.StatusOK {
				return
			}
			var resp response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, test.accepted, resp.Accepted)
			assert.Equal(t, test.dropped, resp.Dropped)
			require.Len(t, stub.readings, test.accepted)
			assert.True(t, stub.readings[0].Date.Before(stub.readings[1].Date))
			assert.Equal(t, "north", stub.readings[0].Building)
		})
	}
}
