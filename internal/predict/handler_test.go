package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-sod/powersod/internal/forecast"
	"github.com/go-sod/powersod/internal/reading/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type forecasterMock struct {
	mock.Mock
}

func (m *forecasterMock) FitAndForecast(ctx context.Context, datasets []model.Dataset, horizonDays int) (*forecast.Result, error) {
	args := m.Called(datasets[0].Building, horizonDays)
	result, _ := args.Get(0).(*forecast.Result)
	return result, args.Error(1)
}

func result(v float64) *forecast.Result {
	return &forecast.Result{
		Predictions: []forecast.Prediction{{Date: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), Value: v}},
		Evaluation:  forecast.Evaluation{RMSE: 1, MAE: 1, RMSEPct: 1, MAEPct: 1},
	}
}

func send(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_ServeHTTP(t *testing.T) {
	cfg := &Config{RequestTimeout: time.Second, MaxDatasets: 10, MaxHorizonDays: 60}
	tests := []struct {
		name   string
		body   string
		setup  func(m *forecasterMock)
		status int
	}{
		{
			name: "positive_single_building",
			body: `{"datasets":[{"year":2024,"month":3,"building":"north","data":[]}],"horizon_days":7}`,
			setup: func(m *forecasterMock) {
				m.On("FitAndForecast", "north", 7).Return(result(10), nil)
			},
			status: http.StatusOK,
		},
		{
			name: "positive_many_buildings",
			body: `{"datasets":[{"year":2024,"month":3,"building":"south","data":[]},{"year":2024,"month":3,"building":"north","data":[]}]}`,
			setup: func(m *forecasterMock) {
				m.On("FitAndForecast", "north", 0).Return(result(10), nil)
				m.On("FitAndForecast", "south", 0).Return(result(20), nil)
			},
			status: http.StatusOK,
		},
		{
			name: "negative_no_valid_data",
			body: `{"datasets":[{"year":2024,"month":3,"building":"north","data":[]}]}`,
			setup: func(m *forecasterMock) {
				m.On("FitAndForecast", "north", 0).Return(nil, forecast.ErrNoValidData)
			},
			status: http.StatusNotFound,
		},
		{
			name: "negative_model_fit",
			body: `{"datasets":[{"year":2024,"month":3,"building":"north","data":[]}]}`,
			setup: func(m *forecasterMock) {
				m.On("FitAndForecast", "north", 0).Return(nil, fmt.Errorf("%w: boom", forecast.ErrModelFit))
			},
			status: http.StatusInternalServerError,
		},
		{
			name:   "negative_empty",
			body:   `{"datasets":[]}`,
			setup:  func(m *forecasterMock) {},
			status: http.StatusNotFound,
		},
		{
			name:   "negative_horizon",
			body:   `{"datasets":[],"horizon_days":400}`,
			setup:  func(m *forecasterMock) {},
			status: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := &forecasterMock{}
			test.setup(m)
			h, err := NewHandler(cfg, m)
			require.NoError(t, err)

			w := send(t, h, test.body)
			if w.Code != test.status {
				t.Fatalf("status code, got: %v, expected: %v, body: %s", w.Code, test.status, w.Body.String())
			}
			m.AssertExpectations(t)

			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if w.Code != http.StatusOK {
				assert.Contains(t, body, "error")
			}
		})
	}
}

func TestHandler_ResponseShape(t *testing.T) {
	m := &forecasterMock{}
	m.On("FitAndForecast", "north", 0).Return(result(10), nil)
	m.On("FitAndForecast", "south", 0).Return(result(20), nil)
	h, _ := NewHandler(&Config{RequestTimeout: time.Second, MaxDatasets: 10, MaxHorizonDays: 60}, m)

	w := send(t, h, `{"datasets":[{"building":"north","data":[]}]}`)
	var single struct {
		Building    string                   `json:"building"`
		Predictions []map[string]interface{} `json:"predictions"`
		Evaluation  map[string]float64       `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &single))
	assert.Equal(t, "north", single.Building)
	require.Len(t, single.Predictions, 1)
	assert.Equal(t, 10.0, single.Predictions[0]["predicted_consumption"])
	assert.Contains(t, single.Evaluation, "rmse_pct")

	w = send(t, h, `{"datasets":[{"building":"south","data":[]},{"building":"north","data":[]}]}`)
	var many struct {
		Results []struct {
			Building string `json:"building"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &many))
	require.Len(t, many.Results, 2)
	assert.Equal(t, "north", many.Results[0].Building)
	assert.Equal(t, "south", many.Results[1].Building)
}

func TestGroupByBuilding(t *testing.T) {
	v := 1.0
	groups := groupByBuilding([]model.Dataset{
		{Year: 2024, Month: 2, Building: "b"},
		{Year: 2024, Month: 1, Data: []model.Raw{{Date: "2024-01-01", Consumption: &v, Building: "a"}}},
		{Year: 2024, Month: 3, Building: "b"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].building)
	assert.Len(t, groups[1].datasets, 2)
}

func TestHandler_PartialFailure(t *testing.T) {
	m := &forecasterMock{}
	m.On("FitAndForecast", "north", 0).Return(result(10), nil)
	m.On("FitAndForecast", "south", 0).Return(nil, forecast.ErrNoValidData)
	h, _ := NewHandler(&Config{RequestTimeout: time.Second, MaxDatasets: 10, MaxHorizonDays: 60}, m)

	w := send(t, h, `{"datasets":[{"building":"south","data":[]},{"building":"north","data":[]}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m.AssertExpectations(t)

	var many struct {
		Results []struct {
			Building    string                   `json:"building"`
			Predictions []map[string]interface{} `json:"predictions"`
			Error       string                   `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &many))
	require.Len(t, many.Results, 2)

	north, south := many.Results[0], many.Results[1]
	assert.Equal(t, "north", north.Building)
	assert.Empty(t, north.Error)
	require.Len(t, north.Predictions, 1)
	assert.Equal(t, 10.0, north.Predictions[0]["predicted_consumption"])

	assert.Equal(t, "south", south.Building)
	assert.Empty(t, south.Predictions)
	assert.Contains(t, south.Error, forecast.ErrNoValidData.Error())
}

func TestHandler_Timeout(t *testing.T) {
	m := &forecasterMock{}
	m.On("FitAndForecast", "north", 0).After(200*time.Millisecond).Return(result(10), nil)
	h, _ := NewHandler(&Config{RequestTimeout: 20 * time.Millisecond, MaxDatasets: 10, MaxHorizonDays: 60}, m)

	w := send(t, h, `{"datasets":[{"building":"north","data":[]}]}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status code, got: %v, expected: %v, body: %s", w.Code, http.StatusGatewayTimeout, w.Body.String())
	}
}
