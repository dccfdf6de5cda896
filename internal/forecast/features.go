package forecast

import (
	"encoding/json"
	"time"

	readingModel "github.com/go-sod/powersod/internal/reading/model"
)

// Feature columns in model order.
const (
	FeatureYhat = iota
	FeatureDayOfWeek
	FeatureMonth
	FeatureLag1
	FeatureLag2
	FeatureLag3
	FeatureRollingMean3
	FeatureDiff1

	NumFeatures
)

var FeatureNames = [NumFeatures]string{
	"yhat", "day_of_week", "month", "lag_1", "lag_2", "lag_3", "rolling_mean_3", "diff_1",
}

// Point is one cleaned observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Row is a feature vector with its target. Target is zero for future rows.
type Row struct {
	Date     time.Time
	Features []float64
	Target   float64
}

// LagWindow holds the three most recent values, newest first. It is a value
// type, Push returns a new window and leaves the receiver untouched.
type LagWindow [3]float64

// NewLagWindow builds a window from the trailing values of history, oldest
// first. It needs at least three values.
func NewLagWindow(history []float64) (LagWindow, bool) {
	n := len(history)
	if n < 3 {
		return LagWindow{}, false
	}
	return LagWindow{history[n-1], history[n-2], history[n-3]}, true
}

func (w LagWindow) Push(v float64) LagWindow {
	return LagWindow{v, w[0], w[1]}
}

func (w LagWindow) Mean() float64 {
	return (w[0] + w[1] + w[2]) / 3
}

// DayOfWeek numbers Monday as 0 and Sunday as 6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// FeatureVector assembles the model input for a date from its seasonal
// baseline and the lag window of the preceding values.
func FeatureVector(date time.Time, yhat float64, w LagWindow) []float64 {
	f := make([]float64, NumFeatures)
	f[FeatureYhat] = yhat
	f[FeatureDayOfWeek] = float64(DayOfWeek(date))
	f[FeatureMonth] = float64(date.Month())
	f[FeatureLag1] = w[0]
	f[FeatureLag2] = w[1]
	f[FeatureLag3] = w[2]
	f[FeatureRollingMean3] = w.Mean()
	f[FeatureDiff1] = w[0] - w[1]
	return f
}

// BuildFeatures turns a chronological series and its aligned baselines into
// training rows. The first three points have no complete lag history and are
// dropped. Lag, rolling mean and diff only look at values strictly before the
// row date.
func BuildFeatures(points []Point, yhat []float64) []Row {
	if len(points) != len(yhat) || len(points) < 4 {
		return nil
	}
	values := make([]float64, len(points))
	for i := range points {
		values[i] = points[i].Value
	}
	rows := make([]Row, 0, len(points)-3)
	for i := 3; i < len(points); i++ {
		w, _ := NewLagWindow(values[:i])
		rows = append(rows, Row{
			Date:     points[i].Date,
			Features: FeatureVector(points[i].Date, yhat[i], w),
			Target:   points[i].Value,
		})
	}
	return rows
}

// BuildFutureFeatures builds target-less rows for dates using a fixed window.
// It is only meaningful for the first horizon step, later steps depend on
// predictions, see Forecast.
func BuildFutureFeatures(w LagWindow, dates []time.Time, yhat []float64) []Row {
	rows := make([]Row, 0, len(dates))
	for i := range dates {
		rows = append(rows, Row{Date: dates[i], Features: FeatureVector(dates[i], yhat[i], w)})
	}
	return rows
}

// Prediction is a forecast value for one future day.
type Prediction struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"predicted_consumption"`
}

type predictionJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"predicted_consumption"`
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(predictionJSON{Date: p.Date.Format(readingModel.DateLayout), Value: p.Value})
}

func (p *Prediction) UnmarshalJSON(b []byte) error {
	var raw predictionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	date, err := readingModel.ParseDate(raw.Date)
	if err != nil {
		return err
	}
	*p = Prediction{Date: date, Value: raw.Value}
	return nil
}

// Forecast folds over the dates in ascending order. Every prediction is pushed
// into the window and becomes lag_1 of the next step, so the steps cannot run
// out of order.
func Forecast(r Regressor, w LagWindow, dates []time.Time, yhat []float64) []Prediction {
	predictions := make([]Prediction, 0, len(dates))
	for i := range dates {
		p := r.Predict(FeatureVector(dates[i], yhat[i], w))
		predictions = append(predictions, Prediction{Date: dates[i], Value: p})
		w = w.Push(p)
	}
	return predictions
}

// HorizonDates returns the n days following last.
func HorizonDates(last time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = last.AddDate(0, 0, i+1)
	}
	return dates
}
