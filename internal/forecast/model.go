package forecast

import "time"

// Regressor maps one feature vector to a consumption estimate.
type Regressor interface {
	Predict(features []float64) float64
}

// Baseline produces the seasonal expectation for arbitrary dates, including
// dates past the end of its training history.
type Baseline interface {
	Predict(dates []time.Time) []float64
}

// BaselineFitFn fits a Baseline on a chronological series.
type BaselineFitFn func(points []Point) (Baseline, error)

// PredictAll applies r to every row.
func PredictAll(r Regressor, rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = r.Predict(rows[i])
	}
	return out
}
