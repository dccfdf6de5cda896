package forecast

import (
	"fmt"
	"math"

	"github.com/go-sod/powersod/internal/stats"
)

// Evaluation is the error of the model on the held-out tail. The percentages
// are relative to the mean actual value of that tail.
type Evaluation struct {
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	RMSEPct float64 `json:"rmse_pct"`
	MAEPct  float64 `json:"mae_pct"`
}

func Evaluate(actual, predicted []float64) (Evaluation, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Evaluation{}, fmt.Errorf("%w: %d actual, %d predicted values", ErrInsufficientData, len(actual), len(predicted))
	}
	mean := stats.Mean(actual)
	if mean == 0 {
		return Evaluation{}, fmt.Errorf("%w: mean of the test set is zero", ErrDegenerateSeries)
	}

	rmse := math.Sqrt(meanSquaredError(actual, predicted))
	var abs float64
	for i := range actual {
		abs += math.Abs(actual[i] - predicted[i])
	}
	mae := abs / float64(len(actual))

	return Evaluation{
		RMSE:    rmse,
		MAE:     mae,
		RMSEPct: 100 * rmse / mean,
		MAEPct:  100 * mae / mean,
	}, nil
}

func meanSquaredError(actual, predicted []float64) float64 {
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}
