package forecast

import (
	"github.com/go-sod/powersod/internal/stats"
)

// Scaler standardises every feature column to zero mean and unit variance.
// Constant columns keep a unit scale.
type Scaler struct {
	mean  []float64
	scale []float64
}

func FitScaler(x [][]float64) *Scaler {
	if len(x) == 0 {
		return &Scaler{}
	}
	cols := len(x[0])
	s := &Scaler{mean: make([]float64, cols), scale: make([]float64, cols)}
	column := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			column[i] = x[i][j]
		}
		mean, std := stats.PopMeanStdDev(column)
		s.mean[j] = mean
		s.scale[j] = std
		if stats.Degenerate(mean, std) {
			s.scale[j] = 1
		}
	}
	return s
}

func (s *Scaler) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	for j := range features {
		if j >= len(s.mean) {
			out[j] = features[j]
			continue
		}
		out[j] = (features[j] - s.mean[j]) / s.scale[j]
	}
	return out
}

func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.Transform(x[i])
	}
	return out
}
