// Package stats holds the descriptive statistics shared by the detection and
// forecasting engines.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// degenerateTolerance is the relative spread below which a series is treated
// as constant.
const degenerateTolerance = 1e-12

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// PopMeanStdDev returns the mean and the population (ddof=0) standard deviation.
func PopMeanStdDev(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(x, nil)
}

// Degenerate reports whether std is zero relative to the magnitude of mean.
func Degenerate(mean, std float64) bool {
	return std <= degenerateTolerance*math.Max(1, math.Abs(mean))
}

// Percentile returns the p-th percentile (0 <= p <= 100) using linear
// interpolation between closest ranks.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	p = math.Max(0, math.Min(100, p))
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Summary is the aggregate of a consumption window.
type Summary struct {
	Mean    float64 `json:"mean"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Median  float64 `json:"median"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

// Summarize computes the aggregate, the zero Summary for an empty slice.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return Summary{
		Mean:    stat.Mean(x, nil),
		Highest: floats.Max(x),
		Lowest:  floats.Min(x),
		Median:  percentileSorted(sorted, 50),
		Total:   floats.Sum(x),
		Count:   len(x),
	}
}
