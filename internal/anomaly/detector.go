// Package anomaly flags readings that deviate from the statistical norm of a
// building's consumption series.
package anomaly

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-sod/powersod/internal/anomaly/lof"
	"github.com/go-sod/powersod/internal/anomaly/model"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
	"github.com/go-sod/powersod/internal/stats"
)

const (
	// MinPoints is the smallest series that establishes a baseline.
	MinPoints = 3

	DefaultThreshold     = 3.0
	DefaultNNeighbors    = lof.DefaultKNum
	minRollingWindow     = 3
	rollingWindowDivisor = 10
)

var ErrInvalidThreshold = errors.New("threshold must be positive")

// Params tunes a detection run. Threshold drives the z-score family,
// NNeighbors and Contamination drive LOF.
type Params struct {
	Threshold     float64 `json:"threshold"`
	NNeighbors    int     `json:"n_neighbors"`
	Contamination float64 `json:"contamination"`
	// Distance selects the LOF metric, euclidean when empty.
	Distance lof.DistanceFuncType `json:"distance,omitempty"`
	// Algorithm selects the LOF neighbour search, a k-d tree when empty.
	Algorithm lof.AlgType `json:"algorithm,omitempty"`
}

func DefaultParams() Params {
	return Params{Threshold: DefaultThreshold, NNeighbors: DefaultNNeighbors}
}

// Flag is a scored point of a series.
type Flag struct {
	Index    int
	Score    float64
	Severity model.Severity
}

// Strategy scores a consumption series and returns the flagged indexes in
// ascending order.
type Strategy interface {
	Flags(values []float64, p Params) ([]Flag, error)
}

// StrategyFor resolves a detection method to its strategy.
func StrategyFor(method model.Method) (Strategy, error) {
	switch method {
	case model.MethodZScore:
		return zScore{}, nil
	case model.MethodIQR:
		return iqr{}, nil
	case model.MethodRollingMean:
		return rollingMean{}, nil
	case model.MethodLOF:
		return localOutlier{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedMethod, method)
	}
}

// Detect runs the method over the series and wraps every flagged reading into
// an anomaly. The series is sorted and deduplicated first. Fewer than
// MinPoints readings yield no anomalies.
func Detect(series []readingModel.Reading, method model.Method, p Params) ([]model.Anomaly, error) {
	strategy, err := StrategyFor(method)
	if err != nil {
		return nil, err
	}
	if method != model.MethodLOF && !(p.Threshold > 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidThreshold, p.Threshold)
	}

	series = readingModel.Normalize(series)
	if len(series) < MinPoints {
		return []model.Anomaly{}, nil
	}

	flags, err := strategy.Flags(readingModel.Consumptions(series), p)
	if err != nil {
		return nil, fmt.Errorf("%s detection: %w", method, err)
	}

	anomalies := make([]model.Anomaly, 0, len(flags))
	for _, f := range flags {
		r := series[f.Index]
		anomalies = append(anomalies, model.NewAnomaly(r.Building, r.Date, r.Consumption, f.Score, f.Severity, method))
	}
	return anomalies, nil
}

type zScore struct{}

func (zScore) Flags(values []float64, p Params) ([]Flag, error) {
	mean, std := stats.PopMeanStdDev(values)
	if stats.Degenerate(mean, std) {
		return nil, nil
	}
	var flags []Flag
	for i, x := range values {
		z := math.Abs(x-mean) / std
		if z > p.Threshold {
			flags = append(flags, Flag{Index: i, Score: z, Severity: ClassifySeverity(z, p.Threshold)})
		}
	}
	return flags, nil
}

type iqr struct{}

func (iqr) Flags(values []float64, p Params) ([]Flag, error) {
	q1 := stats.Percentile(values, 25)
	q3 := stats.Percentile(values, 75)
	spread := q3 - q1
	lower, upper := q1-p.Threshold*spread, q3+p.Threshold*spread

	mean, std := stats.PopMeanStdDev(values)
	degenerate := stats.Degenerate(mean, std)

	var flags []Flag
	for i, x := range values {
		if x >= lower && x <= upper {
			continue
		}
		// equivalent z-score keeps severity comparable across methods
		var z float64
		if !degenerate {
			z = math.Abs(x-mean) / std
		}
		flags = append(flags, Flag{Index: i, Score: z, Severity: ClassifySeverity(z, p.Threshold)})
	}
	return flags, nil
}

type rollingMean struct{}

// RollingWindow returns the trailing window size used for a series of n points.
func RollingWindow(n int) int {
	if w := n / rollingWindowDivisor; w > minRollingWindow {
		return w
	}
	return minRollingWindow
}

func (rollingMean) Flags(values []float64, p Params) ([]Flag, error) {
	window := RollingWindow(len(values))
	var flags []Flag
	for i := window; i < len(values); i++ {
		mean, std := stats.PopMeanStdDev(values[i-window : i])
		if stats.Degenerate(mean, std) {
			continue
		}
		z := math.Abs(values[i]-mean) / std
		if z > p.Threshold {
			flags = append(flags, Flag{Index: i, Score: z, Severity: ClassifySeverity(z, p.Threshold)})
		}
	}
	return flags, nil
}

type localOutlier struct{}

func (localOutlier) Flags(values []float64, p Params) ([]Flag, error) {
	k := p.NNeighbors
	if k <= 0 {
		k = DefaultNNeighbors
	}
	opts := []lof.Option{lof.WithKNum(k), lof.WithContamination(p.Contamination)}
	if p.Distance != "" {
		distFunc, err := lof.DistanceFuncFor(p.Distance)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lof.WithDistance(distFunc))
	}
	if p.Algorithm != "" {
		opts = append(opts, lof.WithAlg(p.Algorithm))
	}
	detector, err := lof.New(opts...)
	if err != nil {
		return nil, err
	}
	points := make([][]float64, len(values))
	for i := range values {
		points[i] = []float64{values[i]}
	}
	scores, err := detector.Fit(points)
	if err != nil {
		return nil, err
	}
	var flags []Flag
	for i, s := range scores {
		if !s.Outlier {
			continue
		}
		score := math.Abs(s.NegativeOutlierFactor)
		flags = append(flags, Flag{Index: i, Score: score, Severity: ClassifyLOFSeverity(score)})
	}
	return flags, nil
}
