package lof

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinKNum     = 1
	DefaultKNum = 20
	// offset applied to the negative outlier factor when contamination is "auto"
	autoOffset = -1.5
	// keeps the local reachability density finite for duplicated points
	lrdEpsilon = 1e-10
)

var (
	ErrDimNotEqual   = errors.New("vectors dimension is not equal")
	ErrInvalidConfig = errors.New("invalid lof configuration")
)

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

type DistanceFn func(vec, vec1 []float64) (float64, error)

// AlgType selects how neighbours are searched.
type AlgType string

const (
	AlgTypeKDTree AlgType = "KD_TREE"
	AlgTypeBrute  AlgType = "BRUTE"
)

type Config struct {
	KNum           int              `envconfig:"SOD_LOF_K_NUM" default:"20"`
	Contamination  float64          `envconfig:"SOD_LOF_CONTAMINATION" default:"0"`
	MetricFuncType DistanceFuncType `envconfig:"SOD_LOF_DISTANCE_FUNC" default:"EUCLIDEAN"`
	AlgType        AlgType          `envconfig:"SOD_LOF_ALG" default:"KD_TREE"`
}

func DistanceFuncFor(d DistanceFuncType) (DistanceFn, error) {
	switch d {
	case DistanceFuncTypeChebyshev:
		return ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("%w: unknown distance function: %s", ErrInvalidConfig, d)
	}
}

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	var d float64
	for i := range vec {
		diff := vec[i] - vec1[i]
		d += diff * diff
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	var distance float64
	for i := range vec {
		if abs := math.Abs(vec[i] - vec1[i]); abs > distance {
			distance = abs
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	var distance float64
	for i := range vec {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}
