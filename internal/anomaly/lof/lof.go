// Package lof scores a batch of points with the local outlier factor.
package lof

import (
	"fmt"
	"math"

	"github.com/go-sod/powersod/internal/stats"
	"github.com/go-sod/powersod/pkg/kdtree"
	"github.com/go-sod/powersod/pkg/pqueue"
)

type Option func(*LOF)

// WithKNum sets the number of neighbours. It is clipped to n-1 at fit time.
func WithKNum(k int) Option {
	return func(l *LOF) {
		l.kNum = k
	}
}

// WithContamination sets the expected fraction of outliers in (0, 0.5].
// Zero keeps the fixed offset used by the "auto" mode.
func WithContamination(c float64) Option {
	return func(l *LOF) {
		l.contamination = c
	}
}

func WithDistance(f DistanceFn) Option {
	return func(l *LOF) {
		l.distFunc = f
	}
}

// WithAlg selects the neighbour search. Both searches return the same
// neighbours, ties broken by point index.
func WithAlg(alg AlgType) Option {
	return func(l *LOF) {
		l.alg = alg
	}
}

func New(opts ...Option) (*LOF, error) {
	l := &LOF{
		kNum:     DefaultKNum,
		distFunc: EuclideanDistance,
		alg:      AlgTypeKDTree,
	}
	for _, f := range opts {
		f(l)
	}
	if l.kNum < MinKNum {
		return nil, fmt.Errorf("%w: the k selected in the config is too small: %d", ErrInvalidConfig, l.kNum)
	}
	if l.contamination < 0 || l.contamination > 0.5 {
		return nil, fmt.Errorf("%w: contamination must be in (0, 0.5], got %v", ErrInvalidConfig, l.contamination)
	}
	if l.distFunc == nil {
		return nil, fmt.Errorf("%w: distance function is not defined", ErrInvalidConfig)
	}
	switch l.alg {
	case AlgTypeKDTree, AlgTypeBrute:
	default:
		return nil, fmt.Errorf("%w: unknown neighbour search: %s", ErrInvalidConfig, l.alg)
	}
	return l, nil
}

// LOF holds only configuration, Fit keeps all intermediate state local.
type LOF struct {
	kNum          int
	contamination float64
	distFunc      DistanceFn
	alg           AlgType
}

// Score is the outcome for a single point.
type Score struct {
	// NegativeOutlierFactor is -lof, close to -1 for inliers.
	NegativeOutlierFactor float64
	Outlier               bool
}

type neighbour struct {
	idx  int
	dist float64
}

// Fit computes the local outlier factor of every point against the rest of
// the batch and marks outliers.
func (l *LOF) Fit(points [][]float64) ([]Score, error) {
	n := len(points)
	if n < 2 {
		return nil, fmt.Errorf("unable fit lof, need at least 2 points, got %d", n)
	}
	k := l.kNum
	if k > n-1 {
		k = n - 1
	}

	search := l.knn
	if l.alg == AlgTypeKDTree {
		tree, err := kdtree.New(points, kdtree.DistanceFn(l.distFunc))
		if err != nil {
			return nil, fmt.Errorf("unable build kd tree: %w", err)
		}
		search = func(points [][]float64, idx, k int) ([]neighbour, error) {
			return treeKNN(tree, points, idx, k)
		}
	}

	neighbours := make([][]neighbour, n)
	kDistance := make([]float64, n)
	for i := range points {
		nn, err := search(points, i, k)
		if err != nil {
			return nil, fmt.Errorf("unable compute KNN: %w", err)
		}
		neighbours[i] = nn
		kDistance[i] = nn[len(nn)-1].dist
	}

	lrd := make([]float64, n)
	for i := range points {
		var rSum float64
		for _, nb := range neighbours[i] {
			rSum += math.Max(kDistance[nb.idx], nb.dist)
		}
		lrd[i] = 1 / (rSum/float64(k) + lrdEpsilon)
	}

	nof := make([]float64, n)
	for i := range points {
		var lrdSum float64
		for _, nb := range neighbours[i] {
			lrdSum += lrd[nb.idx]
		}
		nof[i] = -(lrdSum / float64(k)) / lrd[i]
	}

	offset := autoOffset
	if l.contamination > 0 {
		offset = stats.Percentile(nof, 100*l.contamination)
	}

	scores := make([]Score, n)
	for i := range nof {
		scores[i] = Score{NegativeOutlierFactor: nof[i], Outlier: nof[i] < offset}
	}
	return scores, nil
}

func treeKNN(tree *kdtree.Tree, points [][]float64, idx, k int) ([]neighbour, error) {
	found, err := tree.KNN(points[idx], k, idx)
	if err != nil {
		return nil, err
	}
	if len(found) < k {
		return nil, fmt.Errorf("knn less minimal value")
	}
	nn := make([]neighbour, len(found))
	for i, f := range found {
		nn[i] = neighbour{idx: f.Index, dist: f.Dist}
	}
	return nn, nil
}

// knn returns the k nearest neighbours of points[idx], excluding itself,
// nearest first.
func (l *LOF) knn(points [][]float64, idx, k int) ([]neighbour, error) {
	pq := pqueue.New[neighbour](pqueue.WithCap[neighbour](uint(k)))
	for j := range points {
		if j == idx {
			continue
		}
		distance, err := l.distFunc(points[idx], points[j])
		if err != nil {
			return nil, fmt.Errorf("unable to compute distance between %v and %v: %w", points[idx], points[j], err)
		}
		pq.Push(neighbour{idx: j, dist: distance}, distance)
	}
	nn := pq.PopAll()
	if len(nn) < k {
		return nil, fmt.Errorf("knn less minimal value")
	}
	return nn, nil
}
