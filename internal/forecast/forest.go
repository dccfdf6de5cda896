package forecast

import (
	"fmt"
	"sort"

	"github.com/valyala/fastrand"
)

const DefaultSeed = 42

// TreeParams are the tuned hyper-parameters of the forest. MaxDepth 0 means
// the trees grow until leaves are pure or too small to split.
type TreeParams struct {
	NEstimators     int `toml:"n_estimators" json:"n_estimators"`
	MaxDepth        int `toml:"max_depth" json:"max_depth"`
	MinSamplesSplit int `toml:"min_samples_split" json:"min_samples_split"`
}

func (p TreeParams) validate() error {
	if p.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be at least 1, got %d", p.NEstimators)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be at least 2, got %d", p.MinSamplesSplit)
	}
	return nil
}

var _ Regressor = (*Forest)(nil)

// Forest is a bagged ensemble of CART regression trees. Every tree sees a
// bootstrap sample and all features at each split.
type Forest struct {
	trees []*tree
}

// FitForest grows the ensemble. The same seed, params and data always give
// the same forest.
func FitForest(x [][]float64, y []float64, p TreeParams, seed uint32) (*Forest, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrInsufficientData, len(x), len(y))
	}

	f := &Forest{trees: make([]*tree, p.NEstimators)}
	n := len(x)
	for i := range f.trees {
		var rng fastrand.RNG
		// xorshift never leaves zero, keep the state non-zero
		rng.Seed(seed*2654435761 + uint32(i) + 1)
		sample := make([]int, n)
		for j := range sample {
			sample[j] = int(rng.Uint32n(uint32(n)))
		}
		t := &tree{x: x, y: y, maxDepth: p.MaxDepth, minSplit: p.MinSamplesSplit}
		t.root = t.grow(sample, 0)
		t.x, t.y = nil, nil
		f.trees[i] = t
	}
	return f, nil
}

func (f *Forest) Predict(features []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(features)
	}
	return sum / float64(len(f.trees))
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

type tree struct {
	root     *node
	maxDepth int
	minSplit int

	// training data, released after growth
	x [][]float64
	y []float64
}

func (t *tree) predict(features []float64) float64 {
	n := t.root
	for !n.leaf {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func (t *tree) grow(idx []int, depth int) *node {
	var sum, sumSq float64
	for _, i := range idx {
		sum += t.y[i]
		sumSq += t.y[i] * t.y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	impurity := sumSq - sum*sum/n

	if len(idx) < t.minSplit || (t.maxDepth > 0 && depth >= t.maxDepth) || impurity <= 1e-12*n {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, ok := t.bestSplit(idx, impurity)
	if !ok {
		return &node{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if t.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(left, depth+1),
		right:     t.grow(right, depth+1),
	}
}

// bestSplit scans every feature for the threshold with the lowest summed
// squared error of the two children.
func (t *tree) bestSplit(idx []int, parent float64) (int, float64, bool) {
	var (
		bestFeature   int
		bestThreshold float64
		bestSSE       = parent
		found         bool
	)
	sorted := make([]int, len(idx))
	for f := range t.x[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return t.x[sorted[a]][f] < t.x[sorted[b]][f]
		})

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += t.y[i]
			totalSq += t.y[i] * t.y[i]
		}

		var leftSum, leftSq float64
		for k := 0; k < len(sorted)-1; k++ {
			yi := t.y[sorted[k]]
			leftSum += yi
			leftSq += yi * yi
			cur, next := t.x[sorted[k]][f], t.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := float64(k+1), float64(len(sorted)-k-1)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
