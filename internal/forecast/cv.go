package forecast

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
)

const DefaultSplits = 5

// Grid is the hyper-parameter search space. MaxDepth 0 stands for unlimited.
type Grid struct {
	NEstimators     []int `toml:"n_estimators"`
	MaxDepth        []int `toml:"max_depth"`
	MinSamplesSplit []int `toml:"min_samples_split"`
}

func DefaultGrid() Grid {
	return Grid{
		NEstimators:     []int{50, 100, 200},
		MaxDepth:        []int{0, 10, 20},
		MinSamplesSplit: []int{2, 5, 10},
	}
}

// LoadGrid reads a grid from a TOML file. Keys missing from the file keep
// their default values.
func LoadGrid(path string) (Grid, error) {
	g := DefaultGrid()
	var file Grid
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return Grid{}, fmt.Errorf("unable decode grid file %s: %w", path, err)
	}
	if len(file.NEstimators) > 0 {
		g.NEstimators = file.NEstimators
	}
	if len(file.MaxDepth) > 0 {
		g.MaxDepth = file.MaxDepth
	}
	if len(file.MinSamplesSplit) > 0 {
		g.MinSamplesSplit = file.MinSamplesSplit
	}
	return g, g.validate()
}

func (g Grid) validate() error {
	for _, p := range g.Candidates() {
		if err := p.validate(); err != nil {
			return fmt.Errorf("invalid grid: %w", err)
		}
	}
	if len(g.Candidates()) == 0 {
		return fmt.Errorf("invalid grid: empty")
	}
	return nil
}

// Candidates expands the grid in a fixed order.
func (g Grid) Candidates() []TreeParams {
	var out []TreeParams
	for _, n := range g.NEstimators {
		for _, d := range g.MaxDepth {
			for _, s := range g.MinSamplesSplit {
				out = append(out, TreeParams{NEstimators: n, MaxDepth: d, MinSamplesSplit: s})
			}
		}
	}
	return out
}

// Fold is a pair of index ranges, Train always precedes Test.
type Fold struct {
	TrainEnd  int
	TestStart int
	TestEnd   int
}

// TimeSeriesSplit returns expanding-window folds over n rows: the tail is cut
// into splits equal test blocks and each fold trains on everything before its
// block. Splits are reduced when there are not enough rows.
func TimeSeriesSplit(n, splits int) []Fold {
	if splits > n-1 {
		splits = n - 1
	}
	if splits < 1 {
		return nil
	}
	testSize := n / (splits + 1)
	var folds []Fold
	for start := n - splits*testSize; start < n; start += testSize {
		folds = append(folds, Fold{TrainEnd: start, TestStart: start, TestEnd: start + testSize})
	}
	return folds
}

// SearchResult is the winning candidate and its mean negative MSE.
type SearchResult struct {
	Params TreeParams
	Score  float64
}

// GridSearch scores every candidate with time series cross-validation on
// negative mean squared error and returns the best. Ties keep the earliest
// candidate. With fewer than two rows no folds exist and the first candidate
// wins unscored.
func GridSearch(x [][]float64, y []float64, g Grid, splits int, seed uint32) (SearchResult, error) {
	candidates := g.Candidates()
	if len(candidates) == 0 {
		return SearchResult{}, fmt.Errorf("empty hyper-parameter grid")
	}
	folds := TimeSeriesSplit(len(x), splits)
	if len(folds) == 0 {
		return SearchResult{Params: candidates[0], Score: math.NaN()}, nil
	}

	best := SearchResult{Score: math.Inf(-1)}
	for _, c := range candidates {
		var total float64
		for _, f := range folds {
			model, err := FitPipeline(x[:f.TrainEnd], y[:f.TrainEnd], c, seed)
			if err != nil {
				return SearchResult{}, err
			}
			pred := PredictAll(model, x[f.TestStart:f.TestEnd])
			total -= meanSquaredError(y[f.TestStart:f.TestEnd], pred)
		}
		if score := total / float64(len(folds)); score > best.Score {
			best = SearchResult{Params: c, Score: score}
		}
	}
	return best, nil
}
