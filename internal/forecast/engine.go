// Package forecast fits a seasonal baseline plus a random forest on lag
// features and predicts daily consumption recursively past the history.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/powersod/internal/logging"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
	"github.com/go-sod/powersod/internal/stats"
)

const (
	DefaultHorizon = 30

	trimLower  = 5.0
	trimUpper  = 95.0
	trainShare = 0.8
)

type Option func(*Engine)

func WithHorizon(days int) Option {
	return func(e *Engine) {
		e.horizon = days
	}
}

func WithGrid(g Grid) Option {
	return func(e *Engine) {
		e.grid = g
	}
}

func WithSplits(n int) Option {
	return func(e *Engine) {
		e.splits = n
	}
}

func WithSeed(seed uint32) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithBaselineFitter replaces the seasonal decomposition.
func WithBaselineFitter(fn BaselineFitFn) Option {
	return func(e *Engine) {
		e.fitBaseline = fn
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		horizon:     DefaultHorizon,
		grid:        DefaultGrid(),
		splits:      DefaultSplits,
		seed:        DefaultSeed,
		fitBaseline: FitSeasonal,
	}
	for _, f := range opts {
		f(e)
	}
	return e
}

// Engine holds configuration only and is safe for concurrent use.
type Engine struct {
	horizon     int
	grid        Grid
	splits      int
	seed        uint32
	fitBaseline BaselineFitFn
}

// Result is a successful forecast.
type Result struct {
	Predictions []Prediction `json:"predictions"`
	Evaluation  Evaluation   `json:"evaluation"`
	Params      TreeParams   `json:"best_params"`
}

// FitAndForecast runs the pipeline over the datasets and predicts horizonDays
// days after the last observation. A non-positive horizon uses the engine
// default. Every failure, including a panic in the numerical code, comes back
// as an error.
func (e *Engine) FitAndForecast(ctx context.Context, datasets []readingModel.Dataset, horizonDays int) (result *Result, err error) {
	logger := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrModelFit, r)
		}
	}()
	if horizonDays <= 0 {
		horizonDays = e.horizon
	}

	raws, err := ingest(datasets)
	if err != nil {
		return nil, err
	}
	points, err := clean(raws)
	if err != nil {
		return nil, err
	}
	points = trim(points)
	logger.Debugf("forecast: %d raw rows, %d after cleaning and trimming", len(raws), len(points))

	baseline, err := e.fitBaseline(points)
	if err != nil {
		return nil, fmt.Errorf("seasonal fit: %w", err)
	}
	history := make([]time.Time, len(points))
	for i := range points {
		history[i] = points[i].Date
	}
	future := HorizonDates(points[len(points)-1].Date, horizonDays)
	yhat := baseline.Predict(append(history, future...))

	rows := BuildFeatures(points, yhat[:len(points)])
	if len(rows) == 0 {
		return nil, ErrNoFeatureRows
	}
	x, y := matrix(rows)

	split := int(float64(len(rows)) * trainShare)
	if split == 0 || split == len(rows) {
		return nil, fmt.Errorf("%w: %d feature rows cannot be split into train and test", ErrInsufficientData, len(rows))
	}
	xTrain, yTrain, xTest, yTest := x[:split], y[:split], x[split:], y[split:]

	best, err := GridSearch(xTrain, yTrain, e.grid, e.splits, e.seed)
	if err != nil {
		return nil, fmt.Errorf("%w: grid search: %v", ErrModelFit, err)
	}
	logger.Debugf("forecast: best params %s", spew.Sdump(best))

	model, err := FitPipeline(xTrain, yTrain, best.Params, e.seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	evaluation, err := Evaluate(yTest, PredictAll(model, xTest))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	values := make([]float64, len(points))
	for i := range points {
		values[i] = points[i].Value
	}
	window, ok := NewLagWindow(values)
	if !ok {
		return nil, ErrNoFeatureRows
	}

	return &Result{
		Predictions: Forecast(model, window, future, yhat[len(points):]),
		Evaluation:  evaluation,
		Params:      best.Params,
	}, nil
}

// ingest orders datasets by (year, month) descending and flattens them.
func ingest(datasets []readingModel.Dataset) ([]readingModel.Raw, error) {
	ordered := make([]readingModel.Dataset, len(datasets))
	copy(ordered, datasets)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year > ordered[j].Year
		}
		return ordered[i].Month > ordered[j].Month
	})

	var raws []readingModel.Raw
	for _, d := range ordered {
		raws = append(raws, d.Data...)
	}
	if len(raws) == 0 {
		return nil, ErrNoData
	}
	return raws, nil
}

// clean parses the rows, drops the broken ones and returns one point per day
// in date order. A later row for the same day wins.
func clean(raws []readingModel.Raw) ([]Point, error) {
	readings, _ := readingModel.ParseAll(raws)
	for i := range readings {
		readings[i].Building = ""
	}
	readings = readingModel.Normalize(readings)
	if len(readings) == 0 {
		return nil, ErrNoValidData
	}
	points := make([]Point, len(readings))
	for i, r := range readings {
		points[i] = Point{Date: r.Date, Value: r.Consumption}
	}
	return points, nil
}

// trim keeps the points inside the [5th, 95th] percentile band.
func trim(points []Point) []Point {
	values := make([]float64, len(points))
	for i := range points {
		values[i] = points[i].Value
	}
	lo, hi := stats.Percentile(values, trimLower), stats.Percentile(values, trimUpper)
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Value >= lo && p.Value <= hi {
			kept = append(kept, p)
		}
	}
	return kept
}

func matrix(rows []Row) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i := range rows {
		x[i] = rows[i].Features
		y[i] = rows[i].Target
	}
	return x, y
}
