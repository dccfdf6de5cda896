package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	weeklyPeriod = 7.0
	yearlyPeriod = 365.25

	weeklyOrder        = 3
	yearlyOrder        = 10
	reducedYearlyOrder = 3

	// history spans that enable each seasonality, in days
	minWeeklySpan        = 14
	minReducedYearlySpan = 180
	minYearlySpan        = 730

	ridgeLambda = 1e-2
)

var _ Baseline = (*Seasonal)(nil)

// Seasonal is an additive decomposition y = trend + weekly + yearly with a
// linear trend and Fourier seasonal terms, fitted by ridge least squares.
type Seasonal struct {
	origin      time.Time
	span        float64
	scale       float64
	weekly      int
	yearly      int
	coefficient []float64
}

// FitSeasonal fits the decomposition. Non-finite values are ignored, at
// least two usable points are required.
func FitSeasonal(points []Point) (Baseline, error) {
	usable := make([]Point, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			usable = append(usable, p)
		}
	}
	if len(usable) < 2 {
		return nil, fmt.Errorf("%w: seasonal fit needs at least 2 points, got %d", ErrInsufficientData, len(usable))
	}

	first, last := usable[0].Date, usable[0].Date
	var scale float64
	for _, p := range usable {
		if p.Date.Before(first) {
			first = p.Date
		}
		if p.Date.After(last) {
			last = p.Date
		}
		scale = math.Max(scale, math.Abs(p.Value))
	}
	if scale == 0 {
		scale = 1
	}

	s := &Seasonal{origin: first, scale: scale}
	span := last.Sub(first).Hours() / 24
	s.span = math.Max(span, 1)
	if span >= minWeeklySpan {
		s.weekly = weeklyOrder
	}
	switch {
	case span >= minYearlySpan:
		s.yearly = yearlyOrder
	case span >= minReducedYearlySpan:
		s.yearly = reducedYearlyOrder
	}

	cols := s.columns()
	x := mat.NewDense(len(usable), cols, nil)
	y := mat.NewVecDense(len(usable), nil)
	for i, p := range usable {
		x.SetRow(i, s.design(p.Date))
		y.SetVec(i, p.Value/scale)
	}

	// (X'X + lambda*D) b = X'y, the intercept is not penalised
	var a mat.Dense
	a.Mul(x.T(), x)
	for j := 1; j < cols; j++ {
		a.Set(j, j, a.At(j, j)+ridgeLambda)
	}
	var b mat.VecDense
	b.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&a, &b); err != nil {
		return nil, fmt.Errorf("%w: seasonal least squares: %v", ErrModelFit, err)
	}
	s.coefficient = make([]float64, cols)
	for j := range s.coefficient {
		s.coefficient[j] = beta.AtVec(j)
	}
	return s, nil
}

func (s *Seasonal) columns() int {
	return 2 + 2*s.weekly + 2*s.yearly
}

// design returns the regressors of a date: intercept, trend scaled so the
// training history covers [0, 1], then sin/cos pairs.
func (s *Seasonal) design(date time.Time) []float64 {
	days := date.Sub(s.origin).Hours() / 24
	row := make([]float64, 0, s.columns())
	row = append(row, 1, days/s.span)
	// seasonal phase is anchored to the calendar, not to the first reading
	abs := float64(date.Unix()) / 86400
	row = fourier(row, abs, weeklyPeriod, s.weekly)
	row = fourier(row, abs, yearlyPeriod, s.yearly)
	return row
}

func fourier(row []float64, t, period float64, order int) []float64 {
	for k := 1; k <= order; k++ {
		arg := 2 * math.Pi * float64(k) * t / period
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	return row
}

func (s *Seasonal) Predict(dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		var v float64
		for j, x := range s.design(d) {
			v += s.coefficient[j] * x
		}
		out[i] = v * s.scale
	}
	return out
}
