package lof

import (
	"math"
	"testing"
)

func points1D(values ...float64) [][]float64 {
	points := make([][]float64, len(values))
	for i, v := range values {
		points[i] = []float64{v}
	}
	return points
}

func TestLOF_Fit(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		points   [][]float64
		expected []int
	}{
		{
			name:     "positive_auto_offset",
			opts:     []Option{WithKNum(3)},
			points:   points1D(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100),
			expected: []int{10},
		},
		{
			name:     "positive_contamination",
			opts:     []Option{WithKNum(3), WithContamination(0.1)},
			points:   points1D(1, 2, 3, 4, 5, 6, 7, 8, 9, 100),
			expected: []int{9},
		},
		{
			name:     "positive_k_clipped",
			opts:     []Option{WithKNum(50)},
			points:   points1D(10, 11, 12, 11),
			expected: []int{},
		},
		{
			name:     "negative_duplicates",
			opts:     []Option{WithKNum(2)},
			points:   points1D(5, 5, 5, 5),
			expected: []int{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l, err := New(test.opts...)
			if err != nil {
				t.Fatalf("unable create lof: %v", err)
			}
			scores, err := l.Fit(test.points)
			if err != nil {
				t.Fatalf("unable fit: %v", err)
			}
			if len(scores) != len(test.points) {
				t.Fatalf("scores length, got: %v, expected: %v", len(scores), len(test.points))
			}
			var got []int
			for i := range scores {
				if math.IsNaN(scores[i].NegativeOutlierFactor) || math.IsInf(scores[i].NegativeOutlierFactor, 0) {
					t.Errorf("score %d is not finite: %v", i, scores[i].NegativeOutlierFactor)
				}
				if scores[i].Outlier {
					got = append(got, i)
				}
			}
			if len(got) != len(test.expected) {
				t.Fatalf("outliers, got: %v, expected: %v", got, test.expected)
			}
			for i := range got {
				if got[i] != test.expected[i] {
					t.Errorf("outlier index, got: %v, expected: %v", got[i], test.expected[i])
				}
			}
		})
	}
}

func TestLOF_InlierScoreNearOne(t *testing.T) {
	l, err := New(WithKNum(2))
	if err != nil {
		t.Fatal(err)
	}
	scores, err := l.Fit(points1D(1, 2, 3, 4, 5, 6, 7, 8))
	if err != nil {
		t.Fatal(err)
	}
	for i := 2; i < 6; i++ {
		if math.Abs(scores[i].NegativeOutlierFactor+1) > 0.2 {
			t.Errorf("inner point %d score, got: %v, expected: ~-1", i, scores[i].NegativeOutlierFactor)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "positive_default", wantErr: false},
		{name: "negative_k", opts: []Option{WithKNum(0)}, wantErr: true},
		{name: "negative_contamination", opts: []Option{WithContamination(0.7)}, wantErr: true},
		{name: "negative_distance", opts: []Option{WithDistance(nil)}, wantErr: true},
		{name: "negative_alg", opts: []Option{WithAlg("BALL_TREE")}, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.opts...)
			if (err != nil) != test.wantErr {
				t.Errorf("create lof, got: %v, expected error: %v", err, test.wantErr)
			}
		})
	}
}

func TestLOF_FitTooFewPoints(t *testing.T) {
	l, _ := New()
	if _, err := l.Fit(points1D(1)); err == nil {
		t.Errorf("fit single point, got: nil, expected error")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		fn       DistanceFuncType
		a, b     []float64
		expected float64
	}{
		{name: "euclidean", fn: DistanceFuncTypeEuclidean, a: []float64{0, 0}, b: []float64{3, 4}, expected: 5},
		{name: "chebyshev", fn: DistanceFuncTypeChebyshev, a: []float64{0, 0}, b: []float64{3, 4}, expected: 4},
		{name: "manhattan", fn: DistanceFuncTypeManhattan, a: []float64{0, 0}, b: []float64{3, 4}, expected: 7},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fn, err := DistanceFuncFor(test.fn)
			if err != nil {
				t.Fatal(err)
			}
			got, err := fn(test.a, test.b)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.expected {
				t.Errorf("distance, got: %v, expected: %v", got, test.expected)
			}
		})
	}
	if _, err := EuclideanDistance([]float64{1}, []float64{1, 2}); err != ErrDimNotEqual {
		t.Errorf("dimension check, got: %v, expected: %v", err, ErrDimNotEqual)
	}
}

func TestLOF_SearchesAgree(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3, 2, 3, 8, 4, 6, 2, 6, 4, 3, 38}
	for _, dist := range []DistanceFuncType{DistanceFuncTypeEuclidean, DistanceFuncTypeManhattan} {
		fn, err := DistanceFuncFor(dist)
		if err != nil {
			t.Fatal(err)
		}
		brute, _ := New(WithKNum(4), WithDistance(fn), WithAlg(AlgTypeBrute))
		tree, _ := New(WithKNum(4), WithDistance(fn), WithAlg(AlgTypeKDTree))
		expected, err := brute.Fit(points1D(values...))
		if err != nil {
			t.Fatal(err)
		}
		got, err := tree.Fit(points1D(values...))
		if err != nil {
			t.Fatal(err)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("%s point %d, got: %v, expected: %v", dist, i, got[i], expected[i])
			}
		}
	}
}
