package kdtree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func euclidean(a, b []float64) (float64, error) {
	var d float64
	for i := range a {
		d += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(d), nil
}

func manhattan(a, b []float64) (float64, error) {
	var d float64
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d, nil
}

func bruteKNN(points [][]float64, query []float64, k, exclude int, fn DistanceFn) []Neighbour {
	var all []Neighbour
	for i := range points {
		if i == exclude {
			continue
		}
		d, _ := fn(query, points[i])
		all = append(all, Neighbour{Index: i, Dist: d})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Dist < all[j].Dist })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func TestTree_KNNMatchesBruteForce(t *testing.T) {
	tests := []struct {
		name string
		dims int
		n    int
		k    int
		fn   DistanceFn
		grid bool
	}{
		{name: "1d_euclidean", dims: 1, n: 200, k: 5, fn: euclidean},
		{name: "3d_euclidean", dims: 3, n: 300, k: 10, fn: euclidean},
		{name: "2d_manhattan", dims: 2, n: 150, k: 7, fn: manhattan},
		{name: "1d_ties", dims: 1, n: 60, k: 4, fn: euclidean, grid: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := rand.New(rand.NewSource(1))
			points := make([][]float64, test.n)
			for i := range points {
				points[i] = make([]float64, test.dims)
				for d := range points[i] {
					if test.grid {
						points[i][d] = float64(r.Intn(10))
					} else {
						points[i][d] = r.NormFloat64() * 10
					}
				}
			}
			tree, err := New(points, test.fn)
			require.NoError(t, err)
			for i := range points {
				got, err := tree.KNN(points[i], test.k, i)
				require.NoError(t, err)
				expected := bruteKNN(points, points[i], test.k, i, test.fn)
				if !assert.Equal(t, expected, got) {
					t.Fatalf("point %d neighbours mismatch", i)
				}
			}
		})
	}
}

func TestTree_KNNFewerPoints(t *testing.T) {
	tree, err := New([][]float64{{1}, {2}, {4}}, euclidean)
	require.NoError(t, err)
	got, err := tree.KNN([]float64{1}, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []Neighbour{{Index: 1, Dist: 1}, {Index: 2, Dist: 3}}, got)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		fn     DistanceFn
	}{
		{name: "negative_nil_distance", points: [][]float64{{1}}, fn: nil},
		{name: "negative_mixed_dims", points: [][]float64{{1}, {1, 2}}, fn: euclidean},
		{name: "negative_zero_dims", points: [][]float64{{}}, fn: euclidean},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.points, test.fn); err == nil {
				t.Errorf("create tree, got: nil, expected error")
			}
		})
	}
}

func TestTree_KNNInvalidQuery(t *testing.T) {
	tree, err := New([][]float64{{1, 1}, {2, 2}}, euclidean)
	require.NoError(t, err)
	_, err = tree.KNN([]float64{1}, 1, -1)
	assert.ErrorIs(t, err, ErrDimNotEqual)
	_, err = tree.KNN([]float64{1, 1}, 0, -1)
	assert.Error(t, err)
}
