// Package kdtree is a static k-d tree answering k-nearest-neighbour queries
// over a fixed set of points.
package kdtree

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimNotEqual = errors.New("points dimension is not equal")

// DistanceFn must be an Lp metric: the distance between two points is never
// smaller than their difference along any single axis.
type DistanceFn func(vec, vec1 []float64) (float64, error)

type node struct {
	idx   int
	axis  int
	left  *node
	right *node
}

type Tree struct {
	root   *node
	points [][]float64
	dims   int
	distFn DistanceFn
}

// Neighbour is a point of the tree given by its index in the build slice.
type Neighbour struct {
	Index int
	Dist  float64
}

// New builds a balanced tree over points. The slice is referenced, not copied.
func New(points [][]float64, distFn DistanceFn) (*Tree, error) {
	if distFn == nil {
		return nil, fmt.Errorf("distance function is not defined")
	}
	t := &Tree{points: points, distFn: distFn}
	if len(points) == 0 {
		return t, nil
	}
	t.dims = len(points[0])
	if t.dims == 0 {
		return nil, fmt.Errorf("points have no dimensions")
	}
	idx := make([]int, len(points))
	for i := range points {
		if len(points[i]) != t.dims {
			return nil, fmt.Errorf("point %d: %w", i, ErrDimNotEqual)
		}
		idx[i] = i
	}
	t.root = t.build(idx, 0)
	return t, nil
}

func (t *Tree) Len() int {
	return len(t.points)
}

func (t *Tree) build(idx []int, depth int) *node {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % t.dims
	sort.SliceStable(idx, func(i, j int) bool {
		return t.points[idx[i]][axis] < t.points[idx[j]][axis]
	})
	mid := len(idx) / 2
	return &node{
		idx:   idx[mid],
		axis:  axis,
		left:  t.build(idx[:mid], depth+1),
		right: t.build(idx[mid+1:], depth+1),
	}
}

// KNN returns the k points nearest to query, nearest first. Equal distances
// are ordered by index. A non-negative exclude skips that index, which lets a
// tree point query its own neighbours.
func (t *Tree) KNN(query []float64, k int, exclude int) ([]Neighbour, error) {
	if len(query) != t.dims && t.root != nil {
		return nil, ErrDimNotEqual
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	s := search{tree: t, query: query, k: k, exclude: exclude}
	if err := s.visit(t.root); err != nil {
		return nil, err
	}
	return s.best, nil
}

type search struct {
	tree    *Tree
	query   []float64
	k       int
	exclude int
	best    []Neighbour
}

func (s *search) worst() float64 {
	if len(s.best) < s.k {
		return math.Inf(1)
	}
	return s.best[len(s.best)-1].Dist
}

func (s *search) offer(n Neighbour) {
	pos := sort.Search(len(s.best), func(i int) bool {
		b := s.best[i]
		return n.Dist < b.Dist || (n.Dist == b.Dist && n.Index < b.Index)
	})
	if pos >= s.k {
		return
	}
	s.best = append(s.best, Neighbour{})
	copy(s.best[pos+1:], s.best[pos:])
	s.best[pos] = n
	if len(s.best) > s.k {
		s.best = s.best[:s.k]
	}
}

func (s *search) visit(n *node) error {
	if n == nil {
		return nil
	}
	point := s.tree.points[n.idx]
	diff := s.query[n.axis] - point[n.axis]
	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}

	if err := s.visit(near); err != nil {
		return err
	}
	if n.idx != s.exclude {
		d, err := s.tree.distFn(s.query, point)
		if err != nil {
			return fmt.Errorf("unable compute distance: %w", err)
		}
		s.offer(Neighbour{Index: n.idx, Dist: d})
	}
	// ties at the boundary still descend so the index order stays exact
	if math.Abs(diff) <= s.worst() {
		return s.visit(far)
	}
	return nil
}
