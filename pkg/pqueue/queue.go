// Package pqueue is a bounded priority queue keeping the items with the
// smallest (or largest) priorities.
package pqueue

import "sort"

func WithOrderAsc[T any]() Option[T] {
	return func(q *Queue[T]) {
		q.order = orderAsc
	}
}

func WithOrderDesc[T any]() Option[T] {
	return func(q *Queue[T]) {
		q.order = orderDesc
	}
}

// WithCap bounds the queue. Pushing past the capacity drops the item with the
// worst priority.
func WithCap[T any](size uint) Option[T] {
	return func(q *Queue[T]) {
		q.cap = int(size)
	}
}

type Option[T any] func(*Queue[T])

type order uint8

const (
	orderAsc order = iota
	orderDesc
)

type item[T any] struct {
	value T
	prior float64
}

func New[T any](opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{order: orderAsc, cap: -1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Queue keeps items ordered by priority on every push. Items of equal
// priority keep their insertion order.
type Queue[T any] struct {
	order order
	cap   int
	items []item[T]
}

func (q *Queue[T]) before(a, b float64) bool {
	if q.order == orderAsc {
		return a < b
	}
	return a > b
}

func (q *Queue[T]) Push(val T, priority float64) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return q.before(priority, q.items[i].prior)
	})
	if q.cap >= 0 && idx >= q.cap {
		return
	}
	q.items = append(q.items, item[T]{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item[T]{value: val, prior: priority}
	if q.cap >= 0 && len(q.items) > q.cap {
		q.items = q.items[:q.cap]
	}
}

// PopAll drains the queue in priority order.
func (q *Queue[T]) PopAll() []T {
	pulled := make([]T, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}

// Head removes and returns the best item.
func (q *Queue[T]) Head() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	x := q.items[0]
	q.items = q.items[1:]
	return x.value, true
}

// Tail returns the worst item and its priority without removing it.
func (q *Queue[T]) Tail() (T, float64, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, 0, false
	}
	x := q.items[len(q.items)-1]
	return x.value, x.prior, true
}

func (q *Queue[T]) Cap() int { return q.cap }

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) Seek(idx int) (T, float64) {
	x := q.items[idx]
	return x.value, x.prior
}
