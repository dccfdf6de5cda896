package pqueue

import "testing"

func TestQueue_Push(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option[int]
		prior    []float64
		expected []int
	}{
		{
			name:     "asc_unbounded",
			prior:    []float64{3, 1, 2},
			expected: []int{1, 2, 0},
		},
		{
			name:     "asc_capped",
			opts:     []Option[int]{WithCap[int](2)},
			prior:    []float64{3, 1, 2, 0.5},
			expected: []int{3, 1},
		},
		{
			name:     "desc_capped",
			opts:     []Option[int]{WithOrderDesc[int](), WithCap[int](2)},
			prior:    []float64{3, 1, 2, 0.5},
			expected: []int{0, 2},
		},
		{
			name:     "ties_keep_insertion_order",
			prior:    []float64{1, 1, 1},
			expected: []int{0, 1, 2},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := New[int](test.opts...)
			for i, p := range test.prior {
				q.Push(i, p)
			}
			got := q.PopAll()
			if len(got) != len(test.expected) {
				t.Fatalf("queue length, got: %v, expected: %v", len(got), len(test.expected))
			}
			for i := range got {
				if got[i] != test.expected[i] {
					t.Errorf("queue order, got: %v, expected: %v", got, test.expected)
					break
				}
			}
			if q.Len() != 0 {
				t.Errorf("queue must be empty after PopAll, got: %v", q.Len())
			}
		})
	}
}

func TestQueue_Tail(t *testing.T) {
	q := New[string](WithCap[string](3))
	if _, _, ok := q.Tail(); ok {
		t.Errorf("tail of empty queue must not be ok")
	}
	q.Push("a", 5)
	q.Push("b", 1)
	q.Push("c", 3)
	q.Push("d", 4)
	v, p, ok := q.Tail()
	if !ok || v != "d" || p != 4 {
		t.Errorf("tail, got: %v %v, expected: %v %v", v, p, "d", 4)
	}
	if h, ok := q.Head(); !ok || h != "b" {
		t.Errorf("head, got: %v, expected: %v", h, "b")
	}
}
