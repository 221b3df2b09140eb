package matrix

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrNotSquare is returned when rows do not form an n×n array matching
	// the labels.
	ErrNotSquare = errors.New("matrix is not square")

	// ErrNotSymmetric is returned when m[i][j] != m[j][i].
	ErrNotSymmetric = errors.New("matrix is not symmetric")

	// ErrDiagonal is returned when a diagonal cell is not zero.
	ErrDiagonal = errors.New("matrix diagonal is not zero")
)

// Matrix is a symmetric distance matrix indexed by an ordered label list.
type Matrix struct {
	labels []string
	index  map[string]int
	data   []float64
}

// New returns an all-zero matrix over labels.
func New(labels []string) *Matrix {
	n := len(labels)
	m := &Matrix{
		labels: slices.Clone(labels),
		index:  make(map[string]int, n),
		data:   make([]float64, n*n),
	}
	for i, l := range labels {
		if _, dup := m.index[l]; !dup {
			m.index[l] = i
		}
	}
	return m
}

// FromRows builds a matrix from dense rows and validates its invariants.
func FromRows(labels []string, rows [][]float64) (*Matrix, error) {
	n := len(labels)
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d labels, %d rows", ErrNotSquare, n, len(rows))
	}
	m := New(labels)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, i, len(row), n)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes returns the memory needed for a matrix of n labels.
func Bytes(n int) int64 {
	return int64(n) * int64(n) * 8
}

// Size returns the number of labels.
func (m *Matrix) Size() int { return len(m.labels) }

// Labels returns the labels in matrix order.
func (m *Matrix) Labels() []string { return slices.Clone(m.labels) }

// Label returns the i-th label.
func (m *Matrix) Label(i int) string { return m.labels[i] }

// Index returns the position of the first occurrence of label.
func (m *Matrix) Index(label string) (int, bool) {
	i, ok := m.index[label]
	return i, ok
}

// At returns m[i][j].
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*len(m.labels)+j]
}

// Set writes d to m[i][j] and m[j][i]. Diagonal writes are ignored.
// Concurrent Set calls on disjoint unordered pairs are safe.
func (m *Matrix) Set(i, j int, d float64) {
	if i == j {
		return
	}
	n := len(m.labels)
	m.data[i*n+j] = d
	m.data[j*n+i] = d
}

// Get returns the distance between two labels.
func (m *Matrix) Get(a, b string) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	return m.At(i, j), true
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	n := len(m.labels)
	return slices.Clone(m.data[i*n : (i+1)*n])
}

// Rows returns the matrix as dense rows.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, len(m.labels))
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// Sub returns the matrix restricted to labels, in the given order.
func (m *Matrix) Sub(labels []string) (*Matrix, error) {
	idx := make([]int, len(labels))
	for k, l := range labels {
		i, ok := m.index[l]
		if !ok {
			return nil, fmt.Errorf("label %q not in matrix", l)
		}
		idx[k] = i
	}
	sub := New(labels)
	for a := range idx {
		for b := a + 1; b < len(idx); b++ {
			sub.Set(a, b, m.At(idx[a], idx[b]))
		}
	}
	return sub, nil
}

// Validate checks the zero diagonal and symmetry.
func (m *Matrix) Validate() error {
	n := len(m.labels)
	for i := 0; i < n; i++ {
		if m.At(i, i) != 0 {
			return fmt.Errorf("%w: cell (%d,%d) = %v", ErrDiagonal, i, i, m.At(i, i))
		}
		for j := i + 1; j < n; j++ {
			if !same(m.At(i, j), m.At(j, i)) {
				return fmt.Errorf("%w: cells (%d,%d) and (%d,%d) differ", ErrNotSymmetric, i, j, j, i)
			}
		}
	}
	return nil
}

func same(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Stats summarizes the off-diagonal finite cells.
type Stats struct {
	Size      int     `json:"size"`
	Symmetric bool    `json:"symmetric"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Infinite  int     `json:"infinite,omitempty"`
}

// Stats computes summary statistics.
func (m *Matrix) Stats() Stats {
	s := Stats{Size: len(m.labels), Symmetric: m.Validate() == nil}
	n := len(m.labels)
	count := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := m.At(i, j)
			if math.IsInf(d, 0) || math.IsNaN(d) {
				s.Infinite++
				continue
			}
			if count == 0 || d < s.Min {
				s.Min = d
			}
			if count == 0 || d > s.Max {
				s.Max = d
			}
			s.Mean += d
			count++
		}
	}
	if count > 0 {
		s.Mean /= float64(count)
	}
	return s
}

// Nearest returns up to k labels closest to label, nearest first. Ties keep
// matrix order.
func (m *Matrix) Nearest(label string, k int) ([]string, error) {
	i, ok := m.index[label]
	if !ok {
		return nil, fmt.Errorf("label %q not in matrix", label)
	}
	order := make([]int, 0, len(m.labels)-1)
	for j := range m.labels {
		if j != i {
			order = append(order, j)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		da, db := m.At(i, a), m.At(i, b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	if k > len(order) {
		k = len(order)
	}
	out := make([]string, k)
	for n, j := range order[:k] {
		out[n] = m.labels[j]
	}
	return out, nil
}
