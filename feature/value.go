package feature

import (
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Value is a ternary feature value.
type Value int8

const (
	// Negative marks a feature as absent.
	Negative Value = -1
	// Undefined marks a feature as unspecified.
	Undefined Value = 0
	// Positive marks a feature as present.
	Positive Value = 1
)

// String returns the table marker for v ("-", "0" or "+").
func (v Value) String() string {
	switch v {
	case Negative:
		return "-"
	case Positive:
		return "+"
	default:
		return "0"
	}
}

// Float64 returns v mapped to {-1, 0, 1}.
func (v Value) Float64() float64 {
	return float64(v)
}

// ParseValue parses a strict table marker: "+", "-", "0" or their numeric
// encodings "1", "-1". An empty cell is Undefined.
func ParseValue(s string) (Value, bool) {
	switch strings.TrimSpace(s) {
	case "+", "1", "+1":
		return Positive, true
	case "-", "-1", "−":
		return Negative, true
	case "0", "":
		return Undefined, true
	}
	return Undefined, false
}

var zeroMarkers = []string{"", "0", "-", "−", "n", "na", "n/a", "none", "null", "?"}

// Coerce maps a free-form cell of a custom table to a ternary value.
//
// Empty cells and zero markers (0, -, n, na, n/a, none, null, ?) are
// Undefined, as are numbers equal to zero. Negative numbers are Negative.
// Every other non-empty cell is Positive, words like "no" included.
func Coerce(cell string) Value {
	c := strings.ToLower(strings.TrimSpace(cell))
	for _, m := range zeroMarkers {
		if c == m {
			return Undefined
		}
	}
	if f, err := strconv.ParseFloat(c, 64); err == nil {
		switch {
		case f == 0:
			return Undefined
		case f < 0:
			return Negative
		}
	}
	return Positive
}

// Vector is a fixed-order feature vector. Its order is the feature-name
// order of the System that produced it.
type Vector []Value

// Float64s returns the vector mapped to {-1, 0, 1}.
func (v Vector) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Equal reports whether v and w hold the same values.
func (v Vector) Equal(w Vector) bool {
	if len(v) != len(w) {
		return false
	}
	for i := range v {
		if v[i] != w[i] {
			return false
		}
	}
	return true
}

// PositiveSet returns the positions holding Positive.
func (v Vector) PositiveSet() *roaring.Bitmap {
	return v.set(Positive)
}

// NegativeSet returns the positions holding Negative.
func (v Vector) NegativeSet() *roaring.Bitmap {
	return v.set(Negative)
}

func (v Vector) set(want Value) *roaring.Bitmap {
	bm := roaring.New()
	for i, x := range v {
		if x == want {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}
