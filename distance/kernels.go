package distance

import (
	"math"

	"github.com/hupe1980/phonodist/feature"
)

// Dot returns the dot product of a and b.
// Assumes equal lengths (caller's responsibility).
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 returns the squared Euclidean distance between a and b.
// Assumes equal lengths (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Hamming counts the positions where u and v differ.
func Hamming(u, v feature.Vector) float64 {
	n := 0
	for i := range u {
		if u[i] != v[i] {
			n++
		}
	}
	return float64(n)
}

// Jaccard returns 1 - |P(u) ∩ P(v)| / |P(u) ∪ P(v)| where P is the set of
// positive features. It is 0 when both sets are empty.
func Jaccard(u, v feature.Vector) float64 {
	pu, pv := u.PositiveSet(), v.PositiveSet()
	union := pu.OrCardinality(pv)
	if union == 0 {
		return 0
	}
	return 1 - float64(pu.AndCardinality(pv))/float64(union)
}

// Euclidean returns the L2 norm of u - v.
func Euclidean(u, v feature.Vector) float64 {
	var sum float64
	for i := range u {
		d := float64(u[i] - v[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Manhattan returns the L1 norm of u - v.
func Manhattan(u, v feature.Vector) float64 {
	var sum float64
	for i := range u {
		sum += math.Abs(float64(u[i] - v[i]))
	}
	return sum
}

// Cosine returns 1 - cos(u, v), clamped at 0. Equal vectors give exactly 0
// and a zero vector on either side gives 1.
func Cosine(u, v feature.Vector) float64 {
	if u.Equal(v) {
		return 0
	}
	a, b := u.Float64s(), v.Float64s()
	na, nb := Dot(a, a), Dot(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - Dot(a, b)/math.Sqrt(na*nb)
	return math.Max(0, d)
}
