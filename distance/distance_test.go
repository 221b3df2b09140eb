package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phonodist/feature"
)

const (
	P = feature.Positive
	N = feature.Negative
	U = feature.Undefined
)

func TestKernels(t *testing.T) {
	u := feature.Vector{P, N, U, P}
	v := feature.Vector{P, P, N, U}

	tests := []struct {
		name     string
		fn       Func
		expected float64
	}{
		{"Hamming", Hamming, 3},
		{"Jaccard", Jaccard, 1 - 1.0/3.0},
		{"Euclidean", Euclidean, math.Sqrt(4 + 1 + 1)},
		{"Manhattan", Manhattan, 4},
		{"Cosine", Cosine, 1 - 0.0/math.Sqrt(3*3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.fn(u, v), 1e-12)
		})
	}
}

func TestJaccard_EmptyUnion(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(feature.Vector{N, U}, feature.Vector{U, N}))
}

func TestCosine_EdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(feature.Vector{P, N, P}, feature.Vector{P, N, P}))
	assert.Equal(t, 0.0, Cosine(feature.Vector{U, U}, feature.Vector{U, U}))
	assert.Equal(t, 1.0, Cosine(feature.Vector{U, U}, feature.Vector{P, U}))
	assert.InDelta(t, 2.0, Cosine(feature.Vector{P, N}, feature.Vector{N, P}), 1e-12)
}

func TestMethod_Normalize(t *testing.T) {
	u := feature.Vector{P, P, P, P}
	v := feature.Vector{N, N, N, N}

	tests := []struct {
		kind      Kind
		raw, norm float64
	}{
		{KindHamming, 4, 1},
		{KindEuclidean, 4, 1},
		{KindManhattan, 8, 1},
		{KindCosine, 2, 1},
		{KindJaccard, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			m := Builtin(tt.kind)

			raw, err := m.Compute(u, v, false)
			require.NoError(t, err)
			assert.InDelta(t, tt.raw, raw, 1e-12)

			norm, err := m.Compute(u, v, true)
			require.NoError(t, err)
			assert.InDelta(t, tt.norm, norm, 1e-12)
		})
	}

	t.Run("one opposite position", func(t *testing.T) {
		u := feature.Vector{P, U, U, U}
		v := feature.Vector{N, U, U, U}

		d, err := Builtin(KindEuclidean).Compute(u, v, true)
		require.NoError(t, err)
		assert.InDelta(t, 2/(2*math.Sqrt(4)), d, 1e-12)

		d, err = Builtin(KindManhattan).Compute(u, v, true)
		require.NoError(t, err)
		assert.InDelta(t, 2.0/(2*4), d, 1e-12)

		d, err = Builtin(KindHamming).Compute(u, v, true)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, d, 1e-12)
	})
}

func TestMethod_Custom(t *testing.T) {
	u := feature.Vector{P, N, U, P}
	v := feature.Vector{P, P, N, U}
	count := func(a, b feature.Vector) float64 { return Hamming(a, b) }

	m := Custom("count", count)
	assert.False(t, m.IsBuiltin())
	assert.Equal(t, KindCustom, m.Kind())

	d, err := m.Compute(u, v, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, d, 1e-12)

	self := Custom("self", func(a, b feature.Vector) float64 { return 0.4 }, WithSelfNormalizing())
	d, err = self.Compute(u, v, true)
	require.NoError(t, err)
	assert.Equal(t, 0.4, d)

	bad := Custom("bad", func(a, b feature.Vector) float64 { return -1 })
	_, err = bad.Compute(u, v, false)
	assert.ErrorIs(t, err, ErrInvalidResult)

	nan := Custom("nan", func(a, b feature.Vector) float64 { return math.NaN() })
	_, err = nan.Compute(u, v, false)
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestMethod_Errors(t *testing.T) {
	_, err := Builtin(KindKMeans).Compute(feature.Vector{P}, feature.Vector{P}, true)
	assert.ErrorIs(t, err, ErrNeedsModel)

	_, err = Builtin(KindHamming).Compute(feature.Vector{P}, feature.Vector{P, N}, true)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"cosine", "euclidean", "hamming", "jaccard", "kmeans", "manhattan"}, r.Names())

	m, err := r.Lookup("hamming")
	require.NoError(t, err)
	assert.Equal(t, KindHamming, m.Kind())

	_, err = r.Lookup("levenshtein")
	var ue *UnknownMethodError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "levenshtein", ue.Name)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	replaced := r.Register(Custom("weighted", func(a, b feature.Vector) float64 { return 1 }))
	assert.False(t, replaced)
	assert.Contains(t, r.Names(), "weighted")

	replaced = r.Register(Custom("weighted", func(a, b feature.Vector) float64 { return 2 }))
	assert.True(t, replaced)

	m, err = r.Lookup("weighted")
	require.NoError(t, err)
	d, err := m.Compute(feature.Vector{P}, feature.Vector{N}, false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)

	t.Run("generation", func(t *testing.T) {
		before, err := r.Lookup("weighted")
		require.NoError(t, err)

		r.Register(Custom("weighted", func(a, b feature.Vector) float64 { return 3 }))
		after, err := r.Lookup("weighted")
		require.NoError(t, err)

		assert.Greater(t, after.Generation(), before.Generation())
	})
}

func TestProperties_DefaultTable(t *testing.T) {
	sys, err := feature.LoadDefault()
	require.NoError(t, err)

	phonemes := sys.Phonemes()
	vecs := make([]feature.Vector, len(phonemes))
	for i, p := range phonemes {
		vecs[i], _ = sys.Vector(p)
	}

	kinds := []Kind{KindHamming, KindJaccard, KindEuclidean, KindCosine, KindManhattan}
	for _, k := range kinds {
		m := Builtin(k)
		t.Run(k.String(), func(t *testing.T) {
			for i := range vecs {
				self, err := m.Compute(vecs[i], vecs[i], true)
				require.NoError(t, err)
				assert.Equal(t, 0.0, self, phonemes[i])

				for j := i + 1; j < len(vecs); j++ {
					ab, err := m.Compute(vecs[i], vecs[j], true)
					require.NoError(t, err)
					ba, err := m.Compute(vecs[j], vecs[i], true)
					require.NoError(t, err)

					assert.Equal(t, ab, ba)
					assert.GreaterOrEqual(t, ab, 0.0)
					assert.LessOrEqual(t, ab, 1.0)
				}
			}
		})
	}
}

func TestTriangleInequality_DefaultTable(t *testing.T) {
	sys, err := feature.LoadDefault()
	require.NoError(t, err)

	sample := []string{"p", "b", "t", "d", "s", "z", "m", "n", "a", "i", "u", "l"}
	vecs := make([]feature.Vector, len(sample))
	for i, p := range sample {
		var ok bool
		vecs[i], ok = sys.Vector(p)
		require.True(t, ok, p)
	}

	for _, k := range []Kind{KindHamming, KindEuclidean, KindManhattan} {
		m := Builtin(k)
		t.Run(k.String(), func(t *testing.T) {
			for _, a := range vecs {
				for _, b := range vecs {
					for _, c := range vecs {
						ab, _ := m.Compute(a, b, true)
						bc, _ := m.Compute(b, c, true)
						ac, _ := m.Compute(a, c, true)
						assert.LessOrEqual(t, ac, ab+bc+1e-9)
					}
				}
			}
		})
	}
}
