package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/hupe1980/phonodist/distance"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNoData is returned when there is nothing to cluster.
	ErrNoData = errors.New("no vectors to cluster")
)

// Config controls training.
type Config struct {
	// K is the number of clusters. It is clamped to the number of vectors.
	K int

	// Seed makes training reproducible.
	Seed int64

	// MaxIter bounds the Lloyd iterations of one run. Defaults to 300.
	MaxIter int

	// NInit is the number of restarts; the run with the lowest inertia wins.
	// Defaults to 10.
	NInit int
}

// Model is a trained clustering.
type Model struct {
	Centroids [][]float64
	Labels    []int
	Inertia   float64

	maxDist float64
}

// Train clusters vectors with Lloyd's algorithm. Every run starts from K
// distinct input vectors drawn from a generator seeded with cfg.Seed.
func Train(ctx context.Context, vectors [][]float64, cfg Config) (*Model, error) {
	if cfg.K <= 0 {
		return nil, ErrInvalidK
	}
	n := len(vectors)
	if n == 0 {
		return nil, ErrNoData
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 300
	}
	if cfg.NInit <= 0 {
		cfg.NInit = 10
	}
	k := min(cfg.K, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	var best *Model
	for run := 0; run < cfg.NInit; run++ {
		m, err := lloyd(ctx, vectors, k, cfg.MaxIter, rng)
		if err != nil {
			return nil, err
		}
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}
	return best, nil
}

func lloyd(ctx context.Context, vectors [][]float64, k, maxIter int, rng *rand.Rand) (*Model, error) {
	n, dim := len(vectors), len(vectors[0])

	centroids := make([][]float64, k)
	perm := rng.Perm(n)
	for j := 0; j < k; j++ {
		centroids[j] = append([]float64(nil), vectors[perm[j]]...)
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Assignment step
		changed := false
		for i, vec := range vectors {
			if c := nearest(vec, centroids); assignments[i] != c {
				assignments[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		// Update step
		for j := range sums {
			clear(sums[j])
			counts[j] = 0
		}
		for i, vec := range vectors {
			c := assignments[i]
			for d, x := range vec {
				sums[c][d] += x
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1.0 / float64(counts[j])
				for d := range centroids[j] {
					centroids[j][d] = sums[j][d] * scale
				}
			} else {
				// Re-seed an empty cluster from a random point.
				copy(centroids[j], vectors[rng.Intn(n)])
			}
		}
	}

	m := &Model{Centroids: centroids, Labels: make([]int, n)}
	for i, vec := range vectors {
		c := nearest(vec, centroids)
		m.Labels[i] = c
		m.Inertia += distance.SquaredL2(vec, centroids[c])
	}
	m.maxDist = m.MaxCentroidDistance()
	return m, nil
}

// nearest returns the closest centroid; ties go to the lowest index.
func nearest(vec []float64, centroids [][]float64) int {
	best, minDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := distance.SquaredL2(vec, c); d < minDist {
			best, minDist = j, d
		}
	}
	return best
}

// Assign returns the closest centroid to vec.
func (m *Model) Assign(vec []float64) int {
	return nearest(vec, m.Centroids)
}

// CentroidDistance returns the Euclidean distance between centroids i and j.
func (m *Model) CentroidDistance(i, j int) float64 {
	return math.Sqrt(distance.SquaredL2(m.Centroids[i], m.Centroids[j]))
}

// MaxCentroidDistance returns the largest pairwise centroid distance.
func (m *Model) MaxCentroidDistance() float64 {
	var maxDist float64
	for i := range m.Centroids {
		for j := i + 1; j < len(m.Centroids); j++ {
			maxDist = math.Max(maxDist, m.CentroidDistance(i, j))
		}
	}
	return maxDist
}

// NormalizedDistance returns the distance between the clusters of two labels
// scaled by MaxCentroidDistance. It is 0 for equal labels and when every
// centroid coincides.
func (m *Model) NormalizedDistance(i, j int) float64 {
	if i == j || m.maxDist == 0 {
		return 0
	}
	return m.CentroidDistance(i, j) / m.maxDist
}
