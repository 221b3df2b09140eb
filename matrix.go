package phonodist

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/phonodist/distance"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/internal/resource"
	"github.com/hupe1980/phonodist/matrix"
)

// ErrMemoryLimitExceeded is returned when a matrix would exceed the memory
// limit configured with WithMemoryLimit.
var ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

// BuildDistanceMatrix returns the symmetric distance matrix of phonemes,
// labelled in input order. A nil phonemes slice selects every entry of the
// feature system in lexicographic order; an empty one yields a 0x0 matrix.
//
// A phoneme missing from the feature system never fails the build: its
// distance to every other label is 1 when normalizing (and for kmeans), and
// +Inf otherwise. The diagonal is always 0. Rows are computed in parallel,
// bounded by WithWorkers; the result does not depend on the parallelism.
func (e *Engine) BuildDistanceMatrix(ctx context.Context, phonemes []string, optFns ...func(o *DistanceOptions)) (*matrix.Matrix, error) {
	start := time.Now()

	p, err := e.plan(ctx, phonemes, optFns)
	if err != nil {
		e.metrics.RecordMatrix(len(phonemes), 0, time.Since(start), err)
		e.logger.LogMatrix(ctx, len(phonemes), 0, "", err)
		return nil, err
	}

	m, err := e.fill(ctx, p)
	e.metrics.RecordMatrix(len(p.labels), p.missing, time.Since(start), err)
	e.logger.LogMatrix(ctx, len(p.labels), p.missing, p.method.Name(), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// matrixPlan is everything a matrix build resolves before computing cells.
type matrixPlan struct {
	opts     DistanceOptions
	method   distance.Method
	sys      *feature.System
	labels   []string
	keys     []string
	present  []bool
	missing  int
	clusters *clusterModel
}

func (e *Engine) plan(ctx context.Context, phonemes []string, optFns []func(o *DistanceOptions)) (*matrixPlan, error) {
	o, err := e.distanceOptions(optFns)
	if err != nil {
		return nil, err
	}
	m, err := e.methods.Lookup(o.Method)
	if err != nil {
		return nil, translateError(err)
	}
	sys, err := e.System(ctx, o.System)
	if err != nil {
		return nil, err
	}

	labels := phonemes
	if labels == nil {
		labels = sys.Phonemes()
	}

	p := &matrixPlan{
		opts:    o,
		method:  m,
		sys:     sys,
		labels:  labels,
		keys:    make([]string, len(labels)),
		present: make([]bool, len(labels)),
	}
	for i, l := range labels {
		p.keys[i] = e.Normalize(l)
		p.present[i] = sys.Contains(p.keys[i])
		if !p.present[i] {
			p.missing++
			if o.OnError == feature.Warn {
				_ = e.features.Missing(p.keys[i], sys.Name(), feature.Warn)
			}
		}
	}
	// Missing phonemes are substituted, never reported per cell.
	p.opts.OnError = feature.Ignore

	if m.Kind() == distance.KindKMeans {
		// One model for the whole matrix keeps cluster labels consistent.
		if p.clusters, err = e.clusterModel(ctx, sys, o.Clusters); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *matrixPlan) maxDistance() float64 {
	if p.opts.Normalize || p.clusters != nil {
		return 1
	}
	return math.Inf(1)
}

func (e *Engine) cell(ctx context.Context, p *matrixPlan, i, j int) (float64, error) {
	if !p.present[i] || !p.present[j] {
		return p.maxDistance(), nil
	}
	if p.clusters != nil {
		return p.clusters.distance(p.keys[i], p.keys[j]), nil
	}
	d, ok, err := e.distance(ctx, p.sys, p.method, p.keys[i], p.keys[j], p.opts)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.maxDistance(), nil
	}
	return d, nil
}

func (e *Engine) fill(ctx context.Context, p *matrixPlan) (*matrix.Matrix, error) {
	n := len(p.labels)
	size := matrix.Bytes(n)
	if err := e.rc.AcquireMemory(size); err != nil {
		return nil, fmt.Errorf("distance matrix of %d phonemes: %w", n, err)
	}
	defer e.rc.ReleaseMemory(size)

	m := matrix.New(p.labels)

	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error
	for i := 0; i < n; i++ {
		// One worker slot per row; rows wait here while all slots are busy.
		if acquireErr = e.rc.AcquireWorker(gctx); acquireErr != nil {
			break
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()
			if err := gctx.Err(); err != nil {
				return err
			}
			// Row i owns cells (i, j) and (j, i) for j > i.
			for j := i + 1; j < n; j++ {
				d, err := e.cell(gctx, p, i, j)
				if err != nil {
					return err
				}
				m.Set(i, j, d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if acquireErr != nil {
		return nil, acquireErr
	}
	return m, nil
}

// Matrix creates a fluent distance matrix builder over phonemes.
//
// Example:
//
//	m, err := e.Matrix("p", "b", "t", "d").
//	    Method("euclidean").
//	    Normalize(true).
//	    Build(ctx)
//
//	// Or pair by pair, without holding the matrix:
//	for pair, err := range e.Matrix().Method("hamming").Stream(ctx) {
//	    if err != nil { break }
//	    process(pair)
//	}
func (e *Engine) Matrix(phonemes ...string) *MatrixBuilder {
	return &MatrixBuilder{e: e, phonemes: phonemes}
}

// MatrixBuilder is a fluent builder for distance matrices.
type MatrixBuilder struct {
	e        *Engine
	phonemes []string
	optFns   []func(o *DistanceOptions)
}

// Method sets the distance method.
func (mb *MatrixBuilder) Method(name string) *MatrixBuilder {
	mb.optFns = append(mb.optFns, func(o *DistanceOptions) { o.Method = name })
	return mb
}

// Normalize sets the normalize flag.
func (mb *MatrixBuilder) Normalize(normalize bool) *MatrixBuilder {
	mb.optFns = append(mb.optFns, func(o *DistanceOptions) { o.Normalize = normalize })
	return mb
}

// Clusters sets the cluster count of the kmeans method.
func (mb *MatrixBuilder) Clusters(k int) *MatrixBuilder {
	mb.optFns = append(mb.optFns, func(o *DistanceOptions) { o.Clusters = k })
	return mb
}

// System selects the feature system.
func (mb *MatrixBuilder) System(name string) *MatrixBuilder {
	mb.optFns = append(mb.optFns, func(o *DistanceOptions) { o.System = name })
	return mb
}

// NoCache bypasses the distance cache.
func (mb *MatrixBuilder) NoCache() *MatrixBuilder {
	mb.optFns = append(mb.optFns, func(o *DistanceOptions) { o.NoCache = true })
	return mb
}

// Build computes the matrix.
func (mb *MatrixBuilder) Build(ctx context.Context) (*matrix.Matrix, error) {
	return mb.e.BuildDistanceMatrix(ctx, mb.phonemes, mb.optFns...)
}

// MustBuild computes the matrix, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (mb *MatrixBuilder) MustBuild(ctx context.Context) *matrix.Matrix {
	m, err := mb.Build(ctx)
	if err != nil {
		panic(err)
	}
	return m
}

// Pair is one off-diagonal matrix cell.
type Pair struct {
	A, B     string
	Distance float64
}

// Stream yields every unordered pair (i < j) in row-major order, computing
// cells one at a time. Breaking out of the loop stops the computation.
func (mb *MatrixBuilder) Stream(ctx context.Context) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		p, err := mb.e.plan(ctx, mb.phonemes, mb.optFns)
		if err != nil {
			yield(Pair{}, err)
			return
		}
		n := len(p.labels)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if err := ctx.Err(); err != nil {
					yield(Pair{}, err)
					return
				}
				d, err := mb.e.cell(ctx, p, i, j)
				if err != nil {
					yield(Pair{}, err)
					return
				}
				if !yield(Pair{A: p.labels[i], B: p.labels[j], Distance: d}, nil) {
					return
				}
			}
		}
	}
}

// Nearest returns the k labels closest to phoneme among the builder's
// phonemes (all table entries when none were given).
func (mb *MatrixBuilder) Nearest(ctx context.Context, phoneme string, k int) ([]string, error) {
	phonemes := mb.phonemes
	if len(phonemes) == 0 {
		phoneme = mb.e.Normalize(phoneme)
	} else if !slices.Contains(phonemes, phoneme) {
		phonemes = append([]string{phoneme}, phonemes...)
	}
	m, err := mb.e.BuildDistanceMatrix(ctx, phonemes, mb.optFns...)
	if err != nil {
		return nil, err
	}
	return m.Nearest(phoneme, k)
}

