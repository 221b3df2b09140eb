package phonodist

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/phonodist/distance"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/internal/kmeans"
)

// DistanceOptions configures a distance query.
type DistanceOptions struct {
	LookupOptions

	// Method names a registered distance method.
	Method string

	// Normalize scales results into [0, 1].
	Normalize bool

	// Clusters is the cluster count of the kmeans method.
	Clusters int

	// NoCache bypasses the distance cache for this query.
	NoCache bool
}

type cacheKey struct {
	a, b       string
	method     string
	generation uint64
	system     string
	normalize  bool
	clusters   int
}

func (e *Engine) distanceOptions(optFns []func(o *DistanceOptions)) (DistanceOptions, error) {
	o := e.defaults
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Clusters <= 0 {
		return o, &ConfigError{Field: "clusters", Value: o.Clusters}
	}
	return o, nil
}

// Distance returns the distance between two phonemes. Both are normalized
// before lookup. If either is missing from the feature system, the OnError
// policy decides between a PhonemeNotFoundError and ok == false. The kmeans
// method instead reports the maximum distance 1 for missing phonemes.
//
// Example:
//
//	d, ok, err := e.Distance(ctx, "p", "b", func(o *phonodist.DistanceOptions) {
//	    o.Method = "euclidean"
//	})
func (e *Engine) Distance(ctx context.Context, a, b string, optFns ...func(o *DistanceOptions)) (float64, bool, error) {
	o, err := e.distanceOptions(optFns)
	if err != nil {
		return 0, false, err
	}
	m, err := e.methods.Lookup(o.Method)
	if err != nil {
		return 0, false, translateError(err)
	}
	sys, err := e.System(ctx, o.System)
	if err != nil {
		return 0, false, err
	}

	na, nb := e.Normalize(a), e.Normalize(b)
	d, ok, err := e.distance(ctx, sys, m, na, nb, o)
	if err != nil {
		e.logger.LogDistance(ctx, na, nb, m.Name(), 0, err)
	}
	return d, ok, err
}

// distance computes the distance of two normalized phonemes, going through
// the cache unless o.NoCache is set. Absent results are not cached.
func (e *Engine) distance(ctx context.Context, sys *feature.System, m distance.Method, a, b string, o DistanceOptions) (float64, bool, error) {
	key := cacheKey{
		a:          a,
		b:          b,
		method:     m.Name(),
		generation: m.Generation(),
		system:     sys.Name(),
		normalize:  o.Normalize,
	}
	if m.Kind() == distance.KindKMeans {
		key.clusters = o.Clusters
	}

	if !o.NoCache {
		d, hit := e.cache.Get(key)
		e.metrics.RecordCache(hit)
		if hit {
			return d, true, nil
		}
	}

	start := time.Now()
	d, ok, err := e.compute(ctx, sys, m, a, b, o)
	e.metrics.RecordDistance(m.Name(), time.Since(start), err)
	if err != nil || !ok {
		return 0, ok, err
	}

	e.logger.LogDistance(ctx, a, b, m.Name(), d, nil)
	if !o.NoCache {
		e.cache.Set(key, d)
	}
	return d, true, nil
}

func (e *Engine) compute(ctx context.Context, sys *feature.System, m distance.Method, a, b string, o DistanceOptions) (float64, bool, error) {
	if m.Kind() == distance.KindKMeans {
		cm, err := e.clusterModel(ctx, sys, o.Clusters)
		if err != nil {
			return 0, false, err
		}
		return cm.distance(a, b), true, nil
	}

	u, err := e.lookup(sys, a, o.OnError)
	if err != nil || u == nil {
		return 0, false, err
	}
	v, err := e.lookup(sys, b, o.OnError)
	if err != nil || v == nil {
		return 0, false, err
	}

	d, err := m.Compute(u, v, o.Normalize)
	if err != nil {
		return 0, false, translateError(err)
	}
	return d, true, nil
}

type modelKey struct {
	system   string
	clusters int
}

// clusterModel is a k-means clustering of every phoneme of one system.
type clusterModel struct {
	model  *kmeans.Model
	labels map[string]int
}

func (cm *clusterModel) label(phoneme string) (int, bool) {
	l, ok := cm.labels[phoneme]
	return l, ok
}

// distance returns the normalized centroid distance of two phonemes, or 1
// when either is not part of the model.
func (cm *clusterModel) distance(a, b string) float64 {
	la, ok := cm.label(a)
	if !ok {
		return 1
	}
	lb, ok := cm.label(b)
	if !ok {
		return 1
	}
	return cm.model.NormalizedDistance(la, lb)
}

// clusterModel returns the k-means model of sys, training it once. Concurrent
// callers share one training run.
func (e *Engine) clusterModel(ctx context.Context, sys *feature.System, k int) (*clusterModel, error) {
	key := modelKey{system: sys.Name(), clusters: k}

	e.mu.RLock()
	cm, ok := e.models[key]
	e.mu.RUnlock()
	if ok {
		return cm, nil
	}

	v, err, _ := e.group.Do(fmt.Sprintf("%s/%d", key.system, key.clusters), func() (any, error) {
		e.mu.RLock()
		cm, ok := e.models[key]
		e.mu.RUnlock()
		if ok {
			return cm, nil
		}

		phonemes, rows := sys.AsMatrix()
		model, err := kmeans.Train(ctx, rows, kmeans.Config{K: k, Seed: e.seed})
		if err != nil {
			return nil, translateError(err)
		}

		cm = &clusterModel{model: model, labels: make(map[string]int, len(phonemes))}
		for i, p := range phonemes {
			cm.labels[p] = model.Labels[i]
		}

		e.mu.Lock()
		e.models[key] = cm
		e.mu.Unlock()

		e.logger.InfoContext(ctx, "cluster model trained",
			"system", key.system,
			"clusters", len(model.Centroids),
			"inertia", model.Inertia,
		)
		return cm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*clusterModel), nil
}

// RegisterMethod adds a custom distance method, replacing any method of the
// same name, builtins included. Cached results of that name are dropped.
func (e *Engine) RegisterMethod(ctx context.Context, name string, fn distance.Func, optFns ...distance.CustomOption) error {
	if name == "" {
		return &ConfigError{Field: "method", Value: name}
	}
	if fn == nil {
		return &ConfigError{Field: "method_func", Value: nil}
	}

	replaced := e.methods.Register(distance.Custom(name, fn, optFns...))
	invalidated := e.cache.Invalidate(func(k cacheKey) bool { return k.method == name })
	e.logger.LogMethodRegistered(ctx, name, replaced, invalidated)
	return nil
}

// AvailableMethods returns the builtin and registered method names in
// lexicographic order.
func (e *Engine) AvailableMethods() []string {
	return e.methods.Names()
}

// IsBuiltinMethod reports whether name currently resolves to a builtin method.
func (e *Engine) IsBuiltinMethod(name string) bool {
	m, err := e.methods.Lookup(name)
	return err == nil && m.IsBuiltin()
}

// BuiltinMethods returns the builtin method names.
func BuiltinMethods() []string {
	names := make([]string, len(distance.Builtins))
	for i, k := range distance.Builtins {
		names[i] = k.String()
	}
	slices.Sort(names)
	return names
}
