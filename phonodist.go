package phonodist

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/phonodist/distance"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/internal/cache"
	"github.com/hupe1980/phonodist/internal/resource"
	"github.com/hupe1980/phonodist/normalize"
)

// Engine owns the feature systems, the distance method registry, the
// distance cache and the cluster models. It is safe for concurrent use.
type Engine struct {
	features   *feature.Registry
	methods    *distance.Registry
	cache      *cache.LRU[cacheKey, float64]
	normalizer *normalize.Normalizer
	rc         *resource.Controller
	metrics    MetricsCollector
	logger     *Logger

	defaults   DistanceOptions
	seed       int64
	gapPenalty float64

	group  singleflight.Group
	mu     sync.RWMutex
	models map[modelKey]*clusterModel
}

// New creates an Engine. The default feature table is loaded on first use.
func New(optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	if o.clusters <= 0 {
		return nil, &ConfigError{Field: "kmeans_clusters", Value: o.clusters}
	}
	if o.gapPenalty < 0 {
		return nil, &ConfigError{Field: "gap_penalty", Value: o.gapPenalty}
	}
	if o.workers < 0 {
		return nil, &ConfigError{Field: "workers", Value: o.workers}
	}
	if o.memLimit < 0 {
		return nil, &ConfigError{Field: "memory_limit", Value: o.memLimit}
	}
	if o.ioLimit < 0 {
		return nil, &ConfigError{Field: "io_limit", Value: o.ioLimit}
	}

	c, err := cache.NewLRU[cacheKey, float64](o.cacheSize)
	if err != nil {
		return nil, &ConfigError{Field: "cache_size", Value: o.cacheSize, cause: err}
	}

	methods := distance.NewRegistry()
	if _, err := methods.Lookup(o.method); err != nil {
		return nil, translateError(err)
	}

	return &Engine{
		features:   feature.NewRegistry(o.loader, o.logger.Logger),
		methods:    methods,
		cache:      c,
		normalizer: o.normalizer,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memLimit,
			Workers:            int64(o.workers),
			IOLimitBytesPerSec: o.ioLimit,
		}),
		metrics: o.metricsCollector,
		logger:  o.logger,
		defaults: DistanceOptions{
			LookupOptions: LookupOptions{System: o.system, OnError: o.onError},
			Method:        o.method,
			Normalize:     o.normalize,
			Clusters:      o.clusters,
		},
		seed:       o.seed,
		gapPenalty: o.gapPenalty,
		models:     make(map[modelKey]*clusterModel),
	}, nil
}

// LookupOptions select the feature system and the policy for missing phonemes.
type LookupOptions struct {
	// System names the feature system. Empty selects the engine default.
	System string

	// OnError decides how a missing phoneme is reported.
	OnError feature.OnError
}

// Normalize canonicalizes a phonetic string with the engine's normalizer.
func (e *Engine) Normalize(text string) string {
	return e.normalizer.Normalize(text)
}

// System returns a feature system by name. An empty name selects the engine
// default.
func (e *Engine) System(ctx context.Context, name string) (*feature.System, error) {
	if name == "" {
		name = e.defaults.System
	}
	sys, err := e.features.System(ctx, name)
	return sys, translateError(err)
}

// Systems returns the names of every registered feature system.
func (e *Engine) Systems() []string {
	return e.features.Names()
}

// Lookup returns the feature vector of phoneme. The phoneme is normalized
// first. When it is missing, Raise returns a PhonemeNotFoundError and the
// other policies report ok == false.
func (e *Engine) Lookup(ctx context.Context, phoneme string, optFns ...func(o *LookupOptions)) (feature.Vector, bool, error) {
	sys, o, err := e.resolveLookup(ctx, optFns)
	if err != nil {
		return nil, false, err
	}
	vec, err := e.lookup(sys, e.Normalize(phoneme), o.OnError)
	if err != nil {
		return nil, false, err
	}
	return vec, vec != nil, nil
}

// Features returns the named feature values of phoneme.
func (e *Engine) Features(ctx context.Context, phoneme string, optFns ...func(o *LookupOptions)) (map[string]feature.Value, bool, error) {
	sys, o, err := e.resolveLookup(ctx, optFns)
	if err != nil {
		return nil, false, err
	}
	p := e.Normalize(phoneme)
	if _, err := e.lookup(sys, p, o.OnError); err != nil {
		return nil, false, err
	}
	values, ok := sys.Features(p)
	return values, ok, nil
}

func (e *Engine) resolveLookup(ctx context.Context, optFns []func(o *LookupOptions)) (*feature.System, LookupOptions, error) {
	o := e.defaults.LookupOptions
	for _, fn := range optFns {
		fn(&o)
	}
	sys, err := e.System(ctx, o.System)
	return sys, o, err
}

func (e *Engine) lookup(sys *feature.System, phoneme string, policy feature.OnError) (feature.Vector, error) {
	if vec, ok := sys.Vector(phoneme); ok {
		return vec, nil
	}
	return nil, translateError(e.features.Missing(phoneme, sys.Name(), policy))
}

// ReverseLookup returns the phoneme whose features best match a partial
// feature set, if its score reaches threshold. The score of an entry is the
// number of matching features divided by the number of features named.
// Equal scores resolve to the lexicographically smallest phoneme.
func (e *Engine) ReverseLookup(ctx context.Context, features map[string]feature.Value, threshold float64, system string) (string, bool, error) {
	sys, err := e.System(ctx, system)
	if err != nil {
		return "", false, err
	}
	p, ok := sys.Reverse(features, threshold)
	return p, ok, nil
}

// FeatureNames returns the canonical feature order of a system.
func (e *Engine) FeatureNames(ctx context.Context, system string) ([]string, error) {
	sys, err := e.System(ctx, system)
	if err != nil {
		return nil, err
	}
	return sys.FeatureNames(), nil
}

// AllPhonemes returns every phoneme of a system in lexicographic order.
func (e *Engine) AllPhonemes(ctx context.Context, system string) ([]string, error) {
	sys, err := e.System(ctx, system)
	if err != nil {
		return nil, err
	}
	return sys.Phonemes(), nil
}

// LoadCustomSystem parses a delimited feature table and registers it under
// name, replacing any system of that name.
func (e *Engine) LoadCustomSystem(ctx context.Context, path, name string, opts feature.CustomOptions) (*feature.System, error) {
	sys, err := feature.LoadCustomSystem(path, name, opts)
	e.logger.LogSystemLoad(ctx, name, path, err)
	if err != nil {
		return nil, translateError(err)
	}
	e.RegisterSystem(sys)
	return sys, nil
}

// RegisterSystem adds sys, replacing any system of the same name. Cached
// distances and cluster models of the replaced system are dropped.
func (e *Engine) RegisterSystem(sys *feature.System) {
	e.features.Register(sys)

	name := sys.Name()
	e.cache.Invalidate(func(k cacheKey) bool { return k.system == name })

	e.mu.Lock()
	for k := range e.models {
		if k.system == name {
			delete(e.models, k)
		}
	}
	e.mu.Unlock()
}

// CacheStats is a point-in-time view of the distance cache.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}

// CacheStats returns the distance cache counters.
func (e *Engine) CacheStats() CacheStats {
	s := e.cache.Stats()
	return CacheStats{
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		Size:      s.Size,
		Capacity:  s.Capacity,
	}
}

// ClearCache drops every cached distance.
func (e *Engine) ClearCache() {
	e.cache.Purge()
}

func (e *Engine) String() string {
	return fmt.Sprintf("phonodist.Engine{method=%s, normalize=%t, system=%s}",
		e.defaults.Method, e.defaults.Normalize, e.defaults.System)
}
