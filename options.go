package phonodist

import (
	"log/slog"

	"github.com/hupe1980/phonodist/config"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/normalize"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	loader           feature.Loader
	normalizer       *normalize.Normalizer

	cacheSize int
	clusters  int
	seed      int64
	workers   int
	memLimit  int64
	ioLimit   int64

	method     string
	normalize  bool
	onError    feature.OnError
	system     string
	gapPenalty float64
}

// Option configures an Engine.
type Option func(*options)

// WithConfig applies every setting of cfg. Options passed after it override
// individual settings. cfg is expected to be validated; unparsable fields
// keep their defaults.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.method = cfg.DefaultMethod
		o.normalize = cfg.Normalize
		o.cacheSize = cfg.CacheSize
		o.clusters = cfg.KMeansClusters
		o.seed = cfg.KMeansSeed
		o.gapPenalty = cfg.GapPenalty
		o.workers = cfg.Workers
		if policy, err := cfg.ErrorPolicy(); err == nil {
			o.onError = policy
		}
		if level, err := cfg.SlogLevel(); err == nil {
			o.logger = NewTextLogger(level)
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &phonodist.BasicMetricsCollector{}
//	e, _ := phonodist.New(phonodist.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Distances: %d, cache hits: %d\n", stats.DistanceCount, stats.CacheHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithFeatureLoader replaces the loader of the default feature system. The
// loader runs once, on first use.
func WithFeatureLoader(loader feature.Loader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithNormalizer sets the normalizer applied to phonemes before lookup.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *options) {
		o.normalizer = n
	}
}

// WithCacheSize bounds the number of memoized distances. Must be positive.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithKMeansClusters sets the default cluster count of the kmeans method.
func WithKMeansClusters(k int) Option {
	return func(o *options) {
		o.clusters = k
	}
}

// WithKMeansSeed sets the seed of the kmeans method.
func WithKMeansSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers bounds the number of concurrent matrix row workers.
// Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMemoryLimit caps the bytes a matrix build may reserve. Zero means no limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memLimit = bytes
	}
}

// WithIOLimit throttles SaveMatrix and SaveAlignments to bytesPerSec.
// Zero disables the limit.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithDefaultMethod sets the method used when a call names none.
func WithDefaultMethod(name string) Option {
	return func(o *options) {
		o.method = name
	}
}

// WithNormalize sets the default normalize flag.
func WithNormalize(normalize bool) Option {
	return func(o *options) {
		o.normalize = normalize
	}
}

// WithOnError sets the default policy for phonemes missing from the table.
func WithOnError(policy feature.OnError) Option {
	return func(o *options) {
		o.onError = policy
	}
}

// WithDefaultSystem selects the feature system used when a call names none.
func WithDefaultSystem(name string) Option {
	return func(o *options) {
		o.system = name
	}
}

// WithGapPenalty sets the default alignment gap penalty.
func WithGapPenalty(p float64) Option {
	return func(o *options) {
		o.gapPenalty = p
	}
}

func applyOptions(optFns []Option) options {
	def := config.Default()
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		normalizer:       normalize.Default,
		cacheSize:        def.CacheSize,
		clusters:         def.KMeansClusters,
		seed:             def.KMeansSeed,
		method:           def.DefaultMethod,
		normalize:        def.Normalize,
		onError:          feature.Warn,
		system:           feature.DefaultSystem,
		gapPenalty:       def.GapPenalty,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.normalizer == nil {
		o.normalizer = normalize.Default
	}
	return o
}
