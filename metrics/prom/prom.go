// Package prom exports engine metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	e, _ := phonodist.New(phonodist.WithMetricsCollector(prom.New(reg)))
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "phonodist"

// Collector implements phonodist.MetricsCollector with Prometheus counters
// and histograms.
type Collector struct {
	Distances        *prometheus.CounterVec
	DistanceDuration *prometheus.HistogramVec
	CacheRequests    *prometheus.CounterVec
	Matrices         *prometheus.CounterVec
	MatrixCells      prometheus.Counter
	MatrixMissing    prometheus.Counter
	MatrixDuration   prometheus.Histogram
	Alignments       *prometheus.CounterVec
	AlignDuration    prometheus.Histogram
}

// New registers the collector's metrics with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		Distances: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distance_computations_total",
			Help:      "Distance computations that missed the cache, by method and status.",
		}, []string{"method", "status"}),
		DistanceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "distance_duration_seconds",
			Help:      "Duration of uncached distance computations.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}, []string{"method"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Distance cache lookups by result.",
		}, []string{"result"}),
		Matrices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_builds_total",
			Help:      "Distance matrix builds by status.",
		}, []string{"status"}),
		MatrixCells: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_cells_total",
			Help:      "Cells of built distance matrices.",
		}),
		MatrixMissing: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_missing_phonemes_total",
			Help:      "Matrix labels absent from the feature system.",
		}),
		MatrixDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matrix_duration_seconds",
			Help:      "Duration of distance matrix builds.",
			Buckets:   prometheus.DefBuckets,
		}),
		Alignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignments_total",
			Help:      "Pairwise alignments by status.",
		}, []string{"status"}),
		AlignDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alignment_duration_seconds",
			Help:      "Duration of pairwise alignments.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordDistance implements phonodist.MetricsCollector.
func (c *Collector) RecordDistance(method string, duration time.Duration, err error) {
	c.Distances.WithLabelValues(method, status(err)).Inc()
	c.DistanceDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCache implements phonodist.MetricsCollector.
func (c *Collector) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheRequests.WithLabelValues(result).Inc()
}

// RecordMatrix implements phonodist.MetricsCollector.
func (c *Collector) RecordMatrix(size, missing int, duration time.Duration, err error) {
	c.Matrices.WithLabelValues(status(err)).Inc()
	c.MatrixDuration.Observe(duration.Seconds())
	if err == nil {
		c.MatrixCells.Add(float64(size) * float64(size))
		c.MatrixMissing.Add(float64(missing))
	}
}

// RecordAlignment implements phonodist.MetricsCollector.
func (c *Collector) RecordAlignment(duration time.Duration, err error) {
	c.Alignments.WithLabelValues(status(err)).Inc()
	c.AlignDuration.Observe(duration.Seconds())
}
