package phonodist

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the metrics/prom package).
type MetricsCollector interface {
	// RecordDistance is called after each distance computation that missed the cache.
	RecordDistance(method string, duration time.Duration, err error)

	// RecordCache is called on every cache lookup.
	RecordCache(hit bool)

	// RecordMatrix is called after each distance matrix build.
	// size is the number of labels, missing the number absent from the table.
	RecordMatrix(size, missing int, duration time.Duration, err error)

	// RecordAlignment is called after each pairwise alignment.
	RecordAlignment(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDistance(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordCache(bool)                            {}
func (NoopMetricsCollector) RecordMatrix(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAlignment(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DistanceCount      atomic.Int64
	DistanceErrors     atomic.Int64
	DistanceTotalNanos atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
	MatrixCount        atomic.Int64
	MatrixCells        atomic.Int64
	MatrixMissing      atomic.Int64
	MatrixErrors       atomic.Int64
	AlignCount         atomic.Int64
	AlignErrors        atomic.Int64
	AlignTotalNanos    atomic.Int64
}

// RecordDistance implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDistance(_ string, duration time.Duration, err error) {
	b.DistanceCount.Add(1)
	b.DistanceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DistanceErrors.Add(1)
	}
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// RecordMatrix implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatrix(size, missing int, _ time.Duration, err error) {
	b.MatrixCount.Add(1)
	b.MatrixCells.Add(int64(size) * int64(size))
	b.MatrixMissing.Add(int64(missing))
	if err != nil {
		b.MatrixErrors.Add(1)
	}
}

// RecordAlignment implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlignment(duration time.Duration, err error) {
	b.AlignCount.Add(1)
	b.AlignTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AlignErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DistanceCount:    b.DistanceCount.Load(),
		DistanceErrors:   b.DistanceErrors.Load(),
		DistanceAvgNanos: avg(b.DistanceTotalNanos.Load(), b.DistanceCount.Load()),
		CacheHits:        b.CacheHits.Load(),
		CacheMisses:      b.CacheMisses.Load(),
		MatrixCount:      b.MatrixCount.Load(),
		MatrixCells:      b.MatrixCells.Load(),
		MatrixMissing:    b.MatrixMissing.Load(),
		MatrixErrors:     b.MatrixErrors.Load(),
		AlignCount:       b.AlignCount.Load(),
		AlignErrors:      b.AlignErrors.Load(),
		AlignAvgNanos:    avg(b.AlignTotalNanos.Load(), b.AlignCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DistanceCount    int64
	DistanceErrors   int64
	DistanceAvgNanos int64
	CacheHits        int64
	CacheMisses      int64
	MatrixCount      int64
	MatrixCells      int64
	MatrixMissing    int64
	MatrixErrors     int64
	AlignCount       int64
	AlignErrors      int64
	AlignAvgNanos    int64
}
