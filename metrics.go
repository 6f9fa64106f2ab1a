package vecdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the prom
// subpackage provides a Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// count is the number of vectors added, duration is the total time
	// taken including queueing, err is nil if successful.
	RecordAdd(count int, duration time.Duration, err error)

	// RecordTrain is called after each train operation.
	RecordTrain(count int, duration time.Duration, err error)

	// RecordSearch is called after each single-query search.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordSearchBatch is called after each batch search.
	// queries is the number of queries in the batch.
	RecordSearchBatch(queries, k int, duration time.Duration, err error)

	// RecordRangeSearch is called after each range search.
	RecordRangeSearch(duration time.Duration, err error)

	// RecordMerge is called after each merge operation.
	// added is the number of vectors merged into the destination.
	RecordMerge(added int, duration time.Duration, err error)

	// RecordSnapshot is called after each serialization operation
	// (to_buffer, save, save_store, load). bytes is the snapshot size.
	RecordSnapshot(op string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)                {}
func (NoopMetricsCollector) RecordTrain(int, time.Duration, error)              {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)             {}
func (NoopMetricsCollector) RecordSearchBatch(int, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordRangeSearch(time.Duration, error)             {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration, error)              {}
func (NoopMetricsCollector) RecordSnapshot(string, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	AddVectors       atomic.Int64
	AddTotalNanos    atomic.Int64
	TrainCount       atomic.Int64
	TrainErrors      atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchQueries     atomic.Int64
	BatchErrors      atomic.Int64
	RangeCount       atomic.Int64
	RangeErrors      atomic.Int64
	MergeCount       atomic.Int64
	MergeErrors      atomic.Int64
	MergedVectors    atomic.Int64
	SnapshotCount    atomic.Int64
	SnapshotErrors   atomic.Int64
	SnapshotBytes    atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(count int, duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
		return
	}
	b.AddVectors.Add(int64(count))
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(count int, duration time.Duration, err error) {
	b.TrainCount.Add(1)
	if err != nil {
		b.TrainErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSearchBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearchBatch(queries, k int, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchQueries.Add(int64(queries))
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordRangeSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeSearch(duration time.Duration, err error) {
	b.RangeCount.Add(1)
	if err != nil {
		b.RangeErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(added int, duration time.Duration, err error) {
	b.MergeCount.Add(1)
	if err != nil {
		b.MergeErrors.Add(1)
		return
	}
	b.MergedVectors.Add(int64(added))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, bytes int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddVectors:     b.AddVectors.Load(),
		AddAvgNanos:    avgNanos(b.AddTotalNanos.Load(), b.AddCount.Load()),
		TrainCount:     b.TrainCount.Load(),
		TrainErrors:    b.TrainErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avgNanos(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		BatchCount:     b.BatchCount.Load(),
		BatchQueries:   b.BatchQueries.Load(),
		BatchErrors:    b.BatchErrors.Load(),
		RangeCount:     b.RangeCount.Load(),
		RangeErrors:    b.RangeErrors.Load(),
		MergeCount:     b.MergeCount.Load(),
		MergeErrors:    b.MergeErrors.Load(),
		MergedVectors:  b.MergedVectors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddVectors     int64
	AddAvgNanos    int64
	TrainCount     int64
	TrainErrors    int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	BatchCount     int64
	BatchQueries   int64
	BatchErrors    int64
	RangeCount     int64
	RangeErrors    int64
	MergeCount     int64
	MergeErrors    int64
	MergedVectors  int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
}
