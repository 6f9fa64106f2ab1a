// Package prom exports handle metrics to Prometheus. The Collector
// implements vecdex.MetricsCollector, so it plugs straight into
// vecdex.WithMetricsCollector:
//
//	reg := prometheus.NewRegistry()
//	idx, err := vecdex.NewFlatL2(128, vecdex.WithMetricsCollector(prom.NewCollector(reg)))
package prom

import (
	"time"

	"github.com/hupe1980/vecdex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Compile-time check.
var _ vecdex.MetricsCollector = (*Collector)(nil)

// Collector records handle operations as Prometheus metrics. All
// metrics live under the vecdex_ namespace and carry an op label, so
// one collector can be shared across handles.
type Collector struct {
	ops           *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	vectorsAdded  prometheus.Counter
	vectorsMerged prometheus.Counter
	snapshotBytes *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
// It panics if the metrics are already registered, matching promauto
// behavior; use one collector per registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_operations_total",
			Help: "Total number of handle operations",
		}, []string{"op", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdex_operation_duration_seconds",
			Help:    "Latency of handle operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		vectorsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "vecdex_vectors_added_total",
			Help: "Total number of vectors added",
		}),
		vectorsMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "vecdex_vectors_merged_total",
			Help: "Total number of vectors copied or moved in by merges",
		}),
		snapshotBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_snapshot_bytes_total",
			Help: "Total snapshot bytes processed",
		}, []string{"op"}),
	}
}

func (c *Collector) record(op string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.ops.WithLabelValues(op, status).Inc()
	c.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordAdd implements vecdex.MetricsCollector.
func (c *Collector) RecordAdd(count int, duration time.Duration, err error) {
	c.record("add", duration, err)
	if err == nil {
		c.vectorsAdded.Add(float64(count))
	}
}

// RecordTrain implements vecdex.MetricsCollector.
func (c *Collector) RecordTrain(count int, duration time.Duration, err error) {
	c.record("train", duration, err)
}

// RecordSearch implements vecdex.MetricsCollector.
func (c *Collector) RecordSearch(k int, duration time.Duration, err error) {
	c.record("search", duration, err)
}

// RecordSearchBatch implements vecdex.MetricsCollector.
func (c *Collector) RecordSearchBatch(queries, k int, duration time.Duration, err error) {
	c.record("search_batch", duration, err)
}

// RecordRangeSearch implements vecdex.MetricsCollector.
func (c *Collector) RecordRangeSearch(duration time.Duration, err error) {
	c.record("range_search", duration, err)
}

// RecordMerge implements vecdex.MetricsCollector.
func (c *Collector) RecordMerge(added int, duration time.Duration, err error) {
	c.record("merge", duration, err)
	if err == nil {
		c.vectorsMerged.Add(float64(added))
	}
}

// RecordSnapshot implements vecdex.MetricsCollector.
func (c *Collector) RecordSnapshot(op string, bytes int64, duration time.Duration, err error) {
	c.record(op, duration, err)
	if err == nil {
		c.snapshotBytes.WithLabelValues(op).Add(float64(bytes))
	}
}
