package vecdex

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/vecdex/dispatch"
	"github.com/hupe1980/vecdex/persistence"
)

type options struct {
	pool             *dispatch.Pool
	metricsCollector MetricsCollector
	logger           *Logger
	compression      persistence.CompressionType
	ioLimit          *rate.Limiter
	nprobe           int
	efSearch         int
}

// Option configures handle construction and load behavior.
//
// Options exist to avoid exploding the constructor surface
// (e.g. compression-specific constructor variants).
type Option func(*options)

// WithDispatcher configures the worker pool used for background
// operations. Multiple handles may share one pool.
//
// If nil is passed, the process-wide default pool is used.
func WithDispatcher(p *dispatch.Pool) Option {
	return func(o *options) {
		if p == nil {
			p = dispatch.DefaultPool()
		}
		o.pool = p
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecdex.BasicMetricsCollector{}
//	h, _ := vecdex.NewFlatL2(128, vecdex.WithMetricsCollector(metrics))
//	// ... use h ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.AddCount, stats.AddAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecdex.NewJSONLogger(slog.LevelInfo)
//	h, _ := vecdex.NewFlatL2(128, vecdex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

// WithCompression selects the compression applied to snapshots produced
// by ToBuffer, Save, and SaveToStore. The default is no compression;
// loading auto-detects whatever the snapshot was written with.
func WithCompression(c persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithIOLimit throttles snapshot file writes to bytesPerSec so background
// saves do not starve serving traffic. Zero or negative disables the limit.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if bytesPerSec <= 0 {
			o.ioLimit = nil
			return
		}
		o.ioLimit = persistence.NewIOLimiter(bytesPerSec)
	}
}

// WithNprobe sets the initial probe count for partition-based indexes.
// Handles whose engine has no probe concept ignore it.
func WithNprobe(nprobe int) Option {
	return func(o *options) {
		o.nprobe = nprobe
	}
}

// WithEfSearch sets the initial candidate-list size for graph-based
// indexes. Handles whose engine has no such tunable ignore it.
func WithEfSearch(ef int) Option {
	return func(o *options) {
		o.efSearch = ef
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pool:             dispatch.DefaultPool(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
