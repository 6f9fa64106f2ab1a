package vecdex

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/vecdex/dispatch"
	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/index/flat"
	"github.com/hupe1980/vecdex/index/hnsw"
	"github.com/hupe1980/vecdex/index/ivf"
	"github.com/hupe1980/vecdex/persistence"
)

// guardID hands out guard identities. Merges lock two guards in
// ascending identity order, which rules out lock-order inversion.
var guardID atomic.Uint64

// guard owns the engine and serializes all access to it. Every operation
// re-checks disposed after acquiring the mutex; the engine is non-nil
// exactly while the handle is active.
type guard struct {
	mu       sync.Mutex
	id       uint64
	engine   index.Index
	disposed bool
}

func newGuard(engine index.Index) *guard {
	return &guard{id: guardID.Add(1), engine: engine}
}

// Vecdex is a concurrency-safe handle around a single index engine.
// All methods may be called from any goroutine. Slow operations return a
// future; cheap operations run inline under the handle's lock.
type Vecdex struct {
	guard       *guard
	dims        int
	pool        *dispatch.Pool
	logger      *Logger
	metrics     MetricsCollector
	compression persistence.CompressionType
	ioLimit     *rate.Limiter
	cleanup     runtime.Cleanup
}

// Stats is a point-in-time snapshot of handle state.
type Stats struct {
	// Ntotal is the number of stored vectors.
	Ntotal int

	// Dims is the vector dimensionality.
	Dims int

	// IsTrained reports whether the engine accepts vectors.
	IsTrained bool

	// Type is the engine descriptor, e.g. "Flat" or "IVF100,Flat".
	Type string
}

// NewFlatL2 creates a handle around an exact index using squared
// euclidean distance.
func NewFlatL2(dims int, optFns ...Option) (*Vecdex, error) {
	if err := validateDims("new", dims); err != nil {
		return nil, err
	}

	eng, err := flat.New(dims, distance.MetricL2)
	if err != nil {
		return nil, translateError("new", err)
	}

	return newHandle(eng, optFns), nil
}

// NewFlatIP creates a handle around an exact index using inner-product
// similarity. Reported distances are negated dot products, so smaller
// still means closer.
func NewFlatIP(dims int, optFns ...Option) (*Vecdex, error) {
	if err := validateDims("new", dims); err != nil {
		return nil, err
	}

	eng, err := flat.New(dims, distance.MetricIP)
	if err != nil {
		return nil, translateError("new", err)
	}

	return newHandle(eng, optFns), nil
}

// NewIVFFlat creates a handle around an inverted-file index with nlist
// partitions (default 100 when nlist <= 0). The index must be trained
// before vectors can be added. The initial probe count comes from
// WithNprobe.
func NewIVFFlat(dims, nlist int, optFns ...Option) (*Vecdex, error) {
	if err := validateDims("new", dims); err != nil {
		return nil, err
	}

	eng, err := ivf.New(dims, nlist, distance.MetricL2)
	if err != nil {
		return nil, translateError("new", err)
	}

	return newHandle(eng, optFns), nil
}

// NewHNSW creates a handle around a graph index with connectivity m
// (default 16 when m <= 0). The initial candidate-list size comes from
// WithEfSearch.
func NewHNSW(dims, m int, optFns ...Option) (*Vecdex, error) {
	if err := validateDims("new", dims); err != nil {
		return nil, err
	}

	eng, err := hnsw.New(dims, m)
	if err != nil {
		return nil, translateError("new", err)
	}

	return newHandle(eng, optFns), nil
}

// newHandle wraps an engine, either freshly built or adopted from a
// decoded snapshot. The dimension always comes from the engine.
func newHandle(eng index.Index, optFns []Option) *Vecdex {
	opts := applyOptions(optFns)

	if opts.nprobe > 0 {
		if ns, ok := eng.(index.NprobeSetter); ok {
			ns.SetNprobe(opts.nprobe)
		}
	}
	if opts.efSearch > 0 {
		if es, ok := eng.(index.EfSearcher); ok {
			es.SetEfSearch(opts.efSearch)
		}
	}

	h := &Vecdex{
		guard:       newGuard(eng),
		dims:        eng.Dims(),
		pool:        opts.pool,
		logger:      opts.logger,
		metrics:     opts.metricsCollector,
		compression: opts.compression,
		ioLimit:     opts.ioLimit,
	}

	// The cleanup reclaims the engine of a handle that was dropped
	// without Close. It receives the guard rather than the handle, so
	// the handle itself stays collectable.
	logger := opts.logger
	h.cleanup = runtime.AddCleanup(h, func(g *guard) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.disposed {
			return
		}
		g.disposed = true
		g.engine = nil
		logger.LogDispose(context.Background(), true)
	}, h.guard)

	return h
}

// Dims returns the handle's immutable vector dimensionality.
func (h *Vecdex) Dims() int { return h.dims }

// Add appends a batch of vectors, flattened query-major. The future
// resolves to the new total vector count.
func (h *Vecdex) Add(vectors []float32) (*dispatch.Future[int], error) {
	if err := validateBatch("add", vectors, h.dims); err != nil {
		return nil, err
	}

	// Copy before crossing the async boundary; callers may reuse their
	// slice as soon as Add returns.
	vecs := slices.Clone(vectors)
	count := len(vecs) / h.dims
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (int, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		total, err := h.addLocked(vecs)
		duration := time.Since(start)
		h.metrics.RecordAdd(count, duration, err)
		h.logger.LogAdd(context.Background(), count, total, duration, err)
		return total, err
	})
	if err != nil {
		return nil, translateError("add", err)
	}

	return f, nil
}

func (h *Vecdex) addLocked(vecs []float32) (int, error) {
	if h.guard.disposed {
		return 0, ErrDisposed
	}
	if err := h.guard.engine.Add(vecs); err != nil {
		return 0, translateError("add", err)
	}
	return h.guard.engine.Len(), nil
}

// Train fits the engine's structure on a sample of vectors, flattened
// query-major. The future resolves to the trained state. Engines without
// a training step reject.
func (h *Vecdex) Train(vectors []float32) (*dispatch.Future[bool], error) {
	if err := validateBatch("train", vectors, h.dims); err != nil {
		return nil, err
	}

	vecs := slices.Clone(vectors)
	count := len(vecs) / h.dims
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (bool, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		trained, err := h.trainLocked(vecs)
		duration := time.Since(start)
		h.metrics.RecordTrain(count, duration, err)
		h.logger.LogTrain(context.Background(), count, duration, err)
		return trained, err
	})
	if err != nil {
		return nil, translateError("train", err)
	}

	return f, nil
}

func (h *Vecdex) trainLocked(vecs []float32) (bool, error) {
	if h.guard.disposed {
		return false, ErrDisposed
	}
	if err := h.guard.engine.Train(vecs); err != nil {
		return false, translateError("train", err)
	}
	return h.guard.engine.Trained(), nil
}

// MergeFrom appends all vectors of other into this handle. Both handles
// must share a dimension. Depending on the engine the source is either
// copied or drained; callers should consult the source's Stats afterwards
// rather than assume. The future resolves to the destination's new total.
//
// A handle cannot be merged into itself.
func (h *Vecdex) MergeFrom(other *Vecdex) (*dispatch.Future[int], error) {
	if other == nil {
		return nil, &ValidationError{Op: "merge", Reason: "source handle is nil"}
	}
	if other == h {
		return nil, &ValidationError{Op: "merge", Reason: "cannot merge a handle into itself"}
	}

	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (int, error) {
		// Lock both guards in ascending identity order so concurrent
		// merges in opposite directions cannot deadlock.
		first, second := h.guard, other.guard
		if second.id < first.id {
			first, second = second, first
		}
		first.mu.Lock()
		defer first.mu.Unlock()
		second.mu.Lock()
		defer second.mu.Unlock()

		total, added, remaining, err := h.mergeLocked(other)
		duration := time.Since(start)
		h.metrics.RecordMerge(added, duration, err)
		h.logger.LogMerge(context.Background(), added, total, remaining, duration, err)
		return total, err
	})
	if err != nil {
		return nil, translateError("merge", err)
	}

	return f, nil
}

func (h *Vecdex) mergeLocked(other *Vecdex) (total, added, remaining int, err error) {
	if h.guard.disposed || other.guard.disposed {
		return 0, 0, 0, ErrDisposed
	}
	if other.dims != h.dims {
		return 0, 0, 0, &DimensionMismatchError{Expected: h.dims, Actual: other.dims}
	}

	before := h.guard.engine.Len()
	if err := h.guard.engine.Merge(other.guard.engine); err != nil {
		return 0, 0, 0, translateError("merge", err)
	}

	total = h.guard.engine.Len()
	// The engine may have drained the source; re-read its count instead
	// of assuming either way.
	remaining = other.guard.engine.Len()
	return total, total - before, remaining, nil
}

// Stats returns a point-in-time snapshot of handle state. It stays
// available while other operations are in flight and fails with
// ErrDisposed only once disposal has completed.
func (h *Vecdex) Stats() (Stats, error) {
	h.guard.mu.Lock()
	defer h.guard.mu.Unlock()

	if h.guard.disposed {
		return Stats{}, ErrDisposed
	}

	eng := h.guard.engine
	return Stats{
		Ntotal:    eng.Len(),
		Dims:      eng.Dims(),
		IsTrained: eng.Trained(),
		Type:      eng.Description(),
	}, nil
}

// Reset removes all stored vectors but keeps the trained structure:
// IVF centroids survive and the handle accepts new vectors immediately.
func (h *Vecdex) Reset() error {
	h.guard.mu.Lock()
	defer h.guard.mu.Unlock()

	if h.guard.disposed {
		return ErrDisposed
	}

	h.guard.engine.Reset()
	return nil
}

// SetNprobe adjusts how many partitions an IVF engine probes per query.
// Handles whose engine has no probe concept ignore the call.
func (h *Vecdex) SetNprobe(nprobe int) error {
	if nprobe < 1 {
		return &ValidationError{Op: "set_nprobe", Reason: fmt.Sprintf("nprobe must be at least 1, got %d", nprobe)}
	}

	h.guard.mu.Lock()
	defer h.guard.mu.Unlock()

	if h.guard.disposed {
		return ErrDisposed
	}

	if ns, ok := h.guard.engine.(index.NprobeSetter); ok {
		ns.SetNprobe(nprobe)
	}
	return nil
}

// SetEfSearch adjusts the candidate-list size a graph engine explores
// per query. Handles whose engine has no such tunable ignore the call.
func (h *Vecdex) SetEfSearch(ef int) error {
	if ef < 1 {
		return &ValidationError{Op: "set_ef_search", Reason: fmt.Sprintf("ef must be at least 1, got %d", ef)}
	}

	h.guard.mu.Lock()
	defer h.guard.mu.Unlock()

	if h.guard.disposed {
		return ErrDisposed
	}

	if es, ok := h.guard.engine.(index.EfSearcher); ok {
		es.SetEfSearch(ef)
	}
	return nil
}
