package vecdex

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/vecdex/dispatch"
	"github.com/hupe1980/vecdex/index"
)

// SearchResult holds the outcome of a single-query search. Distances are
// non-decreasing and Labels is index-aligned with them; both span exactly
// min(k, stored count) entries, padded with label -1 and +Inf distance
// when an approximate engine finds fewer reachable neighbors.
type SearchResult struct {
	Distances []float32
	Labels    []int64
}

// BatchSearchResult holds query-major flattened results: query i occupies
// entries [i*K, (i+1)*K). K is the per-query result count after clamping
// to the stored vector count. Queries for which an approximate engine
// found fewer matches are padded with label -1 and +Inf distance.
type BatchSearchResult struct {
	Distances  []float32
	Labels     []int64
	K          int
	NumQueries int
}

// RangeSearchResult holds all matches within a radius. Lims delimits the
// result segments: matches for query i sit in [Lims[i], Lims[i+1]), so
// Lims[0] is always 0 and the last entry is the total match count.
type RangeSearchResult struct {
	Distances []float32
	Labels    []int64
	Lims      []int64
}

// Search returns the k nearest stored vectors, closest first. k is
// clamped to the stored vector count; searching an empty handle rejects
// with ErrEmptyIndex.
func (h *Vecdex) Search(query []float32, k int) (*dispatch.Future[*SearchResult], error) {
	if err := validateQuery("search", query, h.dims); err != nil {
		return nil, err
	}
	if err := validateK("search", k); err != nil {
		return nil, err
	}

	q := slices.Clone(query)
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (*SearchResult, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		res, err := h.searchLocked(q, k)
		duration := time.Since(start)
		h.metrics.RecordSearch(k, duration, err)
		found := 0
		if res != nil {
			found = len(res.Labels)
		}
		h.logger.LogSearch(context.Background(), "search", k, found, duration, err)
		return res, err
	})
	if err != nil {
		return nil, translateError("search", err)
	}

	return f, nil
}

func (h *Vecdex) searchLocked(query []float32, k int) (*SearchResult, error) {
	if h.guard.disposed {
		return nil, ErrDisposed
	}
	n := h.guard.engine.Len()
	if n == 0 {
		return nil, ErrEmptyIndex
	}
	if k > n {
		k = n
	}

	cands, err := h.guard.engine.Search(query, k)
	if err != nil {
		return nil, translateError("search", err)
	}

	res := &SearchResult{
		Distances: make([]float32, k),
		Labels:    make([]int64, k),
	}
	inf := float32(math.Inf(1))
	for i := 0; i < k; i++ {
		if i < len(cands) {
			res.Distances[i] = cands[i].Distance
			res.Labels[i] = cands[i].Label
		} else {
			// Same padding as the batch path: graph engines may find
			// fewer than k reachable neighbors.
			res.Distances[i] = inf
			res.Labels[i] = -1
		}
	}
	return res, nil
}

// SearchBatch runs one search per query over a flattened, query-major
// batch and returns a rectangular result. The same clamping and
// empty-index contract as Search applies to the batch as a whole.
func (h *Vecdex) SearchBatch(queries []float32, k int) (*dispatch.Future[*BatchSearchResult], error) {
	if err := validateBatch("search_batch", queries, h.dims); err != nil {
		return nil, err
	}
	if err := validateK("search_batch", k); err != nil {
		return nil, err
	}

	q := slices.Clone(queries)
	numQueries := len(q) / h.dims
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (*BatchSearchResult, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		res, err := h.searchBatchLocked(q, numQueries, k)
		duration := time.Since(start)
		h.metrics.RecordSearchBatch(numQueries, k, duration, err)
		found := 0
		if res != nil {
			found = res.NumQueries * res.K
		}
		h.logger.LogSearch(context.Background(), "search_batch", k, found, duration, err)
		return res, err
	})
	if err != nil {
		return nil, translateError("search_batch", err)
	}

	return f, nil
}

func (h *Vecdex) searchBatchLocked(queries []float32, numQueries, k int) (*BatchSearchResult, error) {
	if h.guard.disposed {
		return nil, ErrDisposed
	}

	n := h.guard.engine.Len()
	if n == 0 {
		return nil, ErrEmptyIndex
	}
	if k > n {
		k = n
	}

	var rows [][]index.Candidate
	if bs, ok := h.guard.engine.(index.BatchSearcher); ok {
		var err error
		rows, err = bs.SearchBatch(queries, k)
		if err != nil {
			return nil, translateError("search_batch", err)
		}
	} else {
		rows = make([][]index.Candidate, numQueries)
		for i := range rows {
			cands, err := h.guard.engine.Search(queries[i*h.dims:(i+1)*h.dims], k)
			if err != nil {
				return nil, translateError("search_batch", err)
			}
			rows[i] = cands
		}
	}

	res := &BatchSearchResult{
		Distances:  make([]float32, numQueries*k),
		Labels:     make([]int64, numQueries*k),
		K:          k,
		NumQueries: numQueries,
	}
	inf := float32(math.Inf(1))
	for i, row := range rows {
		for j := 0; j < k; j++ {
			off := i*k + j
			if j < len(row) {
				res.Distances[off] = row[j].Distance
				res.Labels[off] = row[j].Label
			} else {
				// Graph engines may find fewer than k reachable
				// neighbors; pad so every query spans exactly K entries.
				res.Distances[off] = inf
				res.Labels[off] = -1
			}
		}
	}
	return res, nil
}

// RangeSearch returns every stored vector whose distance to query is
// strictly below radius, closest first.
func (h *Vecdex) RangeSearch(query []float32, radius float32) (*dispatch.Future[*RangeSearchResult], error) {
	if err := validateQuery("range_search", query, h.dims); err != nil {
		return nil, err
	}
	if err := validateRadius("range_search", radius); err != nil {
		return nil, err
	}

	q := slices.Clone(query)
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (*RangeSearchResult, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		res, err := h.rangeSearchLocked(q, radius)
		duration := time.Since(start)
		h.metrics.RecordRangeSearch(duration, err)
		found := 0
		if res != nil {
			found = len(res.Labels)
		}
		h.logger.LogSearch(context.Background(), "range_search", 0, found, duration, err)
		return res, err
	})
	if err != nil {
		return nil, translateError("range_search", err)
	}

	return f, nil
}

func (h *Vecdex) rangeSearchLocked(query []float32, radius float32) (*RangeSearchResult, error) {
	if h.guard.disposed {
		return nil, ErrDisposed
	}
	if h.guard.engine.Len() == 0 {
		return nil, ErrEmptyIndex
	}

	cands, err := h.guard.engine.RangeSearch(query, radius)
	if err != nil {
		return nil, translateError("range_search", err)
	}

	res := &RangeSearchResult{
		Distances: make([]float32, len(cands)),
		Labels:    make([]int64, len(cands)),
		Lims:      []int64{0, int64(len(cands))},
	}
	for i, c := range cands {
		res.Distances[i] = c.Distance
		res.Labels[i] = c.Label
	}
	return res, nil
}
