// Package flat provides an exact brute-force index backed by a
// contiguous vector array.
package flat

import (
	"fmt"
	"io"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/internal/queue"
	"github.com/hupe1980/vecdex/persistence"
)

// Compile-time checks to ensure Flat satisfies required interfaces.
var (
	_ index.Index         = (*Flat)(nil)
	_ index.BatchSearcher = (*Flat)(nil)
)

func init() {
	index.RegisterDecoder(index.KindFlatL2, func(r io.Reader) (index.Index, error) {
		return decode(index.KindFlatL2, r)
	})
	index.RegisterDecoder(index.KindFlatIP, func(r io.Reader) (index.Index, error) {
		return decode(index.KindFlatIP, r)
	})
}

// Flat is an exact index: every query scans all stored vectors. Labels
// are dense and sequential, assigned in insertion order.
type Flat struct {
	kind     index.Kind
	dims     int
	metric   distance.Metric
	distFunc distance.Func
	vectors  []float32 // flattened, length is Len()*dims
}

// New creates a flat index with the given dimensionality and metric.
func New(dims int, metric distance.Metric) (*Flat, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("flat: dimension must be positive, got %d", dims)
	}

	var kind index.Kind
	switch metric {
	case distance.MetricL2:
		kind = index.KindFlatL2
	case distance.MetricIP:
		kind = index.KindFlatIP
	default:
		return nil, fmt.Errorf("flat: unsupported metric: %v", metric)
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	return &Flat{
		kind:     kind,
		dims:     dims,
		metric:   metric,
		distFunc: distFunc,
	}, nil
}

// Kind implements index.Index.
func (f *Flat) Kind() index.Kind { return f.kind }

// Description implements index.Index.
func (f *Flat) Description() string {
	if f.metric == distance.MetricIP {
		return "FlatIP"
	}
	return "Flat"
}

// Dims implements index.Index.
func (f *Flat) Dims() int { return f.dims }

// Len implements index.Index.
func (f *Flat) Len() int { return len(f.vectors) / f.dims }

// Trained implements index.Index. Flat indexes are always ready.
func (f *Flat) Trained() bool { return true }

// Train implements index.Index. Flat indexes have no training step.
func (f *Flat) Train(vectors []float32) error {
	return index.ErrNoTraining
}

// Add appends vectors to the index.
func (f *Flat) Add(vectors []float32) error {
	if len(vectors) == 0 || len(vectors)%f.dims != 0 {
		return fmt.Errorf("flat: vector data length %d is not a positive multiple of %d", len(vectors), f.dims)
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Search scans all stored vectors and returns the k closest, ordered by
// ascending distance. Ties keep the earlier label.
func (f *Flat) Search(query []float32, k int) ([]index.Candidate, error) {
	n := f.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	// Max-heap of size k: the worst candidate sits on top and is evicted
	// when a closer one arrives.
	pq := queue.NewMax(k + 1)
	for i := 0; i < n; i++ {
		d := f.distFunc(query, f.vectors[i*f.dims:(i+1)*f.dims])
		if pq.Len() < k {
			pq.PushItem(queue.Item{Label: int64(i), Distance: d})
			continue
		}
		if top, _ := pq.TopItem(); d < top.Distance {
			pq.PopItem()
			pq.PushItem(queue.Item{Label: int64(i), Distance: d})
		}
	}

	out := make([]index.Candidate, pq.Len())
	for i := pq.Len() - 1; i >= 0; i-- {
		item, _ := pq.PopItem()
		out[i] = index.Candidate{Label: item.Label, Distance: item.Distance}
	}
	return out, nil
}

// SearchBatch runs per-query scans in parallel, bounded by GOMAXPROCS.
func (f *Flat) SearchBatch(queries []float32, k int) ([][]index.Candidate, error) {
	nq := len(queries) / f.dims
	results := make([][]index.Candidate, nq)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < nq; i++ {
		g.Go(func() error {
			res, err := f.Search(queries[i*f.dims:(i+1)*f.dims], k)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RangeSearch returns all vectors with distance strictly below radius,
// ordered by ascending distance.
func (f *Flat) RangeSearch(query []float32, radius float32) ([]index.Candidate, error) {
	n := f.Len()
	var out []index.Candidate
	for i := 0; i < n; i++ {
		d := f.distFunc(query, f.vectors[i*f.dims:(i+1)*f.dims])
		if d < radius {
			out = append(out, index.Candidate{Label: int64(i), Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// Merge copies all vectors of other into the receiver. The source index
// is left untouched.
func (f *Flat) Merge(other index.Index) error {
	o, ok := other.(*Flat)
	if !ok || o.kind != f.kind {
		return index.ErrKindMismatch
	}
	if o.dims != f.dims {
		return fmt.Errorf("flat: dimension mismatch: %d != %d", o.dims, f.dims)
	}
	f.vectors = append(f.vectors, o.vectors...)
	return nil
}

// Reset removes all vectors.
func (f *Flat) Reset() {
	f.vectors = nil
}

// Encode implements index.Index.
func (f *Flat) Encode(w io.Writer) error {
	bw := persistence.NewBinaryIndexWriter(w)
	if err := bw.WriteUint8(uint8(f.kind)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(f.dims)); err != nil {
		return err
	}
	if err := bw.WriteUint64(uint64(f.Len())); err != nil {
		return err
	}
	return bw.WriteFloat32Slice(f.vectors)
}

func decode(kind index.Kind, r io.Reader) (index.Index, error) {
	br := persistence.NewBinaryIndexReader(r)

	dims, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	count, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}

	metric := distance.MetricL2
	if kind == index.KindFlatIP {
		metric = distance.MetricIP
	}

	f, err := New(int(dims), metric)
	if err != nil {
		return nil, err
	}

	vecs, err := br.ReadFloat32Slice(int(count) * int(dims))
	if err != nil {
		return nil, err
	}
	f.vectors = vecs

	return f, nil
}
