// Package hnsw provides an approximate index backed by a hierarchical
// navigable small-world graph.
package hnsw

import (
	"fmt"
	"io"
	"math/rand"
	"slices"
	"sort"

	graph "github.com/coder/hnsw"

	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/persistence"
)

// Compile-time checks to ensure HNSW satisfies required interfaces.
var (
	_ index.Index      = (*HNSW)(nil)
	_ index.EfSearcher = (*HNSW)(nil)
)

func init() {
	index.RegisterDecoder(index.KindHNSW, decode)
}

const (
	// DefaultM is the maximum neighbor count per graph node.
	DefaultM = 16

	// DefaultEfSearch is the search beam width.
	DefaultEfSearch = 20

	// levelSeed fixes the layer generator so that identical insertion
	// sequences build identical graphs. Snapshots are rebuilt by
	// reinsertion and must reproduce the original search behavior.
	levelSeed = 1234
)

// HNSW is an approximate index over a small-world graph. A flattened
// copy of every vector is kept alongside the graph; it backs exact
// range scans, merging and serialization, with labels equal to
// positions.
type HNSW struct {
	dims    int
	m       int
	ef      int
	graph   *graph.Graph[int64]
	vectors []float32
}

// New creates an HNSW index with the given dimensionality and neighbor
// count m.
func New(dims, m int) (*HNSW, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("hnsw: dimension must be positive, got %d", dims)
	}
	if m <= 0 {
		m = DefaultM
	}

	return &HNSW{
		dims:  dims,
		m:     m,
		ef:    DefaultEfSearch,
		graph: newGraph(m, DefaultEfSearch),
	}, nil
}

func newGraph(m, ef int) *graph.Graph[int64] {
	g := graph.NewGraph[int64]()
	g.M = m
	g.EfSearch = ef
	g.Rng = rand.New(rand.NewSource(levelSeed))
	g.Distance = func(a, b graph.Vector) float32 {
		return distance.SquaredL2(a, b)
	}
	return g
}

// Kind implements index.Index.
func (h *HNSW) Kind() index.Kind { return index.KindHNSW }

// Description implements index.Index.
func (h *HNSW) Description() string { return fmt.Sprintf("HNSW%d", h.m) }

// Dims implements index.Index.
func (h *HNSW) Dims() int { return h.dims }

// Len implements index.Index.
func (h *HNSW) Len() int { return len(h.vectors) / h.dims }

// Trained implements index.Index. HNSW builds incrementally.
func (h *HNSW) Trained() bool { return true }

// M returns the maximum neighbor count per graph node.
func (h *HNSW) M() int { return h.m }

// SetEfSearch sets the search beam width. Values below 1 are clamped.
func (h *HNSW) SetEfSearch(ef int) {
	if ef < 1 {
		ef = 1
	}
	h.ef = ef
	h.graph.EfSearch = ef
}

// Train implements index.Index. HNSW has no training step.
func (h *HNSW) Train(vectors []float32) error {
	return index.ErrNoTraining
}

// Add inserts vectors into the graph, assigning dense sequential labels.
func (h *HNSW) Add(vectors []float32) error {
	if len(vectors) == 0 || len(vectors)%h.dims != 0 {
		return fmt.Errorf("hnsw: vector data length %d is not a positive multiple of %d", len(vectors), h.dims)
	}

	base := int64(h.Len())
	n := len(vectors) / h.dims
	for i := 0; i < n; i++ {
		vec := vectors[i*h.dims : (i+1)*h.dims]
		// The graph node keeps its own copy; the sidecar may reallocate.
		h.graph.Add(graph.MakeNode(base+int64(i), slices.Clone(vec)))
		h.vectors = append(h.vectors, vec...)
	}

	return nil
}

// Search walks the graph and returns up to k candidates ordered by
// ascending distance. Like any graph index it may return fewer than k
// results when the beam does not reach enough nodes.
func (h *HNSW) Search(query []float32, k int) ([]index.Candidate, error) {
	n := h.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	nodes := h.graph.Search(query, k)
	out := make([]index.Candidate, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, index.Candidate{
			Label:    node.Key,
			Distance: distance.SquaredL2(query, node.Value),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// RangeSearch scans the stored vectors exactly and returns all with
// distance strictly below radius, ordered by ascending distance.
func (h *HNSW) RangeSearch(query []float32, radius float32) ([]index.Candidate, error) {
	n := h.Len()
	var out []index.Candidate
	for i := 0; i < n; i++ {
		d := distance.SquaredL2(query, h.vectors[i*h.dims:(i+1)*h.dims])
		if d < radius {
			out = append(out, index.Candidate{Label: int64(i), Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// Merge inserts all vectors of other into the receiver, relabeled to
// continue the receiver's sequence. The source is left untouched.
func (h *HNSW) Merge(other index.Index) error {
	o, ok := other.(*HNSW)
	if !ok {
		return index.ErrKindMismatch
	}
	if o.dims != h.dims {
		return fmt.Errorf("hnsw: dimension mismatch: %d != %d", o.dims, h.dims)
	}
	if o.Len() == 0 {
		return nil
	}
	return h.Add(o.vectors)
}

// Reset drops the graph and all vectors, keeping the configuration.
func (h *HNSW) Reset() {
	h.graph = newGraph(h.m, h.ef)
	h.vectors = nil
}

// Encode implements index.Index. Only the vector table and tuning
// parameters are persisted; the graph is rebuilt on decode by
// reinsertion, which reproduces the original structure because node
// order and the layer generator are deterministic.
func (h *HNSW) Encode(w io.Writer) error {
	bw := persistence.NewBinaryIndexWriter(w)
	if err := bw.WriteUint8(uint8(index.KindHNSW)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(h.dims)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(h.m)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(h.ef)); err != nil {
		return err
	}
	if err := bw.WriteUint64(uint64(h.Len())); err != nil {
		return err
	}
	return bw.WriteFloat32Slice(h.vectors)
}

func decode(r io.Reader) (index.Index, error) {
	br := persistence.NewBinaryIndexReader(r)

	dims, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	m, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	ef, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	count, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}

	h, err := New(int(dims), int(m))
	if err != nil {
		return nil, err
	}
	h.SetEfSearch(int(ef))

	if count > 0 {
		vectors, err := br.ReadFloat32Slice(int(count) * int(dims))
		if err != nil {
			return nil, err
		}
		if err := h.Add(vectors); err != nil {
			return nil, err
		}
	}

	return h, nil
}
