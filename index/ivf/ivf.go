// Package ivf provides an inverted-file index that partitions vectors
// into clusters and probes only the closest partitions at query time.
package ivf

import (
	"fmt"
	"io"
	"sort"

	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/internal/kmeans"
	"github.com/hupe1980/vecdex/internal/queue"
	"github.com/hupe1980/vecdex/persistence"
)

// Compile-time checks to ensure IVF satisfies required interfaces.
var (
	_ index.Index        = (*IVF)(nil)
	_ index.NprobeSetter = (*IVF)(nil)
)

func init() {
	index.RegisterDecoder(index.KindIVFFlat, decode)
}

const (
	// DefaultNlist is the partition count used when none is requested.
	DefaultNlist = 100

	// DefaultNprobe is the number of partitions scanned per query.
	DefaultNprobe = 1

	// trainIterations bounds Lloyd's algorithm during training.
	trainIterations = 25
)

// invertedList holds the vectors assigned to one partition.
type invertedList struct {
	labels  []int64
	vectors []float32 // flattened
}

// IVF is an inverted-file index. Vectors are assigned to the partition
// with the closest centroid at insert time; queries scan only the
// nprobe closest partitions, trading recall for speed.
type IVF struct {
	dims     int
	nlist    int
	nprobe   int
	metric   distance.Metric
	distFunc distance.Func

	// centroids is nil until Train succeeds (nlist*dims afterwards).
	// Partition assignment always uses L2; metric only affects scoring.
	centroids []float32
	lists     []invertedList
	ntotal    int
}

// New creates an untrained IVF index with nlist partitions.
func New(dims, nlist int, metric distance.Metric) (*IVF, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("ivf: dimension must be positive, got %d", dims)
	}
	if nlist <= 0 {
		nlist = DefaultNlist
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	return &IVF{
		dims:     dims,
		nlist:    nlist,
		nprobe:   DefaultNprobe,
		metric:   metric,
		distFunc: distFunc,
		lists:    make([]invertedList, nlist),
	}, nil
}

// Kind implements index.Index.
func (ix *IVF) Kind() index.Kind { return index.KindIVFFlat }

// Description implements index.Index.
func (ix *IVF) Description() string { return fmt.Sprintf("IVF%d,Flat", ix.nlist) }

// Dims implements index.Index.
func (ix *IVF) Dims() int { return ix.dims }

// Len implements index.Index.
func (ix *IVF) Len() int { return ix.ntotal }

// Trained implements index.Index.
func (ix *IVF) Trained() bool { return ix.centroids != nil }

// Nlist returns the partition count.
func (ix *IVF) Nlist() int { return ix.nlist }

// SetNprobe sets the number of partitions scanned per query. Values are
// clamped to [1, nlist].
func (ix *IVF) SetNprobe(nprobe int) {
	if nprobe < 1 {
		nprobe = 1
	}
	if nprobe > ix.nlist {
		nprobe = ix.nlist
	}
	ix.nprobe = nprobe
}

// Train learns partition centroids from a sample of vectors. It must be
// called exactly once, before any Add.
func (ix *IVF) Train(vectors []float32) error {
	if ix.Trained() {
		return index.ErrAlreadyTrained
	}
	if len(vectors) == 0 || len(vectors)%ix.dims != 0 {
		return fmt.Errorf("ivf: training data length %d is not a positive multiple of %d", len(vectors), ix.dims)
	}

	n := len(vectors) / ix.dims
	if n < ix.nlist {
		return fmt.Errorf("ivf: training requires at least %d vectors, got %d", ix.nlist, n)
	}

	centroids, err := kmeans.TrainKMeans(vectors, ix.dims, ix.nlist, distance.MetricL2, trainIterations)
	if err != nil {
		return err
	}

	ix.centroids = centroids
	return nil
}

// Add assigns each vector to its closest partition.
func (ix *IVF) Add(vectors []float32) error {
	if !ix.Trained() {
		return index.ErrNotTrained
	}
	if len(vectors) == 0 || len(vectors)%ix.dims != 0 {
		return fmt.Errorf("ivf: vector data length %d is not a positive multiple of %d", len(vectors), ix.dims)
	}

	n := len(vectors) / ix.dims
	for i := 0; i < n; i++ {
		vec := vectors[i*ix.dims : (i+1)*ix.dims]
		part, err := kmeans.AssignPartition(vec, ix.centroids, ix.dims, distance.MetricL2)
		if err != nil {
			return err
		}

		list := &ix.lists[part]
		list.labels = append(list.labels, int64(ix.ntotal))
		list.vectors = append(list.vectors, vec...)
		ix.ntotal++
	}

	return nil
}

// Search probes the nprobe closest partitions and returns the k closest
// vectors found there, ordered by ascending distance.
func (ix *IVF) Search(query []float32, k int) ([]index.Candidate, error) {
	if !ix.Trained() {
		return nil, index.ErrNotTrained
	}
	if k > ix.ntotal {
		k = ix.ntotal
	}
	if k <= 0 {
		return nil, nil
	}

	probes, err := kmeans.FindClosestCentroids(query, ix.centroids, ix.dims, ix.nprobe, distance.MetricL2)
	if err != nil {
		return nil, err
	}

	pq := queue.NewMax(k + 1)
	for _, part := range probes {
		list := &ix.lists[part]
		for i, label := range list.labels {
			d := ix.distFunc(query, list.vectors[i*ix.dims:(i+1)*ix.dims])
			if pq.Len() < k {
				pq.PushItem(queue.Item{Label: label, Distance: d})
				continue
			}
			if top, _ := pq.TopItem(); d < top.Distance {
				pq.PopItem()
				pq.PushItem(queue.Item{Label: label, Distance: d})
			}
		}
	}

	out := make([]index.Candidate, pq.Len())
	for i := pq.Len() - 1; i >= 0; i-- {
		item, _ := pq.PopItem()
		out[i] = index.Candidate{Label: item.Label, Distance: item.Distance}
	}
	return out, nil
}

// RangeSearch probes the nprobe closest partitions and returns all
// vectors there with distance strictly below radius, ordered by
// ascending distance.
func (ix *IVF) RangeSearch(query []float32, radius float32) ([]index.Candidate, error) {
	if !ix.Trained() {
		return nil, index.ErrNotTrained
	}

	probes, err := kmeans.FindClosestCentroids(query, ix.centroids, ix.dims, ix.nprobe, distance.MetricL2)
	if err != nil {
		return nil, err
	}

	var out []index.Candidate
	for _, part := range probes {
		list := &ix.lists[part]
		for i, label := range list.labels {
			d := ix.distFunc(query, list.vectors[i*ix.dims:(i+1)*ix.dims])
			if d < radius {
				out = append(out, index.Candidate{Label: label, Distance: d})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// Merge moves all vectors of other into the receiver, relabeled to
// continue the receiver's dense label sequence. The source is emptied
// but keeps its trained centroids. Both indexes must be trained with
// the same partition count.
func (ix *IVF) Merge(other index.Index) error {
	o, ok := other.(*IVF)
	if !ok {
		return index.ErrKindMismatch
	}
	if o.dims != ix.dims {
		return fmt.Errorf("ivf: dimension mismatch: %d != %d", o.dims, ix.dims)
	}
	if !ix.Trained() || !o.Trained() {
		return index.ErrNotTrained
	}
	if o.nlist != ix.nlist {
		return fmt.Errorf("ivf: partition count mismatch: %d != %d", o.nlist, ix.nlist)
	}

	offset := int64(ix.ntotal)
	for part := range o.lists {
		src := &o.lists[part]
		dst := &ix.lists[part]
		for _, label := range src.labels {
			dst.labels = append(dst.labels, label+offset)
		}
		dst.vectors = append(dst.vectors, src.vectors...)
		ix.ntotal += len(src.labels)
	}

	// The source hands over its entries and is left empty.
	o.lists = make([]invertedList, o.nlist)
	o.ntotal = 0

	return nil
}

// Reset removes all vectors but keeps the trained centroids.
func (ix *IVF) Reset() {
	ix.lists = make([]invertedList, ix.nlist)
	ix.ntotal = 0
}

// Encode implements index.Index.
func (ix *IVF) Encode(w io.Writer) error {
	bw := persistence.NewBinaryIndexWriter(w)
	if err := bw.WriteUint8(uint8(index.KindIVFFlat)); err != nil {
		return err
	}
	if err := bw.WriteUint8(uint8(ix.metric)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(ix.dims)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(ix.nlist)); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(ix.nprobe)); err != nil {
		return err
	}

	trained := uint8(0)
	if ix.Trained() {
		trained = 1
	}
	if err := bw.WriteUint8(trained); err != nil {
		return err
	}
	if trained == 1 {
		if err := bw.WriteFloat32Slice(ix.centroids); err != nil {
			return err
		}
	}

	for part := range ix.lists {
		list := &ix.lists[part]
		if err := bw.WriteUint64(uint64(len(list.labels))); err != nil {
			return err
		}
		if err := bw.WriteInt64Slice(list.labels); err != nil {
			return err
		}
		if err := bw.WriteFloat32Slice(list.vectors); err != nil {
			return err
		}
	}

	return nil
}

func decode(r io.Reader) (index.Index, error) {
	br := persistence.NewBinaryIndexReader(r)

	metricRaw, err := br.ReadUint8()
	if err != nil {
		return nil, err
	}
	dims, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	nlist, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	nprobe, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}

	ix, err := New(int(dims), int(nlist), distance.Metric(metricRaw))
	if err != nil {
		return nil, err
	}
	ix.SetNprobe(int(nprobe))

	trained, err := br.ReadUint8()
	if err != nil {
		return nil, err
	}
	if trained == 1 {
		centroids, err := br.ReadFloat32Slice(int(nlist) * int(dims))
		if err != nil {
			return nil, err
		}
		ix.centroids = centroids
	}

	for part := 0; part < int(nlist); part++ {
		count, err := br.ReadUint64()
		if err != nil {
			return nil, err
		}
		labels, err := br.ReadInt64Slice(int(count))
		if err != nil {
			return nil, err
		}
		vectors, err := br.ReadFloat32Slice(int(count) * int(dims))
		if err != nil {
			return nil, err
		}
		ix.lists[part] = invertedList{labels: labels, vectors: vectors}
		ix.ntotal += int(count)
	}

	return ix, nil
}
