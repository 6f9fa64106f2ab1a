package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/vecdex/distance"
)

// SearchResult is a single ground-truth search hit.
type SearchResult struct {
	Label    int64
	Distance float32
}

// RNG is a seeded random vector generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FlatVectors generates num random vectors with values in [0, 1) as a
// single row-major array, the layout the handle's Add and SearchBatch
// operations take.
func (r *RNG) FlatVectors(num, dims int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	for i := range data {
		data[i] = r.rand.Float32()
	}
	return data
}

// GaussianVectors generates num vectors drawn from a standard normal
// distribution, row-major.
func (r *RNG) GaussianVectors(num, dims int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	for i := range data {
		data[i] = float32(r.rand.NormFloat64())
	}
	return data
}

// UnitVector generates a single L2-normalized random vector. Gaussian
// sampling makes the direction uniform on the hypersphere.
func (r *RNG) UnitVector(dims int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitVectorLocked(dims)
}

// UnitVectors generates num L2-normalized random vectors, row-major.
func (r *RNG) UnitVectors(num, dims int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, 0, num*dims)
	for range num {
		data = append(data, r.unitVectorLocked(dims)...)
	}
	return data
}

func (r *RNG) unitVectorLocked(dims int) []float32 {
	vec := make([]float32, dims)
	var norm float64
	for j := range vec {
		v := r.rand.NormFloat64()
		vec[j] = float32(v)
		norm += v * v
	}

	if norm == 0 {
		norm = 1
	}

	invNorm := float32(1.0 / math.Sqrt(norm))
	for j := range vec {
		vec[j] *= invNorm
	}
	return vec
}

// ClusteredVectors generates num vectors clustered around random unit
// centroids, row-major. Partition-based indexes train poorly on uniform
// noise; clustered data exercises their intended shape.
func (r *RNG) ClusteredVectors(num, dims, clusters int, spread float32) []float32 {
	centroids := r.UnitVectors(clusters, dims)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	for i := range num {
		centroid := centroids[(i%clusters)*dims : (i%clusters+1)*dims]
		vec := data[i*dims : (i+1)*dims]
		for j := range vec {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
	}
	return data
}

// BruteForceSearch performs exact squared-L2 search over row-major
// vectors for ground truth.
func BruteForceSearch(vectors []float32, dims int, query []float32, k int) []SearchResult {
	num := len(vectors) / dims

	results := make([]SearchResult, num)
	for i := range num {
		d := distance.SquaredL2(query, vectors[i*dims:(i+1)*dims])
		results[i] = SearchResult{Label: int64(i), Distance: d}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall@k by comparing approximate results
// against ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[int64]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].Label] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.Label]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
