package distance

import (
	"fmt"

	"github.com/hupe1980/vecdex/internal/vmath"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return vmath.Dot(a, b)
}

// NegDot calculates the negated dot product of two vectors.
// Negation turns the similarity into a distance so that inner-product
// results sort the same way as L2 results (smaller is closer).
func NegDot(a, b []float32) float32 {
	return -vmath.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return vmath.SquaredL2(a, b)
}

// SquaredL2Batch calculates squared L2 distances between query and a batch
// of vectors. targets is a flattened array of N vectors, each of dimension
// dim. out must have length N (len(targets) / dim).
func SquaredL2Batch(query []float32, targets []float32, dim int, out []float32) {
	n, ok := batchBounds(query, targets, dim, out)
	if !ok {
		return
	}

	vmath.SquaredL2Batch(query, targets, dim, out[:n])
}

// NegDotBatch calculates negated dot products between query and a batch of
// vectors. targets is a flattened array of N vectors, each of dimension dim.
// out must have length N (len(targets) / dim).
func NegDotBatch(query []float32, targets []float32, dim int, out []float32) {
	n, ok := batchBounds(query, targets, dim, out)
	if !ok {
		return
	}

	vmath.DotBatch(query, targets, dim, out[:n])
	for i := range out[:n] {
		out[i] = -out[i]
	}
}

// batchBounds clamps the row count to what targets actually holds, so a
// short batch never reads past the flattened array.
func batchBounds(query, targets []float32, dim int, out []float32) (int, bool) {
	if dim <= 0 || len(out) == 0 {
		return 0, false
	}
	if len(query) < dim {
		return 0, false
	}

	n := len(out)
	if maxVal := len(targets) / dim; maxVal < n {
		n = maxVal
	}
	if n == 0 {
		return 0, false
	}

	return n, true
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricIP
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricIP:
		return "IP"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricIP:
		return NegDot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
