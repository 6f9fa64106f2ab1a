package vmath

import (
	"os"
	"strings"
)

// Kernel function pointers. Bound once by init, never reassigned after,
// so concurrent callers need no synchronization.
var (
	kernelDot            func(a, b []float32) float32
	kernelSquaredL2      func(a, b []float32) float32
	kernelScale          func(dst []float32, s float32)
	kernelDotBatch       func(query, targets []float32, dim int, out []float32)
	kernelSquaredL2Batch func(query, targets []float32, dim int, out []float32)
)

// active names the kernel set currently bound.
var active string

func init() {
	bind(kernelsFromEnv())
}

func kernelsFromEnv() string {
	switch strings.ToLower(os.Getenv("VECDEX_KERNELS")) {
	case "generic":
		return "generic"
	case "unrolled":
		return "unrolled"
	default:
		return "unrolled"
	}
}

func bind(name string) {
	switch name {
	case "generic":
		kernelDot = dotGeneric
		kernelSquaredL2 = squaredL2Generic
		kernelScale = scaleGeneric
		kernelDotBatch = dotBatchGeneric
		kernelSquaredL2Batch = squaredL2BatchGeneric
	default:
		name = "unrolled"
		kernelDot = dotUnrolled
		kernelSquaredL2 = squaredL2Unrolled
		kernelScale = scaleUnrolled
		kernelDotBatch = dotBatchGeneric
		kernelSquaredL2Batch = squaredL2BatchGeneric
	}
	active = name
}

// Active reports which kernel set is bound, "generic" or "unrolled".
func Active() string {
	return active
}

// Dot computes the dot product of a and b.
//
// SAFETY: the caller must ensure len(b) >= len(a).
func Dot(a, b []float32) float32 {
	return kernelDot(a, b)
}

// SquaredL2 computes the squared Euclidean distance between a and b.
//
// SAFETY: the caller must ensure len(b) >= len(a).
func SquaredL2(a, b []float32) float32 {
	return kernelSquaredL2(a, b)
}

// ScaleInPlace multiplies every element of dst by s.
func ScaleInPlace(dst []float32, s float32) {
	kernelScale(dst, s)
}

// DotBatch computes the dot product of query against every dim-sized row
// of targets, writing one result per row into out.
//
// SAFETY: the caller must ensure len(query) >= dim,
// len(targets) >= dim*len(out), and dim > 0.
func DotBatch(query, targets []float32, dim int, out []float32) {
	kernelDotBatch(query, targets, dim, out)
}

// SquaredL2Batch computes the squared Euclidean distance of query against
// every dim-sized row of targets, writing one result per row into out.
//
// SAFETY: the caller must ensure len(query) >= dim,
// len(targets) >= dim*len(out), and dim > 0.
func SquaredL2Batch(query, targets []float32, dim int, out []float32) {
	kernelSquaredL2Batch(query, targets, dim, out)
}
