// Package vmath provides the float32 vector math kernels behind the
// distance package.
//
// Kernels are bound to package-level function pointers once at init, so
// callers pay no dispatch overhead. The default kernels process four
// independent accumulators per step, which breaks the floating-point
// dependency chain and lets the compiler vectorize the loop.
//
// # Kernel selection
//
// The VECDEX_KERNELS environment variable overrides the binding:
//
//	VECDEX_KERNELS=generic   straight reference loops
//	VECDEX_KERNELS=unrolled  four-way unrolled loops (default)
//
// The generic kernels accumulate in source order and exist as the
// reference for tests and for debugging numeric discrepancies.
package vmath
