package vmath

// Generic kernels. Straight loops that accumulate in source order, kept
// as the reference implementation for the unrolled variants.

func dotGeneric(a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func squaredL2Generic(a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func scaleGeneric(dst []float32, s float32) {
	for i := range dst {
		dst[i] *= s
	}
}

func dotBatchGeneric(query, targets []float32, dim int, out []float32) {
	query = query[:dim]
	for i := range out {
		out[i] = kernelDot(query, targets[i*dim:(i+1)*dim])
	}
}

func squaredL2BatchGeneric(query, targets []float32, dim int, out []float32) {
	query = query[:dim]
	for i := range out {
		out[i] = kernelSquaredL2(query, targets[i*dim:(i+1)*dim])
	}
}

// Unrolled kernels. Four independent accumulators per step break the
// floating-point dependency chain, so results can differ from the
// generic kernels in the last bits. Tests compare within a tolerance.

func dotUnrolled(a, b []float32) float32 {
	b = b[:len(a)]
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

func squaredL2Unrolled(a, b []float32) float32 {
	b = b[:len(a)]
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < len(a); i++ {
		d := a[i] - b[i]
		s0 += d * d
	}
	return (s0 + s1) + (s2 + s3)
}

func scaleUnrolled(dst []float32, s float32) {
	i := 0
	for ; i+4 <= len(dst); i += 4 {
		dst[i] *= s
		dst[i+1] *= s
		dst[i+2] *= s
		dst[i+3] *= s
	}
	for ; i < len(dst); i++ {
		dst[i] *= s
	}
}
