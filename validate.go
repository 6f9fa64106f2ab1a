package vecdex

import (
	"fmt"
	"math"
)

// Validation is synchronous and side-effect free: a failure returns a
// ValidationError before any work is scheduled and never touches the
// handle's lock.

func validateDims(op string, dims int) error {
	if dims <= 0 {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("dimension must be positive, got %d", dims)}
	}
	return nil
}

// validateBatch checks a flattened vector batch for add and train. An
// empty batch is an error, not a no-op.
func validateBatch(op string, vectors []float32, dims int) error {
	if len(vectors) == 0 {
		return &ValidationError{Op: op, Reason: "no vectors provided"}
	}
	if len(vectors)%dims != 0 {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("vector data length %d is not a multiple of dimension %d", len(vectors), dims)}
	}
	return validateComponents(op, vectors)
}

func validateQuery(op string, query []float32, dims int) error {
	if len(query) != dims {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("query length %d does not match dimension %d", len(query), dims)}
	}
	return validateComponents(op, query)
}

func validateComponents(op string, vectors []float32) error {
	for i, v := range vectors {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return &ValidationError{Op: op, Reason: fmt.Sprintf("vector component %d is not finite", i)}
		}
	}
	return nil
}

func validateK(op string, k int) error {
	if k < 1 {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("k must be at least 1, got %d", k)}
	}
	return nil
}

func validateRadius(op string, radius float32) error {
	if math.IsNaN(float64(radius)) {
		return &ValidationError{Op: op, Reason: "radius is NaN"}
	}
	if radius < 0 {
		return &ValidationError{Op: op, Reason: fmt.Sprintf("radius must be non-negative, got %g", radius)}
	}
	return nil
}

func validateName(op, name string) error {
	if name == "" {
		return &ValidationError{Op: op, Reason: "name must not be empty"}
	}
	return nil
}
