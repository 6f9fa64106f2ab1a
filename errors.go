package vecdex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecdex/dispatch"
)

var (
	// ErrDisposed is returned when an operation reaches a handle that has
	// already been closed.
	ErrDisposed = errors.New("handle is disposed")

	// ErrEmptyIndex is returned by search operations on a handle holding
	// zero vectors.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrPoolClosed is returned when an operation cannot be scheduled
	// because the dispatcher pool has been closed.
	ErrPoolClosed = dispatch.ErrPoolClosed
)

// ValidationError indicates malformed input detected before any work was
// scheduled. It is always returned synchronously and never through a future.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid argument: %s", e.Op, e.Reason)
}

// DimensionMismatchError indicates a vector dimensionality conflict between
// two handles or between a snapshot and its header.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	cause    error
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return e.cause }

// EngineError wraps a failure reported by the underlying index engine or
// the persistence layer during an operation.
//
// The original underlying error can be accessed via errors.Unwrap.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: engine error: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// translateError normalizes internal errors into the public taxonomy.
// Errors already part of it pass through; everything else becomes an
// EngineError for op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrDisposed) || errors.Is(err, ErrEmptyIndex) || errors.Is(err, ErrPoolClosed) {
		return err
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	var dm *DimensionMismatchError
	if errors.As(err, &dm) {
		return err
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}

	return &EngineError{Op: op, Err: err}
}
