package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing whole snapshot blobs.
// Snapshots are written once and read back as a unit, so the interface
// trades streaming for simplicity.
type Store interface {
	// Put writes a blob under name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the blob stored under name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the blob stored under name. Deleting a missing blob
	// is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
