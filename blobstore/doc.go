// Package blobstore provides storage abstraction for snapshot blobs.
//
// Store is the interface for reading and writing whole snapshots.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory map, for tests
//   - LocalStore: local filesystem with atomic writes
//   - s3.Store: Amazon S3 via aws-sdk-go-v2
//   - minio.Store: any S3-compatible endpoint via minio-go
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Put(ctx, name, data) error
//	    Get(ctx, name) ([]byte, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs are reported with an error satisfying
// errors.Is(err, ErrNotFound).
package blobstore
