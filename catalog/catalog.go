package catalog

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when an index has no published snapshot.
	ErrNotFound = errors.New("catalog: index not found")

	// ErrConflict is returned when a concurrent publisher committed a
	// newer pointer first. The caller may re-read and retry.
	ErrConflict = errors.New("catalog: concurrent modification detected")
)

// Catalog maps an index name to the blob key of its latest snapshot, so
// a reloading process can find the current snapshot without listing the
// store.
type Catalog interface {
	// SetLatest publishes key as the latest snapshot of index.
	SetLatest(ctx context.Context, index, key string) error

	// Latest returns the most recently published snapshot key of index.
	Latest(ctx context.Context, index string) (string, error)
}

// MemoryCatalog is an in-memory Catalog for tests and single-process
// deployments.
type MemoryCatalog struct {
	mu     sync.RWMutex
	latest map[string]string
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		latest: make(map[string]string),
	}
}

// SetLatest implements Catalog.
func (c *MemoryCatalog) SetLatest(_ context.Context, index, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[index] = key
	return nil
}

// Latest implements Catalog.
func (c *MemoryCatalog) Latest(_ context.Context, index string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key, ok := c.latest[index]
	if !ok {
		return "", ErrNotFound
	}
	return key, nil
}
