package vecdex

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/hupe1980/vecdex/blobstore"
	"github.com/hupe1980/vecdex/dispatch"
	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/persistence"
)

// ToBuffer serializes the handle into a self-describing snapshot and
// resolves to the bytes. The snapshot embeds the engine kind, so
// FromBuffer needs no hints to restore it.
func (h *Vecdex) ToBuffer() *dispatch.Future[[]byte] {
	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() ([]byte, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		buf, err := h.encodeLocked()
		duration := time.Since(start)
		var n int64
		if buf != nil {
			n = int64(len(buf))
		}
		h.metrics.RecordSnapshot("to_buffer", n, duration, err)
		h.logger.LogSnapshot(context.Background(), "to_buffer", "memory", n, duration, err)
		return buf, err
	})
	if err != nil {
		return dispatch.Resolved[[]byte](nil, translateError("to_buffer", err))
	}

	return f
}

func (h *Vecdex) encodeLocked() ([]byte, error) {
	if h.guard.disposed {
		return nil, ErrDisposed
	}

	var buf bytes.Buffer
	if _, err := persistence.EncodeSnapshot(&buf, h.guard.engine, h.compression); err != nil {
		return nil, translateError("to_buffer", err)
	}
	return buf.Bytes(), nil
}

// Save writes a snapshot to path and resolves to the number of bytes
// written. The write goes through a temp file and an atomic rename, so
// a crash mid-save never corrupts an existing snapshot. When the handle
// carries an IO limit, the write is throttled.
func (h *Vecdex) Save(path string) (*dispatch.Future[int64], error) {
	if err := validateName("save", path); err != nil {
		return nil, err
	}

	start := time.Now()

	f, err := dispatch.Go(context.Background(), h.pool, func() (int64, error) {
		h.guard.mu.Lock()
		defer h.guard.mu.Unlock()

		n, err := h.saveLocked(path)
		duration := time.Since(start)
		h.metrics.RecordSnapshot("save", n, duration, err)
		h.logger.LogSnapshot(context.Background(), "save", path, n, duration, err)
		return n, err
	})
	if err != nil {
		return nil, translateError("save", err)
	}

	return f, nil
}

func (h *Vecdex) saveLocked(path string) (int64, error) {
	if h.guard.disposed {
		return 0, ErrDisposed
	}

	var written int64
	err := persistence.SaveToFile(path, func(w io.Writer) error {
		if h.ioLimit != nil {
			w = persistence.NewLimitedWriter(context.Background(), w, h.ioLimit)
		}
		n, err := persistence.EncodeSnapshot(w, h.guard.engine, h.compression)
		written = n
		return err
	})
	if err != nil {
		return 0, translateError("save", err)
	}

	return written, nil
}

// SaveToStore writes a snapshot to a blob store under name and resolves
// to the snapshot size in bytes. The context covers both the dispatch
// wait and the store upload.
func (h *Vecdex) SaveToStore(ctx context.Context, store blobstore.Store, name string) (*dispatch.Future[int64], error) {
	if store == nil {
		return nil, &ValidationError{Op: "save_to_store", Reason: "store is nil"}
	}
	if err := validateName("save_to_store", name); err != nil {
		return nil, err
	}

	start := time.Now()

	f, err := dispatch.Go(ctx, h.pool, func() (int64, error) {
		h.guard.mu.Lock()
		buf, err := h.encodeLocked()
		h.guard.mu.Unlock()

		var n int64
		if err == nil {
			n = int64(len(buf))
			// The upload runs outside the guard lock; the snapshot
			// bytes are already detached from the engine.
			if perr := store.Put(ctx, name, buf); perr != nil {
				n, err = 0, translateError("save_to_store", perr)
			}
		}

		duration := time.Since(start)
		h.metrics.RecordSnapshot("save_to_store", n, duration, err)
		h.logger.LogSnapshot(context.Background(), "save_to_store", name, n, duration, err)
		return n, err
	})
	if err != nil {
		return nil, translateError("save_to_store", err)
	}

	return f, nil
}

// FromBuffer restores a handle from snapshot bytes produced by ToBuffer.
// The dimension and engine kind come from the snapshot itself.
func FromBuffer(buf []byte, optFns ...Option) (*Vecdex, error) {
	if len(buf) == 0 {
		return nil, &ValidationError{Op: "from_buffer", Reason: "buffer is empty"}
	}

	start := time.Now()

	eng, err := persistence.DecodeSnapshot(bytes.NewReader(buf))
	if err != nil {
		return nil, translateError("from_buffer", err)
	}

	return loadedHandle(eng, optFns, "from_buffer", "memory", int64(len(buf)), start), nil
}

// Load restores a handle from a snapshot file written by Save. The file
// is memory-mapped while decoding, so large snapshots load without
// double-buffering.
func Load(path string, optFns ...Option) (*Vecdex, error) {
	if err := validateName("load", path); err != nil {
		return nil, err
	}

	start := time.Now()

	eng, err := persistence.LoadSnapshotMapped(path)
	if err != nil {
		return nil, translateError("load", err)
	}

	return loadedHandle(eng, optFns, "load", path, 0, start), nil
}

// LoadFromStore restores a handle from a blob store snapshot written by
// SaveToStore.
func LoadFromStore(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Vecdex, error) {
	if store == nil {
		return nil, &ValidationError{Op: "load_from_store", Reason: "store is nil"}
	}
	if err := validateName("load_from_store", name); err != nil {
		return nil, err
	}

	start := time.Now()

	buf, err := store.Get(ctx, name)
	if err != nil {
		return nil, translateError("load_from_store", err)
	}

	eng, err := persistence.DecodeSnapshot(bytes.NewReader(buf))
	if err != nil {
		return nil, translateError("load_from_store", err)
	}

	return loadedHandle(eng, optFns, "load_from_store", name, int64(len(buf)), start), nil
}

// loadedHandle wraps a freshly decoded engine and records the load on
// the new handle's collector, which only exists once decoding succeeded.
func loadedHandle(eng index.Index, optFns []Option, op, target string, bytes int64, start time.Time) *Vecdex {
	h := newHandle(eng, optFns)
	duration := time.Since(start)
	h.metrics.RecordSnapshot(op, bytes, duration, nil)
	h.logger.LogSnapshot(context.Background(), op, target, bytes, duration, nil)
	return h
}
