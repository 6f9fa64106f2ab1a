// Package vecdex exposes a stateful vector index to many concurrent
// callers through a safe handle.
//
// A handle owns exactly one index engine (exact flat scan, IVF with
// k-means partitioning, or an HNSW graph), an immutable dimension count,
// and a disposed flag. Slow operations run on a bounded worker pool and
// return typed futures; cheap operations run inline under the handle's
// lock.
//
// # Quick Start
//
//	h, _ := vecdex.NewFlatL2(128)
//	defer h.Close()
//
//	f, _ := h.Add(vectors)          // flattened, length % 128 == 0
//	total, _ := f.Result()
//
//	sf, _ := h.Search(query, 10)
//	res, err := sf.Wait(ctx)
//	for i, label := range res.Labels {
//	    fmt.Println(label, res.Distances[i])
//	}
//
// # Persistence
//
//	bf := h.ToBuffer()
//	buf, _ := bf.Result()
//	clone, _ := vecdex.FromBuffer(buf)
//
//	save, _ := h.Save("index.vdx")
//	bytesWritten, _ := save.Result()
//	reloaded, _ := vecdex.Load("index.vdx")
//
// Snapshots can also live in a blob store (S3, MinIO, in-memory) via
// SaveToStore and LoadFromStore.
//
// # Key Features
//
//   - Flat (exact, L2 or inner product), IVF, and HNSW engines
//   - Bounded dispatcher with typed futures; validation errors stay synchronous
//   - Deadlock-free merging of two handles
//   - Self-describing snapshots with CRC32 checksums and optional LZ4/zstd compression
//   - Atomic file saves with optional IO rate limiting
//   - Structured logging (log/slog) and pluggable metrics (Prometheus-ready)
package vecdex
