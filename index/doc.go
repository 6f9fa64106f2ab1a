// Package index defines the engine contract shared by all vector index
// implementations and the decoder registry used to restore them from a
// serialized snapshot.
//
// # Index Kinds
//
//   - flat: Exact nearest neighbor search (brute-force), L2 or inner product
//   - ivf: Inverted-file index with k-means partitioning, requires training
//   - hnsw: Hierarchical Navigable Small World graph for approximate search
//
// Choose based on dataset size and accuracy requirements: flat for small
// collections where exact results matter, ivf for large collections with a
// training set, hnsw for fast approximate search without training.
//
// # Distance Convention
//
// All engines report distances where a smaller value means a closer match.
// Inner-product engines negate the dot product so results sort the same way
// as L2 distances. See package distance for the kernels.
//
// # Decoding
//
// Every engine registers a Decoder for its Kind in an init function. Decode
// reads the one-byte kind tag from the stream and dispatches to the matching
// decoder, so callers can restore an index without knowing its type up front:
//
//	idx, err := index.Decode(r)
//
// # Subpackages
//
//   - flat: exact search over a packed vector slab
//   - ivf: partitioned search with a k-means coarse quantizer
//   - hnsw: graph-based approximate search
package index
