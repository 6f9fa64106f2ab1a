// Package testutil provides testing utilities for Vecdex.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	batch := rng.FlatVectors(1000, 128) // row-major, uniform [0, 1)
//	query := rng.UnitVector(128)        // single L2-normalized vector
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceSearch(batch, 128, query, 10)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(results, approxResults)
package testutil
