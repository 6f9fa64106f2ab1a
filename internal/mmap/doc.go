// Package mmap provides memory-mapped file access for zero-copy I/O.
//
// Memory mapping allows direct access to file contents without copying
// data through kernel buffers, which keeps large snapshot loads cheap.
//
// # Usage
//
//	m, err := mmap.Open("snapshot.vdx")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy access to file contents
//	data := m.Data
//
// The mapping is read-only. Callers must ensure no goroutines access
// Data after Close returns.
package mmap
