// Package persistence provides binary serialization for vector index
// snapshots.
//
// A snapshot is a 64-byte FileHeader followed by the encoded index
// payload, optionally compressed (LZ4 or ZSTD) and covered by a CRC32
// checksum. Snapshots round-trip through EncodeSnapshot/DecodeSnapshot
// and can be written to files atomically with SaveToFile.
//
// PLATFORM REQUIREMENTS:
//   - Architecture: amd64 or arm64 only
//   - Endianness: Little-endian (native on x86_64 and ARM64)
//   - Alignment: 4-byte for float32, 8-byte for int64/uint64
//
// The unsafe slice conversions are verified at runtime with alignment
// checks and platform validation.
package persistence
