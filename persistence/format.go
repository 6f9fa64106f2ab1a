package persistence

import "errors"

const (
	// MagicNumber identifies vecdex snapshot files (ASCII: "VDX0")
	MagicNumber = 0x56445830
	// Version is the current snapshot format version (v1.0.0)
	Version = 0x00010000
)

// HeaderSize is the encoded size of FileHeader in bytes.
const HeaderSize = 64

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidCompression = errors.New("unsupported compression type")
	ErrTruncatedSnapshot  = errors.New("truncated snapshot")
	ErrHeaderMismatch     = errors.New("header does not match decoded index")
)

// FileHeader is the 64-byte header at the start of every snapshot.
// The payload that follows is the encoded index, compressed according
// to the Compression field and covered by the CRC32 checksum.
type FileHeader struct {
	Magic       uint32 // 0x56445830 ("VDX0")
	Version     uint32 // Snapshot format version
	IndexKind   uint8  // Mirror of the encoded index kind, for tooling
	Compression uint8  // CompressionType of the payload
	Padding1    [2]byte
	VectorCount uint64 // Total number of vectors at snapshot time
	Dimension   uint32 // Vector dimensionality
	PayloadSize uint64 // Payload length in bytes, as stored
	Checksum    uint32 // CRC32 of the stored payload bytes
	Padding2    [4]byte
	Reserved    [24]byte // Future use
}
