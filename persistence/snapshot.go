package persistence

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hupe1980/vecdex/index"
	"github.com/hupe1980/vecdex/internal/mmap"
)

// EncodeSnapshot writes idx as a self-describing snapshot: a FileHeader
// followed by the encoded index payload, compressed per compression and
// covered by a CRC32 checksum. It returns the number of bytes written.
func EncodeSnapshot(w io.Writer, idx index.Index, compression CompressionType) (int64, error) {
	var payload bytes.Buffer
	if err := idx.Encode(&payload); err != nil {
		return 0, fmt.Errorf("failed to encode index: %w", err)
	}

	stored, err := Compress(payload.Bytes(), compression)
	if err != nil {
		return 0, fmt.Errorf("failed to compress payload: %w", err)
	}

	header := FileHeader{
		IndexKind:   uint8(idx.Kind()),
		Compression: uint8(compression),
		VectorCount: uint64(idx.Len()),
		Dimension:   uint32(idx.Dims()),
		PayloadSize: uint64(len(stored)),
		Checksum:    CalculateChecksum(stored),
	}

	bw := NewBinaryIndexWriter(w)
	if err := bw.WriteHeader(&header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return 0, fmt.Errorf("failed to write payload: %w", err)
	}

	return int64(HeaderSize + len(stored)), nil
}

// DecodeSnapshot reads a snapshot produced by EncodeSnapshot and
// reconstructs the index. The checksum is verified before the payload
// is decoded, and the decoded index is cross-checked against the header.
func DecodeSnapshot(r io.Reader) (index.Index, error) {
	br := NewBinaryIndexReader(r)
	header, err := br.ReadHeader()
	if err != nil {
		return nil, err
	}

	cr := NewChecksumReader(io.LimitReader(r, int64(header.PayloadSize)))
	stored := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(cr, stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedSnapshot, err)
	}
	if err := cr.Verify(header.Checksum); err != nil {
		return nil, err
	}

	payload, err := Decompress(stored, CompressionType(header.Compression))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	idx, err := index.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	if uint8(idx.Kind()) != header.IndexKind ||
		idx.Dims() != int(header.Dimension) ||
		idx.Len() != int(header.VectorCount) {
		return nil, ErrHeaderMismatch
	}

	return idx, nil
}

// LoadSnapshotMapped decodes a snapshot from a memory-mapped file,
// avoiding read syscalls for large snapshots. The decoded index owns
// its memory; the mapping is released before returning.
func LoadSnapshotMapped(filename string) (index.Index, error) {
	m, err := mmap.Open(filename)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	return DecodeSnapshot(bytes.NewReader(m.Data))
}
