// Package index provides the engine contract shared by all vector index
// variants and a registry for decoding persisted engines.
package index

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Kind identifies an index variant on the wire and in stats output.
type Kind uint8

const (
	KindFlatL2 Kind = iota + 1
	KindFlatIP
	KindIVFFlat
	KindHNSW
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFlatL2:
		return "FlatL2"
	case KindFlatIP:
		return "FlatIP"
	case KindIVFFlat:
		return "IVFFlat"
	case KindHNSW:
		return "HNSW"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

var (
	// ErrNotTrained is returned when an operation requires a trained index.
	ErrNotTrained = errors.New("index is not trained")

	// ErrAlreadyTrained is returned when training an index a second time.
	ErrAlreadyTrained = errors.New("index is already trained")

	// ErrNoTraining is returned when training an index that has no
	// training step.
	ErrNoTraining = errors.New("index does not require training")

	// ErrKindMismatch is returned when merging indexes of different kinds.
	ErrKindMismatch = errors.New("index kinds do not match")
)

// Candidate is a single search hit. Distance follows the "smaller is
// closer" convention for every kind.
type Candidate struct {
	// Label is the dense sequential identifier assigned at insertion.
	Label int64

	// Distance is the score between the query and the stored vector.
	Distance float32
}

// Index is the contract every engine variant implements. Implementations
// are not safe for concurrent use; callers serialize access.
type Index interface {
	// Kind reports the variant tag.
	Kind() Kind

	// Description reports a factory-style descriptor such as "Flat" or
	// "IVF100,Flat", including the variant's tuning parameters.
	Description() string

	// Dims reports the vector dimensionality.
	Dims() int

	// Len reports the number of stored vectors.
	Len() int

	// Trained reports whether the index is ready to accept vectors.
	Trained() bool

	// Train fits the index structure on a sample of vectors.
	Train(vectors []float32) error

	// Add appends vectors, assigning dense sequential labels.
	Add(vectors []float32) error

	// Search returns up to k candidates ordered by ascending distance.
	Search(query []float32, k int) ([]Candidate, error)

	// RangeSearch returns all candidates within radius, ordered by
	// ascending distance.
	RangeSearch(query []float32, radius float32) ([]Candidate, error)

	// Merge appends all vectors of other into the receiver. The source
	// may be consumed; callers must re-read its Len afterwards.
	Merge(other Index) error

	// Reset removes all vectors but keeps the trained structure.
	Reset()

	// Encode writes the index, prefixed with its kind tag, to w.
	Encode(w io.Writer) error
}

// NprobeSetter is implemented by partition-based indexes that honor a
// probe count at query time.
type NprobeSetter interface {
	SetNprobe(nprobe int)
}

// EfSearcher is implemented by graph-based indexes that honor a search
// beam width at query time.
type EfSearcher interface {
	SetEfSearch(ef int)
}

// BatchSearcher is implemented by indexes with a faster multi-query path.
// Indexes without it are searched query by query.
type BatchSearcher interface {
	SearchBatch(queries []float32, k int) ([][]Candidate, error)
}

// Decoder constructs an index by reading the bytes produced by Encode.
// The reader is positioned after the kind tag.
type Decoder func(r io.Reader) (Index, error)

var (
	decoderMu sync.RWMutex
	decoders  = map[Kind]Decoder{}
)

// RegisterDecoder registers a decoder for an index kind.
//
// Index implementations should typically call this from an init() function.
func RegisterDecoder(kind Kind, dec Decoder) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	decoders[kind] = dec
}

// Decode reads the kind tag from r and dispatches to the registered
// decoder. After this returns successfully, r is positioned immediately
// after the index bytes.
func Decode(r io.Reader) (Index, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, fmt.Errorf("failed to read index kind: %w", err)
	}

	kind := Kind(tag[0])

	decoderMu.RLock()
	dec, ok := decoders[kind]
	decoderMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown index kind: %d", tag[0])
	}

	idx, err := dec(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s index: %w", kind, err)
	}

	return idx, nil
}
