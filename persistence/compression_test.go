package persistence

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func compressibleData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 16)
	}
	return data
}

func incompressibleData(n int) []byte {
	rng := rand.New(rand.NewSource(4711))
	data := make([]byte, n)
	rng.Read(data)
	return data
}

func TestCompression_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"compressible":   compressibleData(64 * 1024),
		"incompressible": incompressibleData(64 * 1024),
		"tiny":           []byte{1, 2, 3},
	}

	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for name, data := range inputs {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				stored, err := Compress(data, ct)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}

				restored, err := Decompress(stored, ct)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !bytes.Equal(restored, data) {
					t.Errorf("round trip corrupted data: got %d bytes, want %d", len(restored), len(data))
				}
			})
		}
	}
}

func TestCompression_ShrinksCompressibleData(t *testing.T) {
	data := compressibleData(64 * 1024)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			stored, err := Compress(data, ct)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if len(stored) >= len(data) {
				t.Errorf("compressed size %d not smaller than input %d", len(stored), len(data))
			}
		})
	}
}

func TestCompression_NonePassthrough(t *testing.T) {
	data := []byte{1, 2, 3, 4}

	stored, err := Compress(data, CompressionNone)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if &stored[0] != &data[0] {
		t.Error("CompressionNone should return the input unchanged")
	}
}

func TestCompression_EmptyInput(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		stored, err := Compress(nil, ct)
		if err != nil {
			t.Fatalf("%s: Compress(nil) failed: %v", ct, err)
		}
		if len(stored) != 0 {
			t.Errorf("%s: Compress(nil) produced %d bytes", ct, len(stored))
		}
	}
}

func TestCompression_InvalidType(t *testing.T) {
	if _, err := Compress([]byte{1}, CompressionType(99)); !errors.Is(err, ErrInvalidCompression) {
		t.Errorf("Compress: expected ErrInvalidCompression, got %v", err)
	}
	if _, err := Decompress(make([]byte, blockHeaderSize+1), CompressionType(99)); !errors.Is(err, ErrInvalidCompression) {
		t.Errorf("Decompress: expected ErrInvalidCompression, got %v", err)
	}

	// A raw-stored block (compressed-size tag 0) must be rejected too,
	// not returned as valid data.
	stored, err := Compress(incompressibleData(256), CompressionLZ4)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if _, err := Decompress(stored, CompressionType(99)); !errors.Is(err, ErrInvalidCompression) {
		t.Errorf("Decompress raw-stored block: expected ErrInvalidCompression, got %v", err)
	}
}

func TestCompression_TruncatedPayload(t *testing.T) {
	data := compressibleData(4096)

	stored, err := Compress(data, CompressionZSTD)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if _, err := Decompress(stored[:blockHeaderSize-1], CompressionZSTD); err == nil {
		t.Error("expected error for payload shorter than the block header")
	}
	if _, err := Decompress(stored[:len(stored)/2], CompressionZSTD); err == nil {
		t.Error("expected error for truncated compressed data")
	}
}

func TestCompressionType_String(t *testing.T) {
	cases := map[CompressionType]string{
		CompressionNone:    "None",
		CompressionLZ4:     "LZ4",
		CompressionZSTD:    "ZSTD",
		CompressionType(7): "Unknown(7)",
	}
	for ct, want := range cases {
		if got := ct.String(); got != want {
			t.Errorf("String(%d): got %q, want %q", uint8(ct), got, want)
		}
	}
}

func BenchmarkCompress(b *testing.B) {
	data := compressibleData(1 << 20)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := Compress(data, ct); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecompress(b *testing.B) {
	data := compressibleData(1 << 20)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		stored, err := Compress(data, ct)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := Decompress(stored, ct); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
