package hnsw

import (
	"bytes"
	"testing"

	"github.com/hupe1980/vecdex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHNSW(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		h, err := New(3, 8)
		require.NoError(t, err)
		assert.Equal(t, index.KindHNSW, h.Kind())
		assert.Equal(t, 3, h.Dims())
		assert.Equal(t, 8, h.M())
		assert.Equal(t, 0, h.Len())
		assert.True(t, h.Trained())

		// Zero m falls back to the default
		h, err = New(3, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultM, h.M())

		_, err = New(0, 8)
		assert.Error(t, err)
	})

	t.Run("Train", func(t *testing.T) {
		h, err := New(3, 8)
		require.NoError(t, err)
		assert.ErrorIs(t, h.Train([]float32{1, 2, 3}), index.ErrNoTraining)
	})

	t.Run("AddSearch", func(t *testing.T) {
		h, err := New(4, 16)
		require.NoError(t, err)
		require.NoError(t, h.Add([]float32{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}))
		assert.Equal(t, 4, h.Len())

		res, err := h.Search([]float32{1, 0, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, int64(0), res[0].Label)
		assert.InDelta(t, float32(0), res[0].Distance, 1e-6)

		// k larger than stored count clamps
		res, err = h.Search([]float32{1, 0, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, res, 4)
		for i := 1; i < len(res); i++ {
			assert.GreaterOrEqual(t, res[i].Distance, res[i-1].Distance)
		}

		// Empty index yields no candidates
		empty, err := New(4, 16)
		require.NoError(t, err)
		res, err = empty.Search([]float32{1, 0, 0, 0}, 1)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("AddValidation", func(t *testing.T) {
		h, err := New(3, 8)
		require.NoError(t, err)
		assert.Error(t, h.Add(nil))
		assert.Error(t, h.Add([]float32{1, 2}))
	})

	t.Run("RangeSearch", func(t *testing.T) {
		h, err := New(2, 8)
		require.NoError(t, err)
		require.NoError(t, h.Add([]float32{
			0, 0,
			1, 0,
			5, 0,
		}))

		res, err := h.RangeSearch([]float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(0), res[0].Label)
		assert.Equal(t, int64(1), res[1].Label)
	})

	t.Run("Merge", func(t *testing.T) {
		a, err := New(2, 8)
		require.NoError(t, err)
		require.NoError(t, a.Add([]float32{0, 0}))

		b, err := New(2, 8)
		require.NoError(t, err)
		require.NoError(t, b.Add([]float32{5, 5, 6, 6}))

		require.NoError(t, a.Merge(b))
		assert.Equal(t, 3, a.Len())
		// HNSW merge copies; the source keeps its vectors.
		assert.Equal(t, 2, b.Len())

		res, err := a.Search([]float32{5, 5}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, int64(1), res[0].Label)
	})

	t.Run("Reset", func(t *testing.T) {
		h, err := New(2, 8)
		require.NoError(t, err)
		h.SetEfSearch(50)
		require.NoError(t, h.Add([]float32{1, 1}))
		h.Reset()
		assert.Equal(t, 0, h.Len())
		assert.Equal(t, 50, h.ef)

		require.NoError(t, h.Add([]float32{2, 2}))
		res, err := h.Search([]float32{2, 2}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, int64(0), res[0].Label)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		h, err := New(4, 8)
		require.NoError(t, err)
		h.SetEfSearch(40)
		require.NoError(t, h.Add([]float32{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
		}))

		var buf bytes.Buffer
		require.NoError(t, h.Encode(&buf))

		decoded, err := index.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, index.KindHNSW, decoded.Kind())
		assert.Equal(t, 4, decoded.Dims())
		assert.Equal(t, 3, decoded.Len())

		dh, ok := decoded.(*HNSW)
		require.True(t, ok)
		assert.Equal(t, 8, dh.M())
		assert.Equal(t, 40, dh.ef)

		// The rebuilt graph reproduces the original search behavior.
		want, err := h.Search([]float32{0, 1, 0, 0}, 3)
		require.NoError(t, err)
		got, err := decoded.Search([]float32{0, 1, 0, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
