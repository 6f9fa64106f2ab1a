package flat

import (
	"bytes"
	"testing"

	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		f, err := New(3, distance.MetricL2)
		require.NoError(t, err)
		assert.Equal(t, index.KindFlatL2, f.Kind())
		assert.Equal(t, 3, f.Dims())
		assert.Equal(t, 0, f.Len())
		assert.True(t, f.Trained())

		f, err = New(3, distance.MetricIP)
		require.NoError(t, err)
		assert.Equal(t, index.KindFlatIP, f.Kind())

		_, err = New(0, distance.MetricL2)
		assert.Error(t, err)

		_, err = New(3, distance.Metric(99))
		assert.Error(t, err)
	})

	t.Run("Add", func(t *testing.T) {
		f, err := New(3, distance.MetricL2)
		require.NoError(t, err)

		require.NoError(t, f.Add([]float32{1, 2, 3, 4, 5, 6}))
		assert.Equal(t, 2, f.Len())

		// Not a multiple of dims
		assert.Error(t, f.Add([]float32{1, 2}))
		// Empty batch
		assert.Error(t, f.Add(nil))
	})

	t.Run("Train", func(t *testing.T) {
		f, err := New(3, distance.MetricL2)
		require.NoError(t, err)
		assert.ErrorIs(t, f.Train([]float32{1, 2, 3}), index.ErrNoTraining)
	})

	t.Run("Search", func(t *testing.T) {
		f, err := New(3, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		}))

		res, err := f.Search([]float32{0, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(0), res[0].Label)
		assert.Equal(t, int64(1), res[1].Label)
		assert.LessOrEqual(t, res[0].Distance, res[1].Distance)

		// k larger than stored count clamps
		res, err = f.Search([]float32{0, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, res, 3)

		// Empty index yields no candidates
		empty, err := New(3, distance.MetricL2)
		require.NoError(t, err)
		res, err = empty.Search([]float32{0, 0, 0}, 1)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("SearchIP", func(t *testing.T) {
		f, err := New(2, distance.MetricIP)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{
			1, 0,
			0, 1,
			2, 0,
		}))

		// Highest dot product wins under the negated convention.
		res, err := f.Search([]float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(2), res[0].Label)
		assert.Equal(t, int64(0), res[1].Label)
		assert.InDelta(t, float32(-2), res[0].Distance, 1e-5)
	})

	t.Run("SearchBatch", func(t *testing.T) {
		f, err := New(2, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{
			0, 0,
			10, 10,
		}))

		results, err := f.SearchBatch([]float32{
			1, 1,
			9, 9,
		}, 1)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, int64(0), results[0][0].Label)
		assert.Equal(t, int64(1), results[1][0].Label)
	})

	t.Run("RangeSearch", func(t *testing.T) {
		f, err := New(2, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{
			0, 0,
			1, 0,
			5, 0,
		}))

		res, err := f.RangeSearch([]float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(0), res[0].Label)
		assert.Equal(t, int64(1), res[1].Label)

		// Radius is exclusive
		res, err = f.RangeSearch([]float32{0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, int64(0), res[0].Label)
	})

	t.Run("Merge", func(t *testing.T) {
		a, err := New(2, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, a.Add([]float32{1, 1}))

		b, err := New(2, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, b.Add([]float32{2, 2, 3, 3}))

		require.NoError(t, a.Merge(b))
		assert.Equal(t, 3, a.Len())
		// Flat merge copies; the source keeps its vectors.
		assert.Equal(t, 2, b.Len())

		// Kind mismatch
		c, err := New(2, distance.MetricIP)
		require.NoError(t, err)
		assert.ErrorIs(t, a.Merge(c), index.ErrKindMismatch)

		// Dimension mismatch
		d, err := New(3, distance.MetricL2)
		require.NoError(t, err)
		assert.Error(t, a.Merge(d))
	})

	t.Run("Reset", func(t *testing.T) {
		f, err := New(2, distance.MetricL2)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{1, 1}))
		f.Reset()
		assert.Equal(t, 0, f.Len())
		assert.True(t, f.Trained())
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		f, err := New(2, distance.MetricIP)
		require.NoError(t, err)
		require.NoError(t, f.Add([]float32{1, 2, 3, 4}))

		var buf bytes.Buffer
		require.NoError(t, f.Encode(&buf))

		decoded, err := index.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, index.KindFlatIP, decoded.Kind())
		assert.Equal(t, 2, decoded.Dims())
		assert.Equal(t, 2, decoded.Len())

		res, err := decoded.Search([]float32{1, 2}, 2)
		require.NoError(t, err)
		want, err := f.Search([]float32{1, 2}, 2)
		require.NoError(t, err)
		assert.Equal(t, want, res)
	})
}
