package ivf

import (
	"bytes"
	"testing"

	"github.com/hupe1980/vecdex/distance"
	"github.com/hupe1980/vecdex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainingSet builds two well-separated clusters around (0,0) and (10,10).
func trainingSet() []float32 {
	var vecs []float32
	for i := 0; i < 8; i++ {
		vecs = append(vecs, float32(i%3)*0.1, float32(i%2)*0.1)
	}
	for i := 0; i < 8; i++ {
		vecs = append(vecs, 10+float32(i%3)*0.1, 10+float32(i%2)*0.1)
	}
	return vecs
}

func newTrained(t *testing.T) *IVF {
	t.Helper()
	ix, err := New(2, 2, distance.MetricL2)
	require.NoError(t, err)
	require.NoError(t, ix.Train(trainingSet()))
	return ix
}

func TestIVF(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		ix, err := New(2, 4, distance.MetricL2)
		require.NoError(t, err)
		assert.Equal(t, index.KindIVFFlat, ix.Kind())
		assert.Equal(t, 2, ix.Dims())
		assert.Equal(t, 4, ix.Nlist())
		assert.False(t, ix.Trained())

		// Zero nlist falls back to the default
		ix, err = New(2, 0, distance.MetricL2)
		require.NoError(t, err)
		assert.Equal(t, DefaultNlist, ix.Nlist())

		_, err = New(0, 4, distance.MetricL2)
		assert.Error(t, err)
	})

	t.Run("TrainRequired", func(t *testing.T) {
		ix, err := New(2, 2, distance.MetricL2)
		require.NoError(t, err)

		assert.ErrorIs(t, ix.Add([]float32{1, 1}), index.ErrNotTrained)

		_, err = ix.Search([]float32{1, 1}, 1)
		assert.ErrorIs(t, err, index.ErrNotTrained)

		_, err = ix.RangeSearch([]float32{1, 1}, 1)
		assert.ErrorIs(t, err, index.ErrNotTrained)
	})

	t.Run("Train", func(t *testing.T) {
		ix, err := New(2, 2, distance.MetricL2)
		require.NoError(t, err)

		// Too few vectors
		assert.Error(t, ix.Train([]float32{1, 1}))

		require.NoError(t, ix.Train(trainingSet()))
		assert.True(t, ix.Trained())

		// Training twice is rejected
		assert.ErrorIs(t, ix.Train(trainingSet()), index.ErrAlreadyTrained)
	})

	t.Run("AddSearch", func(t *testing.T) {
		ix := newTrained(t)
		require.NoError(t, ix.Add([]float32{
			0, 0,
			10, 10,
			0.5, 0.5,
		}))
		assert.Equal(t, 3, ix.Len())

		// Probing all partitions makes the search exact.
		ix.SetNprobe(2)
		res, err := ix.Search([]float32{0.1, 0.1}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(0), res[0].Label)
		assert.Equal(t, int64(2), res[1].Label)
		assert.LessOrEqual(t, res[0].Distance, res[1].Distance)

		// k clamps to stored count
		res, err = ix.Search([]float32{0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, res, 3)
	})

	t.Run("SetNprobeClamp", func(t *testing.T) {
		ix := newTrained(t)
		ix.SetNprobe(0)
		assert.Equal(t, 1, ix.nprobe)
		ix.SetNprobe(100)
		assert.Equal(t, 2, ix.nprobe)
	})

	t.Run("RangeSearch", func(t *testing.T) {
		ix := newTrained(t)
		require.NoError(t, ix.Add([]float32{
			0, 0,
			1, 0,
			10, 10,
		}))

		ix.SetNprobe(2)
		res, err := ix.RangeSearch([]float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(0), res[0].Label)
		assert.Equal(t, int64(1), res[1].Label)
	})

	t.Run("Merge", func(t *testing.T) {
		a := newTrained(t)
		require.NoError(t, a.Add([]float32{0, 0, 10, 10}))

		b := newTrained(t)
		require.NoError(t, b.Add([]float32{0.5, 0.5}))

		require.NoError(t, a.Merge(b))
		assert.Equal(t, 3, a.Len())
		// IVF merge consumes the source.
		assert.Equal(t, 0, b.Len())
		assert.True(t, b.Trained())

		// Moved vectors are relabeled past the existing ones and stay
		// searchable.
		a.SetNprobe(2)
		res, err := a.Search([]float32{0.5, 0.5}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, int64(2), res[0].Label)
	})

	t.Run("MergeMismatch", func(t *testing.T) {
		a := newTrained(t)

		b, err := New(2, 2, distance.MetricL2)
		require.NoError(t, err)
		assert.ErrorIs(t, a.Merge(b), index.ErrNotTrained)

		c, err := New(3, 2, distance.MetricL2)
		require.NoError(t, err)
		assert.Error(t, a.Merge(c))
	})

	t.Run("Reset", func(t *testing.T) {
		ix := newTrained(t)
		require.NoError(t, ix.Add([]float32{0, 0}))
		ix.Reset()
		assert.Equal(t, 0, ix.Len())
		// Centroids survive; new vectors can be added without retraining.
		assert.True(t, ix.Trained())
		require.NoError(t, ix.Add([]float32{1, 1}))
		assert.Equal(t, 1, ix.Len())
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		ix := newTrained(t)
		require.NoError(t, ix.Add([]float32{0, 0, 10, 10, 0.5, 0.5}))
		ix.SetNprobe(2)

		var buf bytes.Buffer
		require.NoError(t, ix.Encode(&buf))

		decoded, err := index.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, index.KindIVFFlat, decoded.Kind())
		assert.Equal(t, 2, decoded.Dims())
		assert.Equal(t, 3, decoded.Len())
		assert.True(t, decoded.Trained())

		res, err := decoded.Search([]float32{0.1, 0.1}, 3)
		require.NoError(t, err)
		want, err := ix.Search([]float32{0.1, 0.1}, 3)
		require.NoError(t, err)
		assert.Equal(t, want, res)
	})

	t.Run("EncodeDecodeUntrained", func(t *testing.T) {
		ix, err := New(2, 2, distance.MetricL2)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, ix.Encode(&buf))

		decoded, err := index.Decode(&buf)
		require.NoError(t, err)
		assert.False(t, decoded.Trained())
		assert.Equal(t, 0, decoded.Len())
	})
}
