package vecdex_test

import (
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/vecdex"
	"github.com/hupe1980/vecdex/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCloseIdempotent verifies that calling Close() multiple times is safe.
func TestCloseIdempotent(t *testing.T) {
	h, err := vecdex.NewFlatL2(8)
	require.NoError(t, err)

	rng := testutil.NewRNG(1)
	f, err := h.Add(rng.FlatVectors(10, 8))
	require.NoError(t, err)
	_, err = f.Result()
	require.NoError(t, err)

	// Close multiple times should not panic or error
	err1 := h.Close()
	err2 := h.Close()
	err3 := h.Close()

	assert.NoError(t, err1, "First close should succeed")
	assert.NoError(t, err2, "Second close should be idempotent")
	assert.NoError(t, err3, "Third close should be idempotent")
}

// TestCloseNilHandle verifies that Close on a nil handle is a no-op.
func TestCloseNilHandle(t *testing.T) {
	var h *vecdex.Vecdex

	assert.NoError(t, h.Close())
}

// TestDisposedOperations verifies that every operation on a closed handle
// reports ErrDisposed: asynchronous operations through their future,
// synchronous operations directly.
func TestDisposedOperations(t *testing.T) {
	h, err := vecdex.NewFlatL2(4)
	require.NoError(t, err)

	f, err := h.Add([]float32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = f.Result()
	require.NoError(t, err)

	require.NoError(t, h.Close())

	t.Run("Add", func(t *testing.T) {
		f, err := h.Add([]float32{1, 2, 3, 4})
		require.NoError(t, err, "scheduling succeeds; disposal surfaces through the future")

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("Search", func(t *testing.T) {
		f, err := h.Search([]float32{1, 2, 3, 4}, 1)
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("SearchBatch", func(t *testing.T) {
		f, err := h.SearchBatch([]float32{1, 2, 3, 4}, 1)
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("RangeSearch", func(t *testing.T) {
		f, err := h.RangeSearch([]float32{1, 2, 3, 4}, 1)
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("Train", func(t *testing.T) {
		f, err := h.Train([]float32{1, 2, 3, 4})
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("ToBuffer", func(t *testing.T) {
		_, err := h.ToBuffer().Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("Save", func(t *testing.T) {
		f, err := h.Save(t.TempDir() + "/never.vdx")
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("MergeFrom", func(t *testing.T) {
		src, err := vecdex.NewFlatL2(4)
		require.NoError(t, err)
		defer src.Close()

		f, err := h.MergeFrom(src)
		require.NoError(t, err)

		_, err = f.Result()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("Stats", func(t *testing.T) {
		_, err := h.Stats()
		assert.ErrorIs(t, err, vecdex.ErrDisposed)
	})

	t.Run("Reset", func(t *testing.T) {
		assert.ErrorIs(t, h.Reset(), vecdex.ErrDisposed)
	})

	t.Run("SetNprobe", func(t *testing.T) {
		assert.ErrorIs(t, h.SetNprobe(4), vecdex.ErrDisposed)
	})

	t.Run("SetEfSearch", func(t *testing.T) {
		assert.ErrorIs(t, h.SetEfSearch(100), vecdex.ErrDisposed)
	})
}

// TestDisposedMergeSource verifies that merging from a closed source
// handle fails through the future rather than corrupting the destination.
func TestDisposedMergeSource(t *testing.T) {
	dst, err := vecdex.NewFlatL2(4)
	require.NoError(t, err)
	defer dst.Close()

	src, err := vecdex.NewFlatL2(4)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	f, err := dst.MergeFrom(src)
	require.NoError(t, err)

	_, err = f.Result()
	assert.ErrorIs(t, err, vecdex.ErrDisposed)

	stats, err := dst.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Ntotal)
}

// TestCloseWithActiveOperations verifies graceful shutdown during active
// operations: in-flight work either completes or reports ErrDisposed, and
// nothing panics.
func TestCloseWithActiveOperations(t *testing.T) {
	h, err := vecdex.NewFlatL2(16)
	require.NoError(t, err)

	rng := testutil.NewRNG(2)

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			f, err := h.Add(rng.FlatVectors(4, 16))
			if err != nil {
				break
			}
			// Adds racing the close either land or reject with
			// ErrDisposed; both are acceptable here.
			_, _ = f.Result()
			time.Sleep(time.Millisecond)
		}
		done <- true
	}()

	// Let some adds happen
	time.Sleep(20 * time.Millisecond)

	// Close while operations are active
	err = h.Close()
	assert.NoError(t, err, "Close should succeed even with active operations")

	// Wait for goroutine to finish
	<-done
}

// TestConcurrentClose verifies that racing Close calls are safe and every
// caller observes success.
func TestConcurrentClose(t *testing.T) {
	h, err := vecdex.NewFlatL2(4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Close())
		}()
	}
	wg.Wait()

	_, err = h.Stats()
	assert.ErrorIs(t, err, vecdex.ErrDisposed)
}
