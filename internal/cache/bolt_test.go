package cache

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codetrend/internal/logging"
	"github.com/rohankatakam/codetrend/internal/models"
)

func TestBoltStore_GetPut(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "nested", "cache.db"), "1", logging.Discard())
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.BlobMetrics{CodeLines: 10, TestCases: 2}
	require.NoError(t, store.Put("h|go", want))

	got, ok, err := store.Get("h|go")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBoltStore_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	v1, err := OpenBoltStore(path, "1", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, v1.Put("h|go", models.BlobMetrics{CodeLines: 1}))
	require.NoError(t, v1.Close())

	v2, err := OpenBoltStore(path, "2", logging.Discard())
	require.NoError(t, err)
	defer v2.Close()

	_, ok, err := v2.Get("h|go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlobCache_WarmStartFromBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()
	var calls atomic.Int32
	want := models.BlobMetrics{DocLines: 5}

	store, err := OpenBoltStore(path, "1", logging.Discard())
	require.NoError(t, err)
	first := NewBlobCache(store, logging.Discard())
	_, err = first.GetOrCompute(ctx, "readme|md", counting(&calls, want))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path, "1", logging.Discard())
	require.NoError(t, err)
	defer store.Close()
	second := NewBlobCache(store, logging.Discard())
	got, err := second.GetOrCompute(ctx, "readme|md", counting(&calls, models.BlobMetrics{}))
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), second.Stats().PersistentHits)
	assert.Equal(t, int64(0), second.Stats().Misses)
}
