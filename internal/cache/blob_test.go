package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codetrend/internal/logging"
	"github.com/rohankatakam/codetrend/internal/models"
)

func counting(calls *atomic.Int32, m models.BlobMetrics) ComputeFunc {
	return func(ctx context.Context) (models.BlobMetrics, error) {
		calls.Add(1)
		return m, nil
	}
}

func TestBlobCache_ComputesOncePerKey(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx := context.Background()
	var calls atomic.Int32
	want := models.BlobMetrics{CodeLines: 3, TestCases: 1}

	for i := 0; i < 5; i++ {
		got, err := c.GetOrCompute(ctx, "abc|py", counting(&calls, want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, int32(1), calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(5), stats.Requests)
	assert.Equal(t, int64(4), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestBlobCache_DistinctKeys(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx := context.Background()
	var calls atomic.Int32

	a, err := c.GetOrCompute(ctx, "abc|py", counting(&calls, models.BlobMetrics{CodeLines: 1}))
	require.NoError(t, err)
	b, err := c.GetOrCompute(ctx, "abc|md", counting(&calls, models.BlobMetrics{DocLines: 1}))
	require.NoError(t, err)

	assert.Equal(t, 1, a.CodeLines)
	assert.Equal(t, 1, b.DocLines)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBlobCache_ConcurrentRequestsShareOneComputation(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	slow := func(ctx context.Context) (models.BlobMetrics, error) {
		calls.Add(1)
		<-release
		return models.BlobMetrics{DocLines: 7}, nil
	}

	const n = 50
	var wg sync.WaitGroup
	results := make([]models.BlobMetrics, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.GetOrCompute(ctx, "same", slow)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, m := range results {
		assert.Equal(t, 7, m.DocLines)
	}
}

func TestBlobCache_ErrorsAreNotStored(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx := context.Background()
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", func(ctx context.Context) (models.BlobMetrics, error) {
		calls.Add(1)
		return models.BlobMetrics{}, boom
	})
	assert.ErrorIs(t, err, boom)

	m, err := c.GetOrCompute(ctx, "k", counting(&calls, models.BlobMetrics{CodeLines: 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, m.CodeLines)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBlobCache_CancelledContext(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(ctx, "k", func(ctx context.Context) (models.BlobMetrics, error) {
			<-block
			return models.BlobMetrics{}, nil
		})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("GetOrCompute did not return after cancellation")
	}
}

func TestBlobCache_LiveCallerSurvivesCancelledLeader(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})

	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(leaderCtx, "k", func(ctx context.Context) (models.BlobMetrics, error) {
			close(started)
			<-ctx.Done()
			return models.BlobMetrics{}, ctx.Err()
		})
		leaderDone <- err
	}()
	<-started

	var calls atomic.Int32
	want := models.BlobMetrics{CodeLines: 9}
	type result struct {
		m   models.BlobMetrics
		err error
	}
	followerDone := make(chan result, 1)
	go func() {
		m, err := c.GetOrCompute(context.Background(), "k", counting(&calls, want))
		followerDone <- result{m, err}
	}()
	// Let the second caller join the in-flight computation.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-leaderDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}
	select {
	case res := <-followerDone:
		require.NoError(t, res.err)
		assert.Equal(t, want, res.m)
	case <-time.After(2 * time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, int32(1), calls.Load())

	m, err := c.GetOrCompute(context.Background(), "k", counting(&calls, models.BlobMetrics{}))
	require.NoError(t, err)
	assert.Equal(t, want, m)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBlobCache_CancelledRequestIsNotAHit(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOrCompute(ctx, "k", func(ctx context.Context) (models.BlobMetrics, error) {
		return models.BlobMetrics{}, ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, 0, stats.Entries)
}

func TestStats_Sub(t *testing.T) {
	c := NewBlobCache(nil, logging.Discard())
	ctx := context.Background()
	var calls atomic.Int32

	_, err := c.GetOrCompute(ctx, "a", counting(&calls, models.BlobMetrics{CodeLines: 1}))
	require.NoError(t, err)
	before := c.Stats()

	for i := 0; i < 3; i++ {
		_, err = c.GetOrCompute(ctx, "a", counting(&calls, models.BlobMetrics{}))
		require.NoError(t, err)
	}
	_, err = c.GetOrCompute(ctx, "b", counting(&calls, models.BlobMetrics{DocLines: 1}))
	require.NoError(t, err)

	delta := c.Stats().Sub(before)
	assert.Equal(t, int64(4), delta.Requests)
	assert.Equal(t, int64(3), delta.Hits)
	assert.Equal(t, int64(1), delta.Misses)
	assert.Equal(t, 2, delta.Entries)
}

type failingStore struct{ gets, puts atomic.Int32 }

func (f *failingStore) Get(string) (models.BlobMetrics, bool, error) {
	f.gets.Add(1)
	return models.BlobMetrics{}, false, errors.New("disk gone")
}

func (f *failingStore) Put(string, models.BlobMetrics) error {
	f.puts.Add(1)
	return errors.New("disk gone")
}

func TestBlobCache_PersistentFailuresDegradeToCompute(t *testing.T) {
	store := &failingStore{}
	c := NewBlobCache(store, logging.Discard())
	var calls atomic.Int32

	m, err := c.GetOrCompute(context.Background(), "k", counting(&calls, models.BlobMetrics{CodeLines: 4}))
	require.NoError(t, err)
	assert.Equal(t, 4, m.CodeLines)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), store.gets.Load())
	assert.Equal(t, int32(1), store.puts.Load())
}
