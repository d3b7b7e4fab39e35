package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/rohankatakam/codetrend/internal/models"
)

// ComputeFunc produces the metrics for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (models.BlobMetrics, error)

// PersistentStore is an optional second level consulted on memory misses.
type PersistentStore interface {
	Get(key string) (models.BlobMetrics, bool, error)
	Put(key string, m models.BlobMetrics) error
}

// Stats summarises cache traffic for a run.
type Stats struct {
	Requests       int64
	Hits           int64 // successful requests that did not call a ComputeFunc
	Misses         int64 // ComputeFunc invocations
	PersistentHits int64
	Entries        int
}

// BlobCache memoizes BlobMetrics by key for the lifetime of a run. Entries
// are never evicted. Concurrent requests for one key share one computation.
type BlobCache struct {
	mu      sync.RWMutex
	entries map[string]models.BlobMetrics
	group   singleflight.Group

	store  PersistentStore
	logger *logrus.Logger

	requests       atomic.Int64
	hits           atomic.Int64
	misses         atomic.Int64
	persistentHits atomic.Int64
}

// NewBlobCache creates an empty cache. store may be nil.
func NewBlobCache(store PersistentStore, logger *logrus.Logger) *BlobCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BlobCache{
		entries: make(map[string]models.BlobMetrics),
		store:   store,
		logger:  logger,
	}
}

// GetOrCompute returns the cached metrics for key, computing them with fn on
// the first request. Errors from fn are returned and nothing is stored. A
// request whose own context is still live never fails because another
// caller sharing the computation was cancelled; it retries instead.
func (c *BlobCache) GetOrCompute(ctx context.Context, key string, fn ComputeFunc) (models.BlobMetrics, error) {
	c.requests.Add(1)
	if m, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return m, nil
	}

	for {
		m, computed, err := c.await(ctx, key, fn)
		if err != nil && !computed && isContextErr(err) && ctx.Err() == nil {
			continue
		}
		if err != nil {
			return models.BlobMetrics{}, err
		}
		if !computed {
			c.hits.Add(1)
		}
		return m, nil
	}
}

// await joins or starts the flight for key. computed reports whether this
// request's fn produced the value.
func (c *BlobCache) await(ctx context.Context, key string, fn ComputeFunc) (models.BlobMetrics, bool, error) {
	computed := false
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A flight for this key may have completed between lookup and DoChan.
		if m, ok := c.lookup(key); ok {
			return m, nil
		}
		if m, ok := c.loadPersistent(key); ok {
			c.insert(key, m)
			return m, nil
		}

		c.misses.Add(1)
		computed = true
		m, err := fn(ctx)
		if err != nil {
			return models.BlobMetrics{}, err
		}
		c.insert(key, m)
		c.savePersistent(key, m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return models.BlobMetrics{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.BlobMetrics{}, computed, res.Err
		}
		return res.Val.(models.BlobMetrics), computed, nil
	}
}

// Stats returns a snapshot of the counters.
func (c *BlobCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Requests:       c.requests.Load(),
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		PersistentHits: c.persistentHits.Load(),
		Entries:        n,
	}
}

// Sub returns the traffic recorded since prev was taken. Entries is kept
// as the current size.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Requests:       s.Requests - prev.Requests,
		Hits:           s.Hits - prev.Hits,
		Misses:         s.Misses - prev.Misses,
		PersistentHits: s.PersistentHits - prev.PersistentHits,
		Entries:        s.Entries,
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *BlobCache) lookup(key string) (models.BlobMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

func (c *BlobCache) insert(key string, m models.BlobMetrics) {
	c.mu.Lock()
	c.entries[key] = m
	c.mu.Unlock()
}

func (c *BlobCache) loadPersistent(key string) (models.BlobMetrics, bool) {
	if c.store == nil {
		return models.BlobMetrics{}, false
	}
	m, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Persistent cache read failed")
		return models.BlobMetrics{}, false
	}
	if ok {
		c.persistentHits.Add(1)
	}
	return m, ok
}

func (c *BlobCache) savePersistent(key string, m models.BlobMetrics) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(key, m); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Persistent cache write failed")
	}
}
