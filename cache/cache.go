// Package cache provides a TTL-keyed in-memory cache with single-flight
// deduplication of concurrent fetches.
//
// Every read treats an expired entry as absent and evicts it lazily; a
// background sweep additionally scans the whole map on a fixed interval so
// that keys which are never read again do not accumulate. GetOrFetch
// guarantees that at most one producer runs per key at any instant:
// concurrent callers for the same missing key share the outcome of a single
// fetch, success or failure alike.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a value on cache miss. It receives a context detached
// from any individual waiter so that one caller giving up does not abort a
// fetch other callers may still be waiting on.
type FetchFunc func(ctx context.Context) (any, error)

// Entry is a cached value with its creation and expiry instants.
type Entry struct {
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a concurrency-safe TTL cache with single-flight loading.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	sf     singleflight.Group
	logger zerolog.Logger

	sweepInterval time.Duration
	stop          chan struct{}
	done          chan struct{}

	now func() time.Time
}

// New creates a Cache that sweeps expired entries every sweepInterval.
// The sweep loop is not running until Start is called.
func New(sweepInterval time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		entries:       make(map[string]Entry),
		logger:        logger,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Get returns the cached value for key if it has not expired.
// An expired entry is evicted and reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if current, ok := c.entries[key]; ok && !c.now().Before(current.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.Value, true
}

// Set stores value under key with expiry now + ttl, overwriting any prior entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch returns the cached value for key if fresh. Otherwise it joins
// the in-flight fetch for key, or starts fn if none is running, and caches a
// successful result with ttl. All concurrent callers for the same key observe
// the same outcome.
//
// Cancelling ctx makes this caller stop waiting and return ctx.Err(); the
// underlying fetch continues on a detached context and still populates the
// cache for later callers.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fn FetchFunc) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		value, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value, ttl)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug().Str("key", key).Msg("Joined in-flight fetch")
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start launches the background sweep loop. Calling Start on a cache that is
// already running is a no-op.
func (c *Cache) Start() {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done
	c.mu.Unlock()

	go c.sweepLoop(stop, done)
}

// Close stops the background sweep loop and waits for it to exit.
func (c *Cache) Close() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (c *Cache) sweepLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := c.sweep(); evicted > 0 {
				c.logger.Debug().Int("evicted", evicted).Msg("Swept expired cache entries")
			}
		case <-stop:
			return
		}
	}
}

// sweep evicts every entry whose expiry has passed and returns the count.
func (c *Cache) sweep() int {
	now := c.now()
	evicted := 0

	c.mu.Lock()
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	c.mu.Unlock()

	return evicted
}
