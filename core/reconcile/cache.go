package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LookupCache memoizes a keyed registry lookup for the length of a run.
// Concurrent misses for the same key share one load. Errors are not cached.
type LookupCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]cacheEntry[V]
	ttl     time.Duration
	sf      singleflight.Group
	load    func(ctx context.Context, key K) (V, error)
}

type cacheEntry[V any] struct {
	value V
	built time.Time
}

// NewLookupCache wraps load. A zero ttl keeps entries until Invalidate.
func NewLookupCache[K comparable, V any](ttl time.Duration, load func(ctx context.Context, key K) (V, error)) *LookupCache[K, V] {
	return &LookupCache[K, V]{
		entries: make(map[K]cacheEntry[V]),
		ttl:     ttl,
		load:    load,
	}
}

func (c *LookupCache[K, V]) fresh(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || (c.ttl > 0 && time.Since(e.built) > c.ttl) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Get returns the cached value for key or loads it.
func (c *LookupCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := c.fresh(key); ok {
			return v, nil
		}
		v, err := c.load(ctx, key)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry[V]{value: v, built: time.Now()}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Invalidate drops key so the next Get reloads it.
func (c *LookupCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *LookupCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
