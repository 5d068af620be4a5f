package metadata

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries bounds a cache constructed with a non-positive size.
const DefaultCacheEntries = 4096

// Cache is a bounded least-recently-used cache of fetch results keyed by
// provider id. Misses and provider errors are cached alongside values so a
// failing id is asked once per run; concurrent lookups of the same key share
// one fetch.
type Cache[V any] struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
	group   singleflight.Group
}

type cacheEntry[V any] struct {
	key   string
	value V
	err   error
}

// NewCache returns a cache holding at most maxEntries results.
func NewCache[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache[V]{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the cached result for key.
func (c *Cache[V]) Get(key string) (V, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, nil, false
	}
	c.order.MoveToFront(el)
	entry := el.Value.(*cacheEntry[V])
	return entry.value, entry.err, true
}

// Do returns the cached result for key, calling fetch on a miss. Context
// cancellation is returned but never cached.
func (c *Cache[V]) Do(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if value, err, ok := c.Get(key); ok {
		return value, err
	}
	result, err, _ := c.group.Do(key, func() (any, error) {
		if value, err, ok := c.Get(key); ok {
			return value, err
		}
		value, err := fetch(ctx)
		if err == nil || !isContextError(err) {
			c.put(key, value, err)
		}
		return value, err
	})
	value, _ := result.(V)
	return value, err
}

// Len reports the number of cached results.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) put(key string, value V, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry[V])
		entry.value, entry.err = value, err
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry[V]{key: key, value: value, err: err})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry[V]).key)
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
