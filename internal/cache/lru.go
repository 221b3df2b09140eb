package cache

import (
	"container/list"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrInvalidCapacity is returned for a non-positive capacity.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// LRU is a count-bounded least-recently-used cache, safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int
	items     map[K]*list.Element
	evictList *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &LRU[K, V]{
		capacity:  capacity,
		items:     make(map[K]*list.Element, capacity),
		evictList: list.New(),
	}, nil
}

// Get returns a cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches a value, evicting the least recently used entry if the cache is
// full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	for c.evictList.Len() >= c.capacity {
		c.removeElement(c.evictList.Back())
		c.evictions.Add(1)
	}

	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
}

// Invalidate removes entries matching the predicate and returns how many
// were removed.
func (c *LRU[K, V]) Invalidate(predicate func(key K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Collect first; removeElement mutates the list.
	var toRemove []*list.Element
	for key, element := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, element)
		}
	}
	for _, e := range toRemove {
		c.removeElement(e)
	}
	return len(toRemove)
}

// Purge removes every entry and resets the counters.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element, c.capacity)
	c.evictList.Init()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	delete(c.items, e.Value.(*entry[K, V]).key)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Cap returns the configured capacity.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}
