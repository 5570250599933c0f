// Package cache provides an in-memory LRU decorator for the correction engine.
package cache

import (
	"math"
	"sync"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// CachedCorrector wraps a Corrector with an in-memory LRU cache. The engine is
// a pure function of its input, so a hit returns bit-identical output.
type CachedCorrector struct {
	inner   domain.Corrector
	cache   *lruCache
	lookups *prometheus.CounterVec
}

// NewCachedCorrector creates a cache decorator around a corrector. lookups
// may be nil; when set it is incremented with result "hit" or "miss".
func NewCachedCorrector(inner domain.Corrector, maxEntries int, lookups *prometheus.CounterVec) *CachedCorrector {
	return &CachedCorrector{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		lookups: lookups,
	}
}

func (c *CachedCorrector) Compute(in correction.Input) (correction.Output, error) {
	key := keyFor(in)
	if out, ok := c.cache.get(key); ok {
		c.observe("hit")
		return out, nil
	}
	c.observe("miss")

	out, err := c.inner.Compute(in)
	if err != nil {
		// Errors are not cached; invalid input is cheap to reject again.
		return out, err
	}
	c.cache.put(key, out)
	return out, nil
}

// Len reports the number of cached results.
func (c *CachedCorrector) Len() int {
	return c.cache.len()
}

func (c *CachedCorrector) observe(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

// inputKey identifies an input by the exact bit patterns of its fields, so
// 0.92 and 0.9200000000000001 are distinct entries.
type inputKey struct {
	tempBits    uint64
	densityBits uint64
}

func keyFor(in correction.Input) inputKey {
	return inputKey{
		tempBits:    math.Float64bits(in.FluidTemperatureC),
		densityBits: math.Float64bits(in.ObservedDensityGcc),
	}
}

// lruCache is a simple thread-safe LRU cache for correction outputs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[inputKey]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   inputKey
	value correction.Output
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[inputKey]*entry),
	}
}

func (c *lruCache) get(key inputKey) (correction.Output, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return correction.Output{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key inputKey, value correction.Output) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	for len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
