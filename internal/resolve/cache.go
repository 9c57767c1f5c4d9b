package resolve

import (
	"sync"
	"sync/atomic"
)

// entry holds one memoized resolution. once guarantees the computation runs
// a single time; later and concurrent readers observe its result.
type entry[V any] struct {
	once  sync.Once
	val   V
	found bool
	err   error
}

// cache is an append-only memo table. The map lock only guards entry
// creation, so computations may recurse into other keys or other caches.
type cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

func (c *cache[K, V]) get(key K, compute func() (V, bool, error)) (V, bool, error) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[K]*entry[V], 64)
	}
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	ran := false
	e.once.Do(func() {
		ran = true
		e.val, e.found, e.err = compute()
	})
	if ran {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	return e.val, e.found, e.err
}

func (c *cache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *cache[K, V]) stats() CacheStats {
	return CacheStats{
		Entries: c.len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// CacheStats counts lookups against one cache. Misses equals the number of
// computations performed.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats is a snapshot of every cache owned by a Context.
type Stats struct {
	Assemblies   CacheStats
	TypeDefs     CacheStats
	Types        CacheStats
	Constructors CacheStats
	Methods      CacheStats
	Fields       CacheStats
}
