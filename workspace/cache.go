package workspace

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

// DefaultCacheSize is the number of parse results kept by content hash.
const DefaultCacheSize = 32

func contentHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

type parsed struct {
	doc    *xbrl.Document
	err    error
	result *validator.Result
}

type cacheEntry struct {
	value   *parsed
	element *list.Element // stores the hash
}

// docCache keeps recent parse results keyed by content hash so that
// reopening or re-saving unchanged content does not parse again.
type docCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lru     *list.List // front = most recent
	maxSize int
	hits    int
	misses  int
}

func newDocCache(maxSize int) *docCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &docCache{
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

func (c *docCache) get(hash string) (*parsed, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.lru.MoveToFront(e.element)
	return e.value, true
}

func (c *docCache) put(hash string, v *parsed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[hash]; ok {
		e.value = v
		c.lru.MoveToFront(e.element)
		return
	}
	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(string))
	}
	c.entries[hash] = &cacheEntry{value: v, element: c.lru.PushFront(hash)}
}

func (c *docCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// CacheStats reports document cache usage.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

func (c *docCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}
