package cache

import (
	"sync"

	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Entry is a loaded series together with the indicators computed over it.
type Entry struct {
	Bars     []types.Bar
	Registry indicator.IndicatorRegistry
}

type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Keys() int
	Reset()
}

// CacheV1 keeps series by data path so repeated runs over the same file
// share one read and one set of indicator results.
type CacheV1 struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCacheV1() Cache {
	return &CacheV1{
		entries: make(map[string]Entry),
	}
}

// Get implements cache.Cache.
func (c *CacheV1) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]

	return entry, ok
}

// Set implements cache.Cache. A nil registry is replaced by one over the bars.
func (c *CacheV1) Set(key string, entry Entry) {
	if entry.Registry == nil {
		entry.Registry = indicator.NewIndicatorRegistry(entry.Bars)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
}

// Keys implements cache.Cache.
func (c *CacheV1) Keys() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Reset implements cache.Cache.
func (c *CacheV1) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}
