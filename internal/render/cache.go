package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/slatehq/slate/model"
)

// resultCache memoizes render results per layout version and payload
// content. Entries expire after the TTL; eviction of expired entries
// happens lazily on insert when the cache is full.
type resultCache struct {
	ttl        time.Duration
	maxEntries int

	mu    sync.RWMutex
	cache map[string]cachedResult
}

type cachedResult struct {
	result    model.RenderResult
	expiresAt time.Time
}

func newResultCache(ttl time.Duration, maxEntries int) *resultCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &resultCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		cache:      make(map[string]cachedResult),
	}
}

// cacheKey scopes a render to the layout identity, the tree-shaping request
// options, and a digest of the data payload, so a layout update, a mode
// change, or different rows never serve a stale tree.
func cacheKey(cfg *model.LayoutConfiguration, data any, opts model.RenderOptions) string {
	digest := "empty"
	if data != nil {
		if encoded, err := json.Marshal(data); err == nil {
			sum := sha256.Sum256(encoded)
			digest = hex.EncodeToString(sum[:8])
		} else {
			digest = "unhashable"
		}
	}
	return fmt.Sprintf("render:%s@%s:%s:%s:%t:%s",
		cfg.ID, cfg.Version, opts.RenderMode, opts.Virtualization,
		opts.EnableErrorBoundaries, digest)
}

func (c *resultCache) get(key string) (model.RenderResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, exists := c.cache[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return model.RenderResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result model.RenderResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache) >= c.maxEntries {
		c.evictExpired()
	}
	if len(c.cache) >= c.maxEntries {
		return
	}
	c.cache[key] = cachedResult{result: result, expiresAt: time.Now().Add(c.ttl)}
}

// evictExpired removes expired entries. Must be called with mu held.
func (c *resultCache) evictExpired() {
	now := time.Now()
	for k, v := range c.cache {
		if now.After(v.expiresAt) {
			delete(c.cache, k)
		}
	}
}

// invalidateLayout drops every cached render of one layout.
func (c *resultCache) invalidateLayout(layoutID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := "render:" + layoutID + "@"
	for k := range c.cache {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.cache, k)
		}
	}
}

// purge drops every cached render.
func (c *resultCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cachedResult)
}

// len returns the number of entries. For testing.
func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
