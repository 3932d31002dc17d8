package pesticide

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a resolved crop name stays cached.
const DefaultCacheTTL = 15 * time.Minute

// LookupCache memoizes normalization lookups with time-based eviction.
// It replaces an ambient process-wide memo map with an explicit object
// that is constructed by the caller and handed to the parser, so cache
// lifetime and scope are visible at the wiring site.
type LookupCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   string
	expires time.Time
}

// NewLookupCache creates a cache whose entries expire after ttl.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewLookupCache(ttl time.Duration) *LookupCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LookupCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Resolve returns the cached value for key, computing and storing it via
// fn on a miss or after expiry. Expired entries for other keys are swept
// opportunistically while the lock is held.
func (c *LookupCache) Resolve(key string, fn func(string) string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) {
		return e.value
	}

	c.sweepLocked(now)

	value := fn(key)
	c.entries[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}
	return value
}

// Len reports the number of live entries.
func (c *LookupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked removes expired entries. Caller must hold mu.
func (c *LookupCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}
