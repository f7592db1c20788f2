package decision

import (
	"fmt"
	"sync"
	"time"
)

// cacheKey identifies a cacheable decision: same user, same decision
// type, same hour of day.
func cacheKey(userID, decisionType string, hour int) string {
	return fmt.Sprintf("%s|%s|%02d", userID, decisionType, hour)
}

// resultCache is a short-TTL cache so identical requests within the
// window return bit-identical recommendation ordering.
type resultCache struct {
	mu  sync.Mutex
	ttl time.Duration
	byK map[string]cachedResult
}

type cachedResult struct {
	result  Result
	expires time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl: ttl,
		byK: make(map[string]cachedResult),
	}
}

func (c *resultCache) get(key string, now time.Time) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.byK[key]
	if !ok {
		return Result{}, false
	}
	if now.After(entry.expires) {
		delete(c.byK, key)
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, r Result, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic sweep keeps the map from accumulating dead hours.
	if len(c.byK) > 1024 {
		for k, e := range c.byK {
			if now.After(e.expires) {
				delete(c.byK, k)
			}
		}
	}
	c.byK[key] = cachedResult{result: r, expires: now.Add(c.ttl)}
}
