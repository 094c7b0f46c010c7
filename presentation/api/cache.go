package api

import (
	"sync"
	"time"

	"vips_analyzer/domain/entities"
)

const maxCachedResults = 32

type cachedResult struct {
	result   *entities.AnalysisResult
	storedAt time.Time
}

// resultCache keeps recent analyses per URL so hover links index into the
// same node list the page was rendered from.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedResult
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{ttl: ttl, now: time.Now, entries: make(map[string]cachedResult)}
}

func (c *resultCache) get(url string) (*entities.AnalysisResult, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, url)
		return nil, false
	}
	return e.result, true
}

func (c *resultCache) put(url string, result *entities.AnalysisResult) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
	if _, ok := c.entries[url]; !ok && len(c.entries) >= maxCachedResults {
		var oldest string
		for k, e := range c.entries {
			if oldest == "" || e.storedAt.Before(c.entries[oldest].storedAt) {
				oldest = k
			}
		}
		delete(c.entries, oldest)
	}
	c.entries[url] = cachedResult{result: result, storedAt: now}
}
