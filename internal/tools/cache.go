package tools

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultCacheTTL        = 15 * time.Minute
	defaultCacheMaxEntries = 100
)

type cachedResult struct {
	formatted string
	expiresAt time.Time
}

// searchCache is a small TTL cache for formatted search results. Entries
// are keyed by the normalized query plus the requested result count, since
// the formatted block changes with either. Repeat questions within the TTL
// skip the network.
type searchCache struct {
	mu      sync.Mutex
	results map[string]cachedResult
	maxSize int
	ttl     time.Duration
}

func newSearchCache(maxSize int, ttl time.Duration) *searchCache {
	if maxSize <= 0 {
		maxSize = defaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &searchCache{
		results: make(map[string]cachedResult),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *searchCache) get(query string, count int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, count)
	r, ok := c.results[key]
	if !ok {
		return "", false
	}
	if time.Now().After(r.expiresAt) {
		delete(c.results, key)
		return "", false
	}
	return r.formatted, true
}

func (c *searchCache) set(query string, count int, formatted string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.results) >= c.maxSize {
		c.evictSoonestExpiring()
	}
	c.results[cacheKey(query, count)] = cachedResult{
		formatted: formatted,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// evictSoonestExpiring drops the entry closest to its deadline. With a
// uniform TTL that is also the oldest insert. Caller holds the lock.
func (c *searchCache) evictSoonestExpiring() {
	var victim string
	var deadline time.Time
	for k, r := range c.results {
		if victim == "" || r.expiresAt.Before(deadline) {
			victim = k
			deadline = r.expiresAt
		}
	}
	if victim != "" {
		delete(c.results, victim)
	}
}

// cacheKey lowercases the query and collapses whitespace runs, so REPL
// retypes of the same question ("steel  price" vs "Steel price") share an
// entry. The count is part of the key because it shapes the formatted text.
func cacheKey(query string, count int) string {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return fmt.Sprintf("%d|%s", count, q)
}
