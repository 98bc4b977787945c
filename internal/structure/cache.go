package structure

import (
	"net/url"
	"strings"
	"sync"
)

// Cache is a process-wide domain -> SelectorConfig store with no TTL.
// Entries are evicted only explicitly or when validation fails; stale
// selectors persist until a page's structure changes enough to fail
// extraction. The cache is injectable so tests can assert eviction
// behavior on an isolated instance.
//
// Concurrent scrapes of the same domain may race on population; the last
// writer wins and the loser only costs one redundant AI call. The mutex
// guards map memory safety, not ordering.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]SelectorConfig
}

// NewCache creates an empty selector cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]SelectorConfig)}
}

// Get returns the cached config for a domain.
func (c *Cache) Get(domain string) (SelectorConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[domain]
	return cfg, ok
}

// Set stores a config for a domain.
func (c *Cache) Set(domain string, cfg SelectorConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[domain] = cfg
}

// Delete evicts a domain's config.
func (c *Cache) Delete(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, domain)
}

// Clear evicts every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]SelectorConfig)
}

// Len returns the number of cached domains.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NormalizeDomain reduces a URL to its cache key: lowercase host with the
// scheme, port, and a leading "www." stripped. Unparseable input falls back
// to a best-effort string strip so the cache still keys consistently.
func NormalizeDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err == nil && parsed.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	}

	host := rawURL
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.IndexAny(host, "/:?#"); idx >= 0 {
		host = host[:idx]
	}
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
