// Package cache provides the session-scoped domain cache: each unique
// company domain is enriched at most once per session.
package cache

import (
	"sync"

	"github.com/sells-group/enrich-cli/internal/model"
)

// DomainCache stores reconciled enrichments keyed by normalized domain.
// Safe for concurrent use by worker slots.
type DomainCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]model.EnrichmentResult
}

// New creates an empty domain cache.
func New() *DomainCache {
	return &DomainCache{entries: make(map[string]map[string]model.EnrichmentResult)}
}

// Get returns the cached enrichments for a domain. Fields whose value
// resolved to nil are filtered out of the copy.
func (c *DomainCache) Get(domain string) (map[string]model.EnrichmentResult, bool) {
	key := model.NormalizeDomain(domain)
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	out := make(map[string]model.EnrichmentResult, len(entry))
	for field, res := range entry {
		if res.Value == nil {
			continue
		}
		out[field] = res
	}
	return out, true
}

// Put stores enrichments for a domain. First writer wins so concurrent
// rows for the same domain agree on one answer.
func (c *DomainCache) Put(domain string, enrichments map[string]model.EnrichmentResult) {
	key := model.NormalizeDomain(domain)
	if key == "" {
		return
	}

	stored := make(map[string]model.EnrichmentResult, len(enrichments))
	for field, res := range enrichments {
		stored[field] = res
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = stored
}

// Len reports the number of cached domains.
func (c *DomainCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
