package resolver

import "sync"

// Cache stores resolved form configurations keyed by form type. Entries live
// until explicitly invalidated; there is no TTL because every metadata change
// invalidates its form type synchronously.
type Cache interface {
	Get(formType string) (*Config, bool)
	Set(formType string, cfg *Config)
	Invalidate(formType string)
}

// MemoryCache is the in-process cache backend.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Config
}

// NewMemoryCache constructs an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Config)}
}

// Get returns the cached configuration for formType.
func (c *MemoryCache) Get(formType string) (*Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[formType]
	return cfg, ok
}

// Set stores the configuration for formType.
func (c *MemoryCache) Set(formType string, cfg *Config) {
	c.mu.Lock()
	c.entries[formType] = cfg
	c.mu.Unlock()
}

// Invalidate removes the entry for formType, leaving other entries intact.
func (c *MemoryCache) Invalidate(formType string) {
	c.mu.Lock()
	delete(c.entries, formType)
	c.mu.Unlock()
}
