package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when CACHE_PROVIDER=none or Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetExtraction always returns nil (cache miss)
func (c *NoOpCache) GetExtraction(ctx context.Context, key string) (*Extraction, error) {
	return nil, nil
}

// SetExtraction does nothing and always succeeds
func (c *NoOpCache) SetExtraction(ctx context.Context, key string, ext *Extraction, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
