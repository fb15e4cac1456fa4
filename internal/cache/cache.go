package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores extracted document text keyed by content hash, so re-uploading
// the same file skips extraction. It never holds API keys.
type Cache interface {
	// GetExtraction returns the cached text for key.
	// Returns nil if not found
	GetExtraction(ctx context.Context, key string) (*Extraction, error)

	// SetExtraction stores an extraction with TTL
	SetExtraction(ctx context.Context, key string, ext *Extraction, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Extraction is a cached extraction result.
type Extraction struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// ContentKey derives the cache key for an upload from its bytes.
func ContentKey(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
