// Package cache provides byte-level caches for component descriptors.
//
// Registries backed by a directory, Redis or MongoDB can be wrapped with a
// cache so repeated runs skip the backend. Three implementations exist:
//
//   - [FileCache] stores JSON entries under a directory (CLI default)
//   - [RedisCache] stores entries in Redis (shared by API servers)
//   - [NullCache] never stores anything (--no-cache)
//
// Keys are produced by a [Keyer] so that the same component served by two
// different backends never collides.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with optional per-entry expiration.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero ttl on Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// DescriptorKey returns the key for one component descriptor served by
	// the registry identified by source.
	DescriptorKey(source, id string) string

	// ListKey returns the key for the component listing of source.
	ListKey(source string) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DescriptorKey hashes source so keys stay short for long URLs.
func (DefaultKeyer) DescriptorKey(source, id string) string {
	return hashKey("descriptor", source) + ":" + id
}

// ListKey returns the listing key for source.
func (DefaultKeyer) ListKey(source string) string {
	return hashKey("list", source)
}
