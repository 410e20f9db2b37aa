package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/stackreqs/pkg/cache"
	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/observability"
)

// Cached serves descriptors and listings from a cache.Cache, falling back to
// the wrapped backend on a miss. Not-found results are never cached, and
// cache failures degrade to a direct lookup.
type Cached struct {
	inner  Backend
	source string
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
}

// NewCached wraps inner. source scopes the cache keys so two registries
// sharing a cache never see each other's entries.
func NewCached(inner Backend, source string, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{inner: inner, source: source, cache: c, keyer: keyer, ttl: ttl}
}

// Name returns the wrapped backend's name.
func (c *Cached) Name() string { return c.inner.Name() }

// Lookup returns the cached descriptor for id or fetches and caches it.
func (c *Cached) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	hooks := observability.Cache()
	key := c.keyer.DescriptorKey(c.source, id)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var d component.Descriptor
		if json.Unmarshal(data, &d) == nil {
			hooks.OnCacheHit(ctx, "descriptor")
			return &d, nil
		}
	}
	hooks.OnCacheMiss(ctx, "descriptor")

	d, err := c.inner.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(d); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, "descriptor", len(data))
		}
	}
	return d, nil
}

// List returns the cached listing or fetches and caches it.
func (c *Cached) List(ctx context.Context) ([]string, error) {
	hooks := observability.Cache()
	key := c.keyer.ListKey(c.source)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var ids []string
		if json.Unmarshal(data, &ids) == nil {
			hooks.OnCacheHit(ctx, "list")
			return ids, nil
		}
	}
	hooks.OnCacheMiss(ctx, "list")

	ids, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ids); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, "list", len(data))
		}
	}
	return ids, nil
}

// Invalidate drops the cached descriptor for id and the cached listing.
func (c *Cached) Invalidate(ctx context.Context, id string) error {
	if err := c.cache.Delete(ctx, c.keyer.DescriptorKey(c.source, id)); err != nil {
		return err
	}
	return c.cache.Delete(ctx, c.keyer.ListKey(c.source))
}

// Close closes the wrapped backend. The cache is owned by the caller.
func (c *Cached) Close() error { return c.inner.Close() }

// Unwrap returns the wrapped backend.
func (c *Cached) Unwrap() Backend { return c.inner }

var _ Backend = (*Cached)(nil)
