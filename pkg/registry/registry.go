// Package registry opens component registries by source string and layers
// instrumentation and caching over them.
//
// A source is one of:
//
//	/path/to/components        manifest directory (also file:///path)
//	redis://host:6379/0        Redis, descriptors under component:<id>
//	mongodb://host:27017/db    MongoDB, "components" collection
//
// Every backend returned by [Open] reports lookups to
// [observability.Registry] and, when a cache is supplied, serves repeated
// lookups from it.
package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackreqs/pkg/cache"
	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/observability"
	"github.com/matzehuels/stackreqs/pkg/registry/manifest"
	"github.com/matzehuels/stackreqs/pkg/registry/mongo"
	"github.com/matzehuels/stackreqs/pkg/registry/redis"
)

// Backend is a registry that can enumerate its components and must be
// closed after use.
type Backend interface {
	component.Registry
	component.Lister
	Name() string
	Close() error
}

// Writer is implemented by backends that accept new descriptors.
type Writer interface {
	Put(ctx context.Context, d *component.Descriptor) error
	Delete(ctx context.Context, id string) error
}

// Options configures Open.
type Options struct {
	// Cache stores descriptors between runs. Nil disables caching.
	Cache cache.Cache
	// Keyer builds cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer
	// TTL bounds how long cached descriptors are served. Zero keeps them
	// until the cache is cleared.
	TTL time.Duration
	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// Open returns the backend for source wrapped with instrumentation and, if
// opts.Cache is set, caching.
func Open(ctx context.Context, source string, opts Options) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	b, err := openBackend(ctx, source)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("opened registry", "backend", b.Name(), "source", source)

	var out Backend = &instrumented{Backend: b, logger: opts.Logger}
	if opts.Cache != nil {
		out = NewCached(out, source, opts.Cache, opts.Keyer, opts.TTL)
	}
	return out, nil
}

func openBackend(ctx context.Context, source string) (Backend, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, stackerrors.New(stackerrors.ErrCodeInvalidConfig, "no component registry configured (use --registry or STACKREQS_REGISTRY)")
	case strings.HasPrefix(source, "redis://"), strings.HasPrefix(source, "rediss://"):
		return redis.Open(ctx, source)
	case strings.HasPrefix(source, "mongodb://"), strings.HasPrefix(source, "mongodb+srv://"):
		return mongo.Open(ctx, source)
	case strings.HasPrefix(source, "file://"):
		return manifest.New(strings.TrimPrefix(source, "file://"))
	case strings.Contains(source, "://"):
		scheme, _, _ := strings.Cut(source, "://")
		return nil, stackerrors.New(stackerrors.ErrCodeUnsupported, "unsupported registry scheme %q", scheme)
	default:
		return manifest.New(source)
	}
}

// AsWriter returns the first backend in the wrapper chain that accepts
// writes.
func AsWriter(b Backend) (Writer, bool) {
	for b != nil {
		if w, ok := b.(Writer); ok {
			return w, true
		}
		u, ok := b.(interface{ Unwrap() Backend })
		if !ok {
			break
		}
		b = u.Unwrap()
	}
	return nil, false
}

// instrumented times lookups and reports them to the registry hooks.
type instrumented struct {
	Backend
	logger *log.Logger
}

func (i *instrumented) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	start := time.Now()
	d, err := i.Backend.Lookup(ctx, id)
	elapsed := time.Since(start)
	observability.Registry().OnLookup(ctx, i.Name(), id, elapsed, err)
	if err != nil && !errors.Is(err, component.ErrNotFound) {
		i.logger.Debug("registry lookup failed", "backend", i.Name(), "id", id, "error", err)
	}
	return d, err
}

func (i *instrumented) Unwrap() Backend { return i.Backend }
