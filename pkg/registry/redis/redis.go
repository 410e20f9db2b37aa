// Package redis implements a component registry stored in Redis.
//
// Each descriptor is a JSON string under "component:<id>". [Registry.Put]
// seeds descriptors, typically from a manifest directory via
// `stackreqs registry push`.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/stackreqs/pkg/cache"
	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

// KeyPrefix prefixes every descriptor key.
const KeyPrefix = "component:"

// Registry reads descriptors from Redis.
type Registry struct {
	client  redis.UniversalClient
	owned   bool
	backoff cache.Backoff
}

// Open connects to url (redis://host:port/db) and verifies the connection.
func Open(ctx context.Context, url string) (*Registry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "connect to redis at %s", opts.Addr)
	}
	return &Registry{client: client, owned: true, backoff: cache.DefaultBackoff}, nil
}

// New wraps an existing client. Close leaves the client open.
func New(client redis.UniversalClient) *Registry {
	return &Registry{client: client, backoff: cache.DefaultBackoff}
}

// Name returns the backend name used in logs and metrics.
func (r *Registry) Name() string { return "redis" }

// Lookup fetches and decodes the descriptor for id. Transient failures are
// retried.
func (r *Registry) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	var data []byte
	err := cache.RetryWithBackoff(ctx, r.backoff, func() error {
		var err error
		data, err = r.client.Get(ctx, KeyPrefix+id).Bytes()
		return classify(ctx, err)
	})
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", component.ErrNotFound, id)
	}
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "redis get %s", id)
	}

	var d component.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeInvalidFormat, err, "decode descriptor %s", id)
	}
	if d.ID == "" {
		d.ID = id
	}
	return &d, nil
}

// Put stores d, replacing any existing descriptor with the same ID.
func (r *Registry) Put(ctx context.Context, d *component.Descriptor) error {
	if err := stackerrors.ValidateComponentID(d.ID); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, KeyPrefix+d.ID, data, 0).Err()
}

// Delete removes the descriptor for id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, KeyPrefix+id).Err()
}

// List scans for descriptor keys and returns their identifiers sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), KeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "redis scan")
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Close closes the client if Open created it.
func (r *Registry) Close() error {
	if r.owned {
		return r.client.Close()
	}
	return nil
}

// classify marks connection-level failures as retryable. redis.Nil and
// context errors are returned unchanged.
func classify(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return err
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		// Server replied with an error; retrying will not help.
		return err
	}
	return cache.Retryable(err)
}

var (
	_ component.Registry = (*Registry)(nil)
	_ component.Lister   = (*Registry)(nil)
)
