// Package component defines component descriptors and the registry interface
// that the load order resolver consumes.
//
// A [Descriptor] is the immutable, registry-provided record for one
// component: the ordered list of components it depends on and the ordered
// list of package requirements it needs at runtime. A [Registry] resolves an
// identifier to its descriptor or reports [ErrNotFound].
//
// Registries may load metadata eagerly ([Static]), from a manifest directory,
// or from a database; the resolver treats every lookup as a pure function of
// the identifier.
package component

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// ErrNotFound is returned by [Registry.Lookup] when no descriptor exists for
// the requested identifier.
var ErrNotFound = errors.New("component not found")

// KeySeparator separates the component identifier from an optional
// qualifier in a raw configuration key ("sensor kitchen").
const KeySeparator = " "

// Descriptor is the declared metadata of a single component.
// Descriptors are treated as immutable once returned by a registry.
type Descriptor struct {
	ID           string   `json:"id" toml:"id" bson:"_id"`
	Dependencies []string `json:"dependencies,omitempty" toml:"dependencies" bson:"dependencies,omitempty"`
	Requirements []string `json:"requirements,omitempty" toml:"requirements" bson:"requirements,omitempty"`
}

// Clone returns a deep copy of d, so callers may hand descriptors out
// without exposing registry-owned slices.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	return &Descriptor{
		ID:           d.ID,
		Dependencies: slices.Clone(d.Dependencies),
		Requirements: slices.Clone(d.Requirements),
	}
}

// Registry resolves component identifiers to descriptors.
type Registry interface {
	// Lookup returns the descriptor for id, or an error wrapping ErrNotFound
	// when the component is unknown. Other errors indicate backend failures.
	Lookup(ctx context.Context, id string) (*Descriptor, error)
}

// Lister is implemented by registries that can enumerate their components.
type Lister interface {
	// List returns all known component identifiers in sorted order.
	List(ctx context.Context) ([]string, error)
}

// IDFromKey returns the component identifier of a raw configuration key:
// the portion before the first separator. "sensor kitchen" yields "sensor".
func IDFromKey(key string) string {
	id, _, _ := strings.Cut(strings.TrimSpace(key), KeySeparator)
	return id
}

// RequestedFromKeys derives the requested component set from raw
// configuration keys. Keys whose identifier equals one of the excluded keys
// are skipped, empty identifiers are dropped, and the result is
// deduplicated and sorted.
func RequestedFromKeys(keys []string, exclude ...string) []string {
	seen := make(map[string]bool, len(keys))
	var ids []string
	for _, key := range keys {
		id := IDFromKey(key)
		if id == "" || seen[id] || slices.Contains(exclude, id) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
