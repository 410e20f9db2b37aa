package component

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Static is an in-memory registry populated up front. It is safe for
// concurrent reads once constructed.
type Static struct {
	descriptors map[string]*Descriptor
}

// NewStatic creates a registry holding copies of the given descriptors.
// A later descriptor with the same ID replaces an earlier one.
func NewStatic(descriptors ...*Descriptor) *Static {
	s := &Static{descriptors: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d == nil {
			continue
		}
		s.descriptors[d.ID] = d.Clone()
	}
	return s
}

// Lookup returns a copy of the descriptor registered under id.
func (s *Static) Lookup(_ context.Context, id string) (*Descriptor, error) {
	d, ok := s.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.Clone(), nil
}

// List returns all registered identifiers in sorted order.
func (s *Static) List(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(s.descriptors)), nil
}

var (
	_ Registry = (*Static)(nil)
	_ Lister   = (*Static)(nil)
)
