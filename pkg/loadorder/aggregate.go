package loadorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/stackreqs/pkg/component"
)

// Aggregate concatenates the requirements of every component in order,
// preserving both the component order and each component's own requirement
// order. Requirements are neither deduplicated nor sorted: a package needed
// by two components is listed twice.
//
// reg may be the registry the graph was built from, or the *Graph itself to
// reuse the descriptors fetched during Build. The result is never nil.
func Aggregate(ctx context.Context, order []string, reg component.Registry) ([]string, error) {
	reqs := []string{}
	for _, id := range order {
		desc, err := reg.Lookup(ctx, id)
		if err != nil {
			if errors.Is(err, component.ErrNotFound) {
				return nil, &MissingComponentError{ID: id, Err: err}
			}
			return nil, fmt.Errorf("lookup %s: %w", id, err)
		}
		if desc == nil {
			return nil, &MissingComponentError{ID: id, Err: component.ErrNotFound}
		}
		reqs = append(reqs, desc.Requirements...)
	}
	return reqs, nil
}
