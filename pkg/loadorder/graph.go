package loadorder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/dag"
)

// MetaRequirements is the node metadata key holding a component's
// requirement list.
const MetaRequirements = "requirements"

// Graph is the dependency graph over the transitive closure of a requested
// component set. It also carries the descriptors fetched while building it,
// so the aggregation step does not have to hit the registry again.
//
// A Graph belongs to a single resolution run and is not safe for concurrent
// modification.
type Graph struct {
	dag         *dag.DAG
	roots       []string
	descriptors map[string]*component.Descriptor
}

// Build walks the dependency closure of requested, fetching each descriptor
// from reg exactly once and recording an edge from every component to each
// of its dependencies in declared order.
//
// Duplicate identifiers in requested are collapsed. Build fails fast with a
// *MissingComponentError as soon as any identifier cannot be resolved; other
// registry failures are returned wrapped.
func Build(ctx context.Context, requested []string, reg component.Registry) (*Graph, error) {
	roots := slices.Clone(requested)
	slices.Sort(roots)
	roots = slices.Compact(roots)

	g := &Graph{
		dag:         dag.New(nil),
		roots:       roots,
		descriptors: make(map[string]*component.Descriptor),
	}

	type pending struct {
		id       string
		referrer string
	}
	queue := make([]pending, 0, len(roots))
	for _, id := range roots {
		if err := g.addNode(id, ""); err != nil {
			return nil, err
		}
		queue = append(queue, pending{id: id})
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		desc, err := reg.Lookup(ctx, p.id)
		if err != nil {
			if errors.Is(err, component.ErrNotFound) {
				return nil, &MissingComponentError{ID: p.id, Referrer: p.referrer, Err: err}
			}
			return nil, fmt.Errorf("lookup %s: %w", p.id, err)
		}
		if desc == nil {
			return nil, &MissingComponentError{ID: p.id, Referrer: p.referrer, Err: component.ErrNotFound}
		}
		g.descriptors[p.id] = desc

		node, _ := g.dag.Node(p.id)
		node.Meta[MetaRequirements] = desc.Requirements

		seen := make(map[string]bool, len(desc.Dependencies))
		for _, dep := range desc.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true

			if !g.dag.HasNode(dep) {
				if err := g.addNode(dep, p.id); err != nil {
					return nil, err
				}
				queue = append(queue, pending{id: dep, referrer: p.id})
			}
			if err := g.dag.AddEdge(dag.Edge{From: p.id, To: dep}); err != nil {
				return nil, fmt.Errorf("add edge %s -> %s: %w", p.id, dep, err)
			}
		}
	}

	return g, nil
}

// addNode adds id to the graph. An identifier the graph cannot hold, such as
// the empty string, can never be resolved and is reported as missing.
func (g *Graph) addNode(id, referrer string) error {
	err := g.dag.AddNode(dag.Node{ID: id})
	if errors.Is(err, dag.ErrInvalidNodeID) {
		return &MissingComponentError{ID: id, Referrer: referrer, Err: component.ErrNotFound}
	}
	return err
}

// DAG returns the underlying graph. Edges point from a component to its
// dependencies.
func (g *Graph) DAG() *dag.DAG { return g.dag }

// Roots returns the requested identifiers, deduplicated and sorted.
func (g *Graph) Roots() []string { return slices.Clone(g.roots) }

// Len returns the number of components in the closure.
func (g *Graph) Len() int { return g.dag.NodeCount() }

// Dependencies returns the declared dependencies of id in declared order.
func (g *Graph) Dependencies(id string) []string { return g.dag.Children(id) }

// Requirements returns the declared requirements of id, or nil if id is
// not part of the graph.
func (g *Graph) Requirements(id string) []string {
	n, ok := g.dag.Node(id)
	if !ok {
		return nil
	}
	reqs, _ := n.Meta[MetaRequirements].([]string)
	return reqs
}

// Lookup serves descriptors fetched during Build, which lets a Graph stand
// in for the registry when aggregating requirements.
func (g *Graph) Lookup(_ context.Context, id string) (*component.Descriptor, error) {
	d, ok := g.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", component.ErrNotFound, id)
	}
	return d, nil
}

var _ component.Registry = (*Graph)(nil)
