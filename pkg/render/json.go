package render

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// Graph is the JSON shape produced by ToJSON.
type Graph struct {
	Requested []string `json:"requested"`
	Nodes     []Node   `json:"nodes"`
	Edges     []Edge   `json:"edges"`
}

// Node is one component with its position in the load order.
type Node struct {
	ID           string   `json:"id"`
	Position     int      `json:"position"`
	Requested    bool     `json:"requested,omitempty"`
	Requirements []string `json:"requirements"`
}

// Edge points from a component to one of its dependencies.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Export builds the JSON shape for g in load order.
func Export(g *loadorder.Graph, order []string) Graph {
	roots := g.Roots()
	out := Graph{
		Requested: roots,
		Nodes:     make([]Node, 0, len(order)),
		Edges:     []Edge{},
	}
	for i, id := range order {
		reqs := g.Requirements(id)
		if reqs == nil {
			reqs = []string{}
		}
		out.Nodes = append(out.Nodes, Node{
			ID:           id,
			Position:     i + 1,
			Requested:    slices.Contains(roots, id),
			Requirements: reqs,
		})
		for _, dep := range g.Dependencies(id) {
			out.Edges = append(out.Edges, Edge{From: id, To: dep})
		}
	}
	return out
}

// ToJSON returns the indented JSON encoding of Export(g, order).
func ToJSON(g *loadorder.Graph, order []string) ([]byte, error) {
	return json.MarshalIndent(Export(g, order), "", "  ")
}
