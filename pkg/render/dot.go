package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds the load position and requirements to node labels.
	// When false, only the component ID is shown.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT. Edges point from a component to its
// dependency, so dependencies are drawn below their dependents. Requested
// components are drawn bold.
func ToDOT(g *loadorder.Graph, order []string, opts Options) string {
	roots := g.Roots()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i, id := range order {
		attrs := []string{fmt.Sprintf("label=%q", label(id, i, g.Requirements(id), opts.Detailed))}
		if slices.Contains(roots, id) {
			attrs = append(attrs, "penwidth=2", "fillcolor=\"#e8f0fe\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range order {
		for _, dep := range g.Dependencies(id) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(id string, pos int, reqs []string, detailed bool) string {
	if !detailed {
		return id
	}
	parts := []string{id, fmt.Sprintf("#%d", pos+1)}
	parts = append(parts, reqs...)
	return strings.Join(parts, "\n")
}
