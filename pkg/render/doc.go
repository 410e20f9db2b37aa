// Package render exports resolved dependency graphs.
//
// Three formats are supported:
//
//   - DOT via [ToDOT], for Graphviz tooling
//   - SVG via [RenderSVG], rendered in-process with go-graphviz
//   - JSON via [ToJSON], a flat node/edge listing with load positions
//
// Every format takes the *loadorder.Graph and the load order computed from
// it. Nodes are emitted in load order, so output is stable across runs.
//
//	res, _ := runner.Run(ctx, requested)
//	dot := render.ToDOT(res.Graph, res.Order, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
package render
