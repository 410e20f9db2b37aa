// Package dag provides the directed graph that stackreqs resolves components on.
//
// # Overview
//
// Each node is a component and each edge points from a component to one of
// its dependencies. The graph remembers insertion order for both nodes and
// edges, so walking [DAG.Nodes] or [DAG.Children] always yields the same
// sequence for the same input. That property is what makes load orders
// reproducible across runs.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Nodes must have unique IDs, and edges can only connect
// existing nodes:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "light"})
//	g.AddNode(dag.Node{ID: "zwave"})
//	g.AddEdge(dag.Edge{From: "light", To: "zwave"})
//
// Query the graph structure with [DAG.Children], [DAG.Parents],
// [DAG.Sources] and [DAG.Sinks].
//
// # Cycles
//
// The graph does not reject cycles on insertion. Cycle detection happens in
// the load order resolver, which reports the offending path.
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata]
// maps. Metadata maps are never nil after creation.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Each resolution builds its
// own graph, so no synchronization is needed in the normal flow.
package dag
