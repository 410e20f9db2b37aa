package dag_test

import (
	"fmt"

	"github.com/matzehuels/stackreqs/pkg/dag"
)

func ExampleDAG_basic() {
	// light → zwave → usb
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "light"})
	_ = g.AddNode(dag.Node{ID: "zwave"})
	_ = g.AddNode(dag.Node{ID: "usb"})
	_ = g.AddEdge(dag.Edge{From: "light", To: "zwave"})
	_ = g.AddEdge(dag.Edge{From: "zwave", To: "usb"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// Nodes: 3
	// Edges: 2
}

func ExampleDAG_traversal() {
	// frontend depends on http and api, declared in that order
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "frontend"})
	_ = g.AddNode(dag.Node{ID: "http"})
	_ = g.AddNode(dag.Node{ID: "api"})
	_ = g.AddEdge(dag.Edge{From: "frontend", To: "http"})
	_ = g.AddEdge(dag.Edge{From: "frontend", To: "api"})

	fmt.Println("Children of frontend:", g.Children("frontend"))
	fmt.Println("Parents of api:", g.Parents("api"))
	fmt.Println("Out-degree of frontend:", g.OutDegree("frontend"))
	// Output:
	// Children of frontend: [http api]
	// Parents of api: [frontend]
	// Out-degree of frontend: 2
}

func ExampleDAG_Sources() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "light"})
	_ = g.AddNode(dag.Node{ID: "switch"})
	_ = g.AddNode(dag.Node{ID: "zwave"})
	_ = g.AddEdge(dag.Edge{From: "light", To: "zwave"})
	_ = g.AddEdge(dag.Edge{From: "switch", To: "zwave"})

	for _, n := range g.Sources() {
		fmt.Println("Source:", n.ID)
	}
	// Output:
	// Source: light
	// Source: switch
}

func ExampleDAG_metadata() {
	g := dag.New(dag.Metadata{"config": "configuration.yaml"})
	_ = g.AddNode(dag.Node{
		ID: "mqtt",
		Meta: dag.Metadata{
			"requirements": []string{"paho-mqtt==1.2"},
		},
	})

	node, _ := g.Node("mqtt")
	fmt.Println("Component:", node.ID)
	fmt.Println("Requirements:", node.Meta["requirements"])
	// Output:
	// Component: mqtt
	// Requirements: [paho-mqtt==1.2]
}
