package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) twice = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})

	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x→a) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a→x) = %v, want ErrUnknownTargetNode", err)
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "zeta", To: "mid"})
	_ = g.AddEdge(Edge{From: "zeta", To: "alpha"})

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	if want := []string{"zeta", "alpha", "mid"}; !slices.Equal(ids, want) {
		t.Errorf("Nodes() = %v, want %v", ids, want)
	}
	if want := []string{"mid", "alpha"}; !slices.Equal(g.Children("zeta"), want) {
		t.Errorf("Children(zeta) = %v, want %v", g.Children("zeta"), want)
	}
	if want := []string{"alpha", "mid", "zeta"}; !slices.Equal(g.NodeIDs(), want) {
		t.Errorf("NodeIDs() = %v, want %v", g.NodeIDs(), want)
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddNode(Node{ID: "c"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})

	if got := len(g.Sources()); got != 2 {
		t.Errorf("len(Sources()) = %d, want 2", got)
	}
	if got := len(g.Sinks()); got != 2 {
		t.Errorf("len(Sinks()) = %d, want 2", got)
	}
	if !g.HasNode("c") || g.HasNode("d") {
		t.Error("HasNode reported wrong membership")
	}
	if g.InDegree("b") != 1 || g.OutDegree("a") != 1 {
		t.Errorf("degrees: in(b)=%d out(a)=%d", g.InDegree("b"), g.OutDegree("a"))
	}
}

func TestMetaNeverNil(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddEdge(Edge{From: "a", To: "a"})

	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("node Meta should be initialized")
	}
	if g.Edges()[0].Meta == nil {
		t.Error("edge Meta should be initialized")
	}
	if g.Meta() == nil {
		t.Error("graph Meta should be initialized")
	}
}
