package loadorder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

func desc(id string, deps []string, reqs ...string) *component.Descriptor {
	return &component.Descriptor{ID: id, Dependencies: deps, Requirements: reqs}
}

// countingRegistry counts lookups per identifier.
type countingRegistry struct {
	component.Registry
	calls map[string]int
}

func (c *countingRegistry) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	c.calls[id]++
	return c.Registry.Lookup(ctx, id)
}

// failingRegistry returns a backend error for one identifier.
type failingRegistry struct {
	component.Registry
	failOn string
	err    error
}

func (f *failingRegistry) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	if id == f.failOn {
		return nil, f.err
	}
	return f.Registry.Lookup(ctx, id)
}

func TestEndToEndSimple(t *testing.T) {
	reg := component.NewStatic(
		desc("A", []string{"B"}, "req-a"),
		desc("B", nil, "req-b"),
	)

	res, err := NewRunner(reg, nil).Run(context.Background(), []string{"A"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := []string{"B", "A"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	if want := []string{"req-b", "req-a"}; !slices.Equal(res.Requirements, want) {
		t.Errorf("Requirements = %v, want %v", res.Requirements, want)
	}
	if res.Stats.Components != 2 || res.Stats.Edges != 1 {
		t.Errorf("Stats = %+v, want 2 components and 1 edge", res.Stats)
	}
}

func TestEndToEndCycle(t *testing.T) {
	reg := component.NewStatic(
		desc("A", []string{"B"}),
		desc("B", []string{"A"}),
	)

	res, err := NewRunner(reg, nil).Run(context.Background(), []string{"A", "B"})
	if res != nil {
		t.Errorf("Run() returned a result alongside a cycle: %+v", res)
	}
	var cycErr *CyclicDependencyError
	if !errors.As(err, &cycErr) {
		t.Fatalf("Run() error = %v, want *CyclicDependencyError", err)
	}
	if want := []string{"A", "B", "A"}; !slices.Equal(cycErr.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycErr.Cycle, want)
	}
	if !stackerrors.Is(err, stackerrors.ErrCodeCyclicDependency) {
		t.Errorf("error code = %q, want %q", stackerrors.GetCode(err), stackerrors.ErrCodeCyclicDependency)
	}
}

func TestEndToEndMissing(t *testing.T) {
	reg := component.NewStatic(desc("A", []string{"Z"}))

	_, err := Requirements(context.Background(), []string{"A"}, reg)
	var missErr *MissingComponentError
	if !errors.As(err, &missErr) {
		t.Fatalf("Requirements() error = %v, want *MissingComponentError", err)
	}
	if missErr.ID != "Z" || missErr.Referrer != "A" {
		t.Errorf("MissingComponentError = {ID:%q Referrer:%q}, want {Z A}", missErr.ID, missErr.Referrer)
	}
	if !errors.Is(err, component.ErrNotFound) {
		t.Error("MissingComponentError should unwrap to component.ErrNotFound")
	}
	if !stackerrors.Is(err, stackerrors.ErrCodeMissingComponent) {
		t.Errorf("error code = %q, want %q", stackerrors.GetCode(err), stackerrors.ErrCodeMissingComponent)
	}
}

func TestMissingRequestedComponent(t *testing.T) {
	reg := component.NewStatic(desc("A", nil))

	_, err := LoadOrder(context.Background(), []string{"A", "nope"}, reg)
	var missErr *MissingComponentError
	if !errors.As(err, &missErr) {
		t.Fatalf("LoadOrder() error = %v, want *MissingComponentError", err)
	}
	if missErr.ID != "nope" || missErr.Referrer != "" {
		t.Errorf("MissingComponentError = %+v, want ID nope without referrer", missErr)
	}
	if got := missErr.Error(); got != `component "nope" not found` {
		t.Errorf("Error() = %q", got)
	}
}

func TestBackendErrorIsNotMissing(t *testing.T) {
	backendErr := errors.New("connection refused")
	reg := &failingRegistry{
		Registry: component.NewStatic(desc("A", []string{"B"}), desc("B", nil)),
		failOn:   "B",
		err:      backendErr,
	}

	_, err := Build(context.Background(), []string{"A"}, reg)
	if !errors.Is(err, backendErr) {
		t.Fatalf("Build() error = %v, want wrapped backend error", err)
	}
	var missErr *MissingComponentError
	if errors.As(err, &missErr) {
		t.Error("backend failure should not be reported as a missing component")
	}
}

func TestEmptyIdentifierIsMissing(t *testing.T) {
	// The registry knows "", but the graph cannot hold it.
	reg := component.NewStatic(
		desc("a", []string{""}, "req-a"),
		desc("", nil, "req-empty"),
	)

	tests := []struct {
		name         string
		requested    []string
		wantReferrer string
	}{
		{"dependency", []string{"a"}, "a"},
		{"requested", []string{""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := Requirements(context.Background(), tt.requested, reg)
			var missErr *MissingComponentError
			if !errors.As(err, &missErr) {
				t.Fatalf("Requirements() = %v, %v; want *MissingComponentError", reqs, err)
			}
			if missErr.ID != "" || missErr.Referrer != tt.wantReferrer {
				t.Errorf("MissingComponentError = %+v, want empty ID referred by %q", missErr, tt.wantReferrer)
			}
			if !errors.Is(err, component.ErrNotFound) {
				t.Error("error should wrap component.ErrNotFound")
			}
		})
	}
}

func TestAggregatePreservesDuplicates(t *testing.T) {
	reg := component.NewStatic(
		desc("B", nil, "x"),
		desc("A", []string{"B"}, "x", "y"),
	)

	got, err := Aggregate(context.Background(), []string{"B", "A"}, reg)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if want := []string{"x", "x", "y"}; !slices.Equal(got, want) {
		t.Errorf("Aggregate() = %v, want %v", got, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got, err := Aggregate(context.Background(), nil, component.NewStatic())
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Aggregate(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestAggregateMissing(t *testing.T) {
	_, err := Aggregate(context.Background(), []string{"ghost"}, component.NewStatic())
	var missErr *MissingComponentError
	if !errors.As(err, &missErr) || missErr.ID != "ghost" {
		t.Errorf("Aggregate() error = %v, want MissingComponentError(ghost)", err)
	}
}

func TestSharedDependencyAppearsOnce(t *testing.T) {
	// light and switch both need zwave; zwave is also requested directly.
	reg := component.NewStatic(
		desc("light", []string{"zwave"}, "light-lib"),
		desc("switch", []string{"zwave"}, "switch-lib"),
		desc("zwave", nil, "pyzwave"),
	)

	res, err := NewRunner(reg, nil).Run(context.Background(), []string{"switch", "zwave", "light", "light"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := []string{"zwave", "light", "switch"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	if want := []string{"pyzwave", "light-lib", "switch-lib"}; !slices.Equal(res.Requirements, want) {
		t.Errorf("Requirements = %v, want %v", res.Requirements, want)
	}
	if want := []string{"light", "switch", "zwave"}; !slices.Equal(res.Requested, want) {
		t.Errorf("Requested = %v, want %v", res.Requested, want)
	}
}

func TestDeclaredDependencyOrder(t *testing.T) {
	reg := component.NewStatic(
		desc("app", []string{"zeta", "alpha"}),
		desc("zeta", nil),
		desc("alpha", nil),
	)

	order, err := LoadOrder(context.Background(), []string{"app"}, reg)
	if err != nil {
		t.Fatalf("LoadOrder() error: %v", err)
	}
	// Declared order wins over alphabetical order for dependencies.
	if want := []string{"zeta", "alpha", "app"}; !slices.Equal(order, want) {
		t.Errorf("LoadOrder() = %v, want %v", order, want)
	}
}

func TestUnrelatedRootsSorted(t *testing.T) {
	reg := component.NewStatic(desc("c", nil), desc("a", nil), desc("b", nil))

	order, err := LoadOrder(context.Background(), []string{"c", "a", "b"}, reg)
	if err != nil {
		t.Fatalf("LoadOrder() error: %v", err)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(order, want) {
		t.Errorf("LoadOrder() = %v, want %v", order, want)
	}
}

func TestDescriptorsFetchedOnce(t *testing.T) {
	reg := &countingRegistry{
		Registry: component.NewStatic(
			desc("a", []string{"b", "c"}),
			desc("b", []string{"d"}),
			desc("c", []string{"d"}),
			desc("d", nil),
		),
		calls: make(map[string]int),
	}

	if _, err := NewRunner(reg, nil).Run(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for id, n := range reg.calls {
		if n != 1 {
			t.Errorf("descriptor %q fetched %d times, want 1", id, n)
		}
	}
	if len(reg.calls) != 4 {
		t.Errorf("fetched %d descriptors, want 4", len(reg.calls))
	}
}

func TestCycleDetection(t *testing.T) {
	tests := []struct {
		name      string
		reg       *component.Static
		requested []string
		want      []string
	}{
		{
			name:      "self loop",
			reg:       component.NewStatic(desc("a", []string{"a"})),
			requested: []string{"a"},
			want:      []string{"a", "a"},
		},
		{
			name: "triangle",
			reg: component.NewStatic(
				desc("a", []string{"b"}),
				desc("b", []string{"c"}),
				desc("c", []string{"a"}),
			),
			requested: []string{"a"},
			want:      []string{"a", "b", "c", "a"},
		},
		{
			name: "cycle below acyclic prefix",
			reg: component.NewStatic(
				desc("app", []string{"lib"}),
				desc("lib", []string{"core"}),
				desc("core", []string{"util"}),
				desc("util", []string{"lib"}),
			),
			requested: []string{"app"},
			want:      []string{"lib", "core", "util", "lib"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOrder(context.Background(), tt.requested, tt.reg)
			var cycErr *CyclicDependencyError
			if !errors.As(err, &cycErr) {
				t.Fatalf("LoadOrder() error = %v, want *CyclicDependencyError", err)
			}
			if !slices.Equal(cycErr.Cycle, tt.want) {
				t.Errorf("Cycle = %v, want %v", cycErr.Cycle, tt.want)
			}
		})
	}
}

func TestCyclicDependencyErrorMessage(t *testing.T) {
	err := &CyclicDependencyError{Cycle: []string{"a", "b", "a"}}
	if got, want := err.Error(), "cyclic dependency: a -> b -> a"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestGraphLookupServesCache(t *testing.T) {
	reg := component.NewStatic(desc("a", []string{"b"}, "ra"), desc("b", nil, "rb"))
	g, err := Build(context.Background(), []string{"a"}, reg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	d, err := g.Lookup(context.Background(), "b")
	if err != nil || !slices.Equal(d.Requirements, []string{"rb"}) {
		t.Errorf("Lookup(b) = %v, %v", d, err)
	}
	if _, err := g.Lookup(context.Background(), "c"); !errors.Is(err, component.ErrNotFound) {
		t.Errorf("Lookup(c) error = %v, want ErrNotFound", err)
	}
	if want := []string{"b"}; !slices.Equal(g.Dependencies("a"), want) {
		t.Errorf("Dependencies(a) = %v, want %v", g.Dependencies("a"), want)
	}
}

func TestEmptyRequest(t *testing.T) {
	res, err := NewRunner(component.NewStatic(), nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(res.Order) != 0 || len(res.Requirements) != 0 {
		t.Errorf("Run(nil) = %+v, want empty result", res)
	}
}

// randomAcyclic builds a registry where component i may only depend on
// components with a larger index, which rules out cycles.
func randomAcyclic(r *rand.Rand, n int) *component.Static {
	descs := make([]*component.Descriptor, n)
	for i := range n {
		d := &component.Descriptor{ID: fmt.Sprintf("c%03d", i)}
		for j := i + 1; j < n; j++ {
			if r.IntN(4) == 0 {
				d.Dependencies = append(d.Dependencies, fmt.Sprintf("c%03d", j))
			}
		}
		d.Requirements = []string{fmt.Sprintf("pkg-%d", r.IntN(5))}
		descs[i] = d
	}
	return component.NewStatic(descs...)
}

// closure computes the transitive closure of requested independently of Build.
func closure(t *testing.T, reg component.Registry, requested []string) map[string]bool {
	t.Helper()
	seen := make(map[string]bool)
	stack := slices.Clone(requested)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		d, err := reg.Lookup(context.Background(), id)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", id, err)
		}
		stack = append(stack, d.Dependencies...)
	}
	return seen
}

func TestPropertiesOnRandomAcyclicGraphs(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for iter := range 50 {
		n := 2 + r.IntN(30)
		reg := randomAcyclic(r, n)

		var requested []string
		for i := range n {
			if r.IntN(3) == 0 {
				requested = append(requested, fmt.Sprintf("c%03d", i))
			}
		}
		if len(requested) == 0 {
			requested = []string{"c000"}
		}

		order, err := LoadOrder(context.Background(), requested, reg)
		if err != nil {
			t.Fatalf("iter %d: LoadOrder() error: %v", iter, err)
		}

		// Every dependency precedes its dependent.
		index := make(map[string]int, len(order))
		for i, id := range order {
			if _, dup := index[id]; dup {
				t.Fatalf("iter %d: %s appears twice in %v", iter, id, order)
			}
			index[id] = i
		}
		for _, id := range order {
			d, _ := reg.Lookup(context.Background(), id)
			for _, dep := range d.Dependencies {
				if index[dep] >= index[id] {
					t.Fatalf("iter %d: dependency %s (at %d) not before %s (at %d)", iter, dep, index[dep], id, index[id])
				}
			}
		}

		// The order covers exactly the transitive closure.
		want := closure(t, reg, requested)
		if len(want) != len(order) {
			t.Fatalf("iter %d: order has %d components, closure has %d", iter, len(order), len(want))
		}
		for id := range want {
			if _, ok := index[id]; !ok {
				t.Fatalf("iter %d: %s missing from order", iter, id)
			}
		}

		// Resolution is deterministic, regardless of request order.
		shuffled := slices.Clone(requested)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again, err := LoadOrder(context.Background(), shuffled, reg)
		if err != nil {
			t.Fatalf("iter %d: second LoadOrder() error: %v", iter, err)
		}
		if !slices.Equal(order, again) {
			t.Fatalf("iter %d: non-deterministic order:\n%v\n%v", iter, order, again)
		}

		// Requirements follow the order one component at a time.
		reqs, err := Requirements(context.Background(), requested, reg)
		if err != nil {
			t.Fatalf("iter %d: Requirements() error: %v", iter, err)
		}
		if len(reqs) != len(order) {
			t.Fatalf("iter %d: %d requirements for %d components", iter, len(reqs), len(order))
		}
	}
}
