package loadorder

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/observability"
)

// Result holds the output of a complete resolution run.
type Result struct {
	Requested    []string // Requested identifiers, deduplicated and sorted
	Order        []string // Load order, dependencies first
	Requirements []string // Requirements in load order, duplicates preserved
	Graph        *Graph   // Dependency graph the order was computed from
	Stats        Stats
}

// Stats contains timing and size information for a run.
type Stats struct {
	BuildTime     time.Duration
	ResolveTime   time.Duration
	AggregateTime time.Duration
	Components    int
	Edges         int
}

// Runner executes build → resolve → aggregate against one registry.
//
// The Runner holds no per-run state: each call to Run builds its own graph
// and descriptor cache, so a single Runner may serve concurrent callers as
// long as its registry is safe for concurrent reads.
type Runner struct {
	Registry component.Registry
	Logger   *log.Logger
}

// NewRunner creates a runner for reg. If logger is nil, log.Default() is used.
func NewRunner(reg component.Registry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Registry: reg, Logger: logger}
}

// Run resolves the load order and requirement list for requested.
// Any failure aborts the whole run; no partial result is returned.
func (r *Runner) Run(ctx context.Context, requested []string) (result *Result, err error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, len(requested))
	defer func() {
		components, reqs := 0, 0
		if result != nil {
			components, reqs = len(result.Order), len(result.Requirements)
		}
		hooks.OnResolveComplete(ctx, components, reqs, time.Since(start), err)
	}()

	result = &Result{}

	buildStart := time.Now()
	g, err := Build(ctx, requested, r.Registry)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Requested = g.Roots()
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Components = g.Len()
	result.Stats.Edges = g.DAG().EdgeCount()

	r.Logger.Debug("built dependency graph",
		"requested", len(result.Requested),
		"components", result.Stats.Components,
		"edges", result.Stats.Edges,
		"duration", result.Stats.BuildTime)

	resolveStart := time.Now()
	order, err := Resolve(g)
	if err != nil {
		return nil, err
	}
	result.Order = order
	result.Stats.ResolveTime = time.Since(resolveStart)

	r.Logger.Debug("resolved load order",
		"components", len(order),
		"duration", result.Stats.ResolveTime)

	aggStart := time.Now()
	reqs, err := Aggregate(ctx, order, g)
	if err != nil {
		return nil, err
	}
	result.Requirements = reqs
	result.Stats.AggregateTime = time.Since(aggStart)

	r.Logger.Debug("aggregated requirements",
		"requirements", len(reqs),
		"duration", result.Stats.AggregateTime)

	return result, nil
}

// LoadOrder is a convenience wrapper returning only the load order.
func LoadOrder(ctx context.Context, requested []string, reg component.Registry) ([]string, error) {
	g, err := Build(ctx, requested, reg)
	if err != nil {
		return nil, err
	}
	return Resolve(g)
}

// Requirements is a convenience wrapper returning only the requirement list.
func Requirements(ctx context.Context, requested []string, reg component.Registry) ([]string, error) {
	g, err := Build(ctx, requested, reg)
	if err != nil {
		return nil, err
	}
	order, err := Resolve(g)
	if err != nil {
		return nil, err
	}
	return Aggregate(ctx, order, g)
}
