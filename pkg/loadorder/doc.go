// Package loadorder computes component load orders and the package
// requirements they need.
//
// # Overview
//
// Given a set of requested component identifiers and a [component.Registry],
// resolution runs in three sequential steps:
//
//  1. [Build] walks the transitive closure of the request, fetching each
//     descriptor once and recording component → dependency edges.
//  2. [Resolve] orders the closure so every component appears after its
//     dependencies, failing with [CyclicDependencyError] on a cycle.
//  3. [Aggregate] concatenates each component's requirements in that order.
//
// A missing component at any point yields [MissingComponentError]. Both
// errors abort the run; there is never a partial result.
//
// # Determinism
//
// Roots are visited in sorted order and dependencies in the order each
// descriptor declares them, so the same registry and request always produce
// the same load order.
//
// # Duplicates
//
// Requirements are not deduplicated. If two components both require
// "pyserial==3.1", the string appears twice in the output, once per
// component, in load order.
//
// # Usage
//
//	runner := loadorder.NewRunner(reg, logger)
//	result, err := runner.Run(ctx, []string{"light", "zwave"})
//	if err != nil {
//	    return err
//	}
//	for _, req := range result.Requirements {
//	    fmt.Println(req)
//	}
package loadorder
