package loadorder

import "slices"

// Resolve orders the components of g so that every component comes after
// all of its dependencies.
//
// Traversal is a depth-first search with white/gray/black colouring. Roots
// are visited in sorted identifier order and dependencies in declared
// order, so the same graph always yields the same order, including the
// placement of unrelated components. Reaching a gray node means the active
// path loops back on itself and Resolve returns a *CyclicDependencyError
// describing that loop; no partial order is returned.
func Resolve(g *Graph) ([]string, error) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.Len())
	order := make([]string, 0, g.Len())
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		path = append(path, id)
		for _, dep := range g.dag.Children(id) {
			switch color[dep] {
			case white:
				if !visit(dep) {
					return false
				}
			case gray:
				start := slices.Index(path, dep)
				cycle = append(slices.Clone(path[start:]), dep)
				return false
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		order = append(order, id)
		return true
	}

	for _, id := range g.roots {
		if color[id] == white && !visit(id) {
			return nil, &CyclicDependencyError{Cycle: cycle}
		}
	}

	return order, nil
}
