package graph

import (
	"fmt"
	"sort"
)

// TopologicalSort orders a dependency graph's vertices so that every
// dependency precedes its dependents (spec.md §4.3's publishing order).
// Vertices are processed in breadth-first layers: every vertex ready at the
// start of a layer is emitted, in lexicographic order, before any vertex
// that layer frees is considered — so a vertex freed earlier within a layer
// never jumps ahead of a sibling that was already ready, keeping the result
// deterministic and matching the layer-then-lexicographic order the seed
// scenarios expect.
//
// When excludeDevelopment is true, development-typed edges are dropped from
// the in-degree computation before sorting: a package's publish order is
// never held up by a dev-only dependency, per spec.md's development
// dependencies being excluded from publishing order.
//
// Returns an error if the graph (restricted per excludeDevelopment) still
// contains a cycle; callers are expected to have resolved or rejected
// production/peer cycles before calling this.
func TopologicalSort(g *DependencyGraph, excludeDevelopment bool) ([]string, error) {
	if g == nil || g.GetNodeCount() == 0 {
		return []string{}, nil
	}

	include := func(e Edge) bool {
		return !excludeDevelopment || e.Type.Participates()
	}

	// Our edges run dependent -> dependency. In-degree counts, per vertex v,
	// how many of v's own dependencies have not yet been emitted, so that a
	// vertex becomes ready only once everything it depends on is emitted.
	inDegree := make(map[string]int)
	for _, node := range g.GetAllNodes() {
		inDegree[node.Package.Name] = 0
	}
	for _, node := range g.GetAllNodes() {
		for _, edge := range g.GetEdgesFrom(node.Package.Name) {
			if include(edge) {
				inDegree[node.Package.Name]++
			}
		}
	}

	var layer []string
	for name, degree := range inDegree {
		if degree == 0 {
			layer = append(layer, name)
		}
	}
	sort.Strings(layer)

	sorted := make([]string, 0, g.GetNodeCount())
	for len(layer) > 0 {
		var next []string
		seen := make(map[string]bool)

		for _, name := range layer {
			sorted = append(sorted, name)

			for _, dependent := range g.GetDependentsOf(name, false) {
				for _, edge := range g.GetEdgesFrom(dependent) {
					if edge.To != name || !include(edge) {
						continue
					}
					inDegree[dependent]--
					if inDegree[dependent] == 0 && !seen[dependent] {
						next = append(next, dependent)
						seen[dependent] = true
					}
				}
			}
		}

		sort.Strings(next)
		layer = next
	}

	if len(sorted) != g.GetNodeCount() {
		return nil, fmt.Errorf("cycle detected: sorted %d of %d packages", len(sorted), g.GetNodeCount())
	}

	return sorted, nil
}
