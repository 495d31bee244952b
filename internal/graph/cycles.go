package graph

import "sort"

// Cycle is a closed sequence of package names: [v1, v2, ..., vk, v1].
// Normalized so v1 is the lexicographically smallest member, with the
// traversal order found during detection otherwise preserved.
type Cycle []string

// DetectCycles identifies cycles in the dependency graph across every edge
// type. Returns:
//   - hasCycles: true if any cycles exist in the graph
//   - cycles: each cycle in closed-sequence form
//
// A cycle is an SCC with more than one node, or a single node with a
// self-loop.
func DetectCycles(g *DependencyGraph) (bool, []Cycle) {
	if g == nil || g.GetNodeCount() == 0 {
		return false, []Cycle{}
	}

	sccs := FindStronglyConnectedComponents(g)

	cycles := []Cycle{}
	for _, scc := range sccs {
		if isCycle(g, scc, nil) {
			cycles = append(cycles, buildCycle(g, scc, nil))
		}
	}

	return len(cycles) > 0, cycles
}

// ClassifyCycles runs cycle detection twice, once over every edge and once
// restricted to production/peer edges, and splits the result: a cycle that
// only closes once development edges are included can never block
// publishing order and is reported separately from one that closes even
// with development edges removed.
func ClassifyCycles(g *DependencyGraph) (developmentOnly []Cycle, participating []Cycle) {
	if g == nil || g.GetNodeCount() == 0 {
		return []Cycle{}, []Cycle{}
	}

	participatingEdge := func(e Edge) bool { return e.Type.Participates() }

	fullSCCs := FindStronglyConnectedComponents(g)
	participatingSCCs := FindParticipatingSCCs(g)

	blockingMembers := make(map[string]bool)
	for _, scc := range participatingSCCs {
		if isCycle(g, scc, participatingEdge) {
			for _, name := range scc {
				blockingMembers[name] = true
			}
		}
	}

	developmentOnly = []Cycle{}
	participating = []Cycle{}

	for _, scc := range fullSCCs {
		if !isCycle(g, scc, nil) {
			continue
		}
		blocks := false
		for _, name := range scc {
			if blockingMembers[name] {
				blocks = true
				break
			}
		}
		if blocks {
			participating = append(participating, buildCycle(g, scc, participatingEdge))
		} else {
			developmentOnly = append(developmentOnly, buildCycle(g, scc, nil))
		}
	}

	return developmentOnly, participating
}

// isCycle determines if an SCC represents an actual cycle under the given
// edge filter (nil means every edge counts): either a multi-node SCC, or a
// single node with a self-loop.
func isCycle(g *DependencyGraph, scc []string, include func(Edge) bool) bool {
	if len(scc) > 1 {
		return true
	}
	if len(scc) == 1 {
		nodeName := scc[0]
		for _, edge := range g.GetEdgesFrom(nodeName) {
			if include != nil && !include(edge) {
				continue
			}
			if edge.To == nodeName {
				return true
			}
		}
	}
	return false
}

// buildCycle walks the SCC's internal edges, starting from the
// lexicographically smallest member, until it returns to a node already on
// the current path, then rotates the resulting path so the smallest member
// leads while preserving the traversal order found.
func buildCycle(g *DependencyGraph, scc []string, include func(Edge) bool) Cycle {
	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}

	sorted := append([]string{}, scc...)
	sort.Strings(sorted)

	for _, start := range sorted {
		if cycle := findCycleFrom(g, start, members, include); cycle != nil {
			return normalizeCycle(cycle)
		}
	}

	// Fallback when no member closes a cycle under the edge filter
	// (findCycleFrom already returns [v, v] for a self-loop).
	return Cycle{sorted[0], sorted[0]}
}

func findCycleFrom(g *DependencyGraph, start string, members map[string]bool, include func(Edge) bool) []string {
	var path []string
	onPath := make(map[string]int)

	var visit func(name string) []string
	visit = func(name string) []string {
		path = append(path, name)
		onPath[name] = len(path) - 1

		edges := g.GetEdgesFrom(name)
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })

		for _, edge := range edges {
			if include != nil && !include(edge) {
				continue
			}
			if !members[edge.To] {
				continue
			}
			if idx, seen := onPath[edge.To]; seen {
				closed := append([]string{}, path[idx:]...)
				closed = append(closed, edge.To)
				return closed
			}
			if result := visit(edge.To); result != nil {
				return result
			}
		}

		delete(onPath, name)
		path = path[:len(path)-1]
		return nil
	}

	return visit(start)
}

// normalizeCycle rotates a closed cycle [v1,...,vk,v1] so its
// lexicographically smallest member leads, preserving traversal order.
func normalizeCycle(cycle []string) Cycle {
	open := cycle[:len(cycle)-1] // drop the repeated closing element
	minIdx := 0
	for i, name := range open {
		if name < open[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, open[minIdx:]...), open[:minIdx]...)
	return append(rotated, rotated[0])
}
