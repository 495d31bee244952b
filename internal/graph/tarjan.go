package graph

// FindStronglyConnectedComponents uses Tarjan's algorithm to identify
// strongly connected components (SCCs) in the dependency graph, considering
// every edge regardless of type. Returns a slice of SCCs, where each SCC is
// a slice of package names, and sets the SCC field on each node to its
// component ID.
func FindStronglyConnectedComponents(g *DependencyGraph) [][]string {
	return findSCCs(g, nil, true)
}

// FindParticipatingSCCs runs the same algorithm restricted to production and
// peer edges only, which is the edge set spec.md's dual-pass cycle
// classification needs to tell a development-only cycle apart from one that
// would actually block publishing. It never mutates node SCC ids: those
// belong to the full-graph pass.
func FindParticipatingSCCs(g *DependencyGraph) [][]string {
	return findSCCs(g, func(e Edge) bool { return e.Type.Participates() }, false)
}

func findSCCs(g *DependencyGraph, include func(Edge) bool, assignSCC bool) [][]string {
	if g == nil || len(g.nodes) == 0 {
		return [][]string{}
	}

	state := &tarjanState{
		graph:     g,
		include:   include,
		assignSCC: assignSCC,
		indices:   make(map[string]int),
		lowlinks:  make(map[string]int),
		onStack:   make(map[string]bool),
		stack:     []string{},
		sccs:      [][]string{},
		sccID:     1, // Start SCC IDs at 1 (0 means not yet assigned)
	}

	for name := range g.nodes {
		if _, visited := state.indices[name]; !visited {
			state.strongConnect(name)
		}
	}

	return state.sccs
}

// tarjanState holds the state for Tarjan's algorithm
type tarjanState struct {
	graph     *DependencyGraph
	include   func(Edge) bool // nil means every edge counts
	assignSCC bool
	index     int
	indices   map[string]int
	lowlinks  map[string]int
	onStack   map[string]bool
	stack     []string
	sccs      [][]string
	sccID     int
}

// strongConnect is the recursive heart of Tarjan's algorithm
func (s *tarjanState) strongConnect(name string) {
	s.indices[name] = s.index
	s.lowlinks[name] = s.index
	s.index++
	s.stack = append(s.stack, name)
	s.onStack[name] = true

	for _, edge := range s.graph.GetEdgesFrom(name) {
		if s.include != nil && !s.include(edge) {
			continue
		}
		successor := edge.To

		if _, visited := s.indices[successor]; !visited {
			s.strongConnect(successor)
			s.lowlinks[name] = min(s.lowlinks[name], s.lowlinks[successor])
		} else if s.onStack[successor] {
			s.lowlinks[name] = min(s.lowlinks[name], s.indices[successor])
		}
	}

	if s.lowlinks[name] == s.indices[name] {
		scc := []string{}
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[w] = false
			scc = append(scc, w)

			if s.assignSCC {
				_ = s.graph.SetSCC(w, s.sccID)
			}

			if w == name {
				break
			}
		}

		s.sccs = append(s.sccs, scc)
		s.sccID++
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
