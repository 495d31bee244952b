// Package graph implements the dependency graph: a typed multi-edge graph
// over sibling packages, a deterministic topological sort, and cycle
// detection per edge class.
//
// Vertices are stored keyed by name in a map (an arena), and edges
// reference their endpoints by name only — no vertex ever holds a pointer
// to another vertex, which sidesteps the reference cycles a dependency
// graph naturally contains.
package graph

import (
	"fmt"

	"github.com/shipwright-release/shipwright/internal/plan"
)

// Node is a vertex in the dependency graph.
type Node struct {
	Package plan.Package
	SCC     int // strongly connected component id; 0 until FindStronglyConnectedComponents assigns one
}

// Edge is a directed edge from a dependent package to one of its
// declared dependencies.
type Edge struct {
	From string
	To   string
	Type plan.DependencyType
}

// DependencyGraph is a directed graph of package dependencies.
type DependencyGraph struct {
	nodes map[string]*Node
	edges map[string][]Edge
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]Edge),
	}
}

// AddNode adds a package vertex to the graph. Returns an error if a vertex
// with the same name already exists.
func (g *DependencyGraph) AddNode(pkg plan.Package) error {
	if _, exists := g.nodes[pkg.Name]; exists {
		return fmt.Errorf("node already exists: %s", pkg.Name)
	}
	g.nodes[pkg.Name] = &Node{Package: pkg}
	if g.edges[pkg.Name] == nil {
		g.edges[pkg.Name] = []Edge{}
	}
	return nil
}

// AddEdge adds a directed edge from a dependent package to a dependency it
// declares. Returns an error if either endpoint is not a known vertex.
func (g *DependencyGraph) AddEdge(from, to string, depType plan.DependencyType) error {
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("source node not found: %s", from)
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("target node not found: %s", to)
	}
	g.edges[from] = append(g.edges[from], Edge{From: from, To: to, Type: depType})
	return nil
}

// Build constructs a graph from a set of packages: one vertex per package,
// and one edge per declared dependency whose name matches a sibling.
// Dependencies on names outside the given set are retained on the vertex
// (via pkg.Dependencies) but do not create graph edges.
func Build(packages []plan.Package) (*DependencyGraph, error) {
	g := New()
	for _, pkg := range packages {
		if err := g.AddNode(pkg); err != nil {
			return nil, err
		}
	}
	for _, pkg := range packages {
		for depName, dep := range pkg.Dependencies {
			if _, isSibling := g.nodes[depName]; !isSibling {
				continue
			}
			if err := g.AddEdge(pkg.Name, depName, dep.Type); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// GetNode returns the vertex with the given name, or false if absent.
func (g *DependencyGraph) GetNode(name string) (*Node, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// GetEdgesFrom returns all edges whose dependent endpoint is name.
func (g *DependencyGraph) GetEdgesFrom(name string) []Edge {
	edges, exists := g.edges[name]
	if !exists {
		return []Edge{}
	}
	return edges
}

// GetDependentsOf returns the names of every vertex with an edge pointing
// to name, optionally restricted to participating (production/peer) types.
func (g *DependencyGraph) GetDependentsOf(name string, participatingOnly bool) []string {
	var dependents []string
	for from, edges := range g.edges {
		for _, e := range edges {
			if e.To != name {
				continue
			}
			if participatingOnly && !e.Type.Participates() {
				continue
			}
			dependents = append(dependents, from)
			break
		}
	}
	return dependents
}

// GetAllNodes returns every vertex in the graph.
func (g *DependencyGraph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// SetSCC sets the strongly-connected-component id for a vertex.
func (g *DependencyGraph) SetSCC(name string, sccID int) error {
	node, exists := g.nodes[name]
	if !exists {
		return fmt.Errorf("node not found: %s", name)
	}
	node.SCC = sccID
	return nil
}

// GetNodeCount returns the number of vertices in the graph.
func (g *DependencyGraph) GetNodeCount() int { return len(g.nodes) }

// GetEdgeCount returns the total number of edges in the graph.
func (g *DependencyGraph) GetEdgeCount() int {
	count := 0
	for _, edges := range g.edges {
		count += len(edges)
	}
	return count
}
