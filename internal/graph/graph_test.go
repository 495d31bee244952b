package graph

import (
	"testing"

	"github.com/shipwright-release/shipwright/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkg(name string, deps map[string]plan.Dependency) plan.Package {
	return plan.Package{Name: name, Dependencies: deps, Publishable: true}
}

func TestNew(t *testing.T) {
	g := New()
	assert.NotNil(t, g)
	assert.Empty(t, g.GetAllNodes())
}

func TestAddNode(t *testing.T) {
	t.Run("add single node", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddNode(pkg("core", nil)))

		node, exists := g.GetNode("core")
		assert.True(t, exists)
		assert.Equal(t, "core", node.Package.Name)
	})

	t.Run("add duplicate node returns error", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddNode(pkg("core", nil)))

		err := g.AddNode(pkg("core", nil))
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		depType plan.DependencyType
		wantErr bool
	}{
		{name: "add edge between existing nodes", from: "api", to: "core", depType: plan.Production},
		{name: "add edge from non-existent node", from: "nonexistent", to: "core", depType: plan.Production, wantErr: true},
		{name: "add edge to non-existent node", from: "api", to: "nonexistent", depType: plan.Production, wantErr: true},
		{name: "add development edge", from: "web", to: "api", depType: plan.Development},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			require.NoError(t, g.AddNode(pkg("core", nil)))
			require.NoError(t, g.AddNode(pkg("api", nil)))
			require.NoError(t, g.AddNode(pkg("web", nil)))

			err := g.AddEdge(tt.from, tt.to, tt.depType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			found := false
			for _, edge := range g.GetEdgesFrom(tt.from) {
				if edge.To == tt.to {
					found = true
					assert.Equal(t, tt.depType, edge.Type)
				}
			}
			assert.True(t, found, "edge not found in graph")
		})
	}
}

func TestBuild(t *testing.T) {
	t.Run("edges only to sibling packages", func(t *testing.T) {
		packages := []plan.Package{
			pkg("core", nil),
			pkg("api", map[string]plan.Dependency{
				"core":     {Range: "^1.0.0", Type: plan.Production},
				"left-pad": {Range: "^1.0.0", Type: plan.Production}, // not a sibling
			}),
		}

		g, err := Build(packages)
		require.NoError(t, err)
		assert.Equal(t, 2, g.GetNodeCount())
		assert.Len(t, g.GetEdgesFrom("api"), 1)
		assert.Equal(t, "core", g.GetEdgesFrom("api")[0].To)
	})
}

func TestGetDependentsOf(t *testing.T) {
	packages := []plan.Package{
		pkg("core", nil),
		pkg("api", map[string]plan.Dependency{"core": {Type: plan.Production}}),
		pkg("tooling", map[string]plan.Dependency{"core": {Type: plan.Development}}),
	}
	g, err := Build(packages)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"api", "tooling"}, g.GetDependentsOf("core", false))
	assert.ElementsMatch(t, []string{"api"}, g.GetDependentsOf("core", true))
}

func TestGetAllNodes(t *testing.T) {
	g := New()
	for _, name := range []string{"core", "api", "web"} {
		require.NoError(t, g.AddNode(pkg(name, nil)))
	}
	assert.Len(t, g.GetAllNodes(), 3)
}
