package graph

import (
	"testing"

	"github.com/shipwright-release/shipwright/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCycles(t *testing.T) {
	t.Run("no cycles detected", func(t *testing.T) {
		packages := deps(
			pkg("utils", nil),
			pkg("core", dep("utils", plan.Production)),
			pkg("api", dep("core", plan.Production)),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		hasCycles, cycles := DetectCycles(g)
		assert.False(t, hasCycles)
		assert.Empty(t, cycles)
	})

	t.Run("two node cycle, closed and normalized", func(t *testing.T) {
		packages := deps(
			pkg("b", dep("a", plan.Production)),
			pkg("a", dep("b", plan.Production)),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		hasCycles, cycles := DetectCycles(g)
		require.True(t, hasCycles)
		require.Len(t, cycles, 1)
		assert.Equal(t, "a", cycles[0][0], "cycle must lead with the lexicographically smallest member")
		assert.Equal(t, cycles[0][0], cycles[0][len(cycles[0])-1], "cycle must be closed")
	})

	t.Run("self loop", func(t *testing.T) {
		packages := deps(pkg("a", dep("a", plan.Production)))
		g, err := Build(packages)
		require.NoError(t, err)

		hasCycles, cycles := DetectCycles(g)
		require.True(t, hasCycles)
		require.Len(t, cycles, 1)
		assert.Equal(t, Cycle{"a", "a"}, cycles[0])
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		packages := deps(
			pkg("d", nil),
			pkg("b", dep("d", plan.Production)),
			pkg("c", dep("d", plan.Production)),
			pkg("a", map[string]plan.Dependency{
				"b": {Type: plan.Production},
				"c": {Type: plan.Production},
			}),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		hasCycles, cycles := DetectCycles(g)
		assert.False(t, hasCycles)
		assert.Empty(t, cycles)
	})

	t.Run("empty graph", func(t *testing.T) {
		hasCycles, cycles := DetectCycles(New())
		assert.False(t, hasCycles)
		assert.Empty(t, cycles)
	})
}

func TestClassifyCycles(t *testing.T) {
	t.Run("development-only cycle never blocks publishing", func(t *testing.T) {
		packages := deps(
			pkg("a", dep("b", plan.Development)),
			pkg("b", dep("a", plan.Development)),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		devOnly, participating := ClassifyCycles(g)
		assert.Len(t, devOnly, 1)
		assert.Empty(t, participating)
	})

	t.Run("production cycle blocks publishing", func(t *testing.T) {
		packages := deps(
			pkg("a", dep("b", plan.Production)),
			pkg("b", dep("a", plan.Production)),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		devOnly, participating := ClassifyCycles(g)
		assert.Empty(t, devOnly)
		assert.Len(t, participating, 1)
	})

	t.Run("mixed: cycle closed only by a dev edge is development-only", func(t *testing.T) {
		// a -> b (production), b -> a (development): the production-only
		// pass sees no cycle for {a,b}, only the full pass does, so it is
		// classified as development-only.
		packages := deps(
			pkg("a", dep("b", plan.Production)),
			pkg("b", dep("a", plan.Development)),
		)
		g, err := Build(packages)
		require.NoError(t, err)

		devOnly, participating := ClassifyCycles(g)
		assert.Len(t, devOnly, 1)
		assert.Empty(t, participating)
	})
}
