// Package planner computes a Publishing Plan: the deterministic publish
// order, the version each changed package moves to, the dependency range
// updates that order requires, and the breaking-change cascades those range
// updates force onto dependents.
//
// Inputs are the dependency graph, the current declared dependency ranges
// (already carried on the graph's packages), and a single map of direct
// bumps per package — the caller aggregates these ahead of time from every
// repository's changeset directory via internal/changeset, highest-bump-wins
// across repositories, same as within one.
package planner

import (
	"fmt"
	"strings"

	"github.com/shipwright-release/shipwright/internal/changeset"
	"github.com/shipwright-release/shipwright/internal/graph"
	"github.com/shipwright-release/shipwright/internal/plan"
	"github.com/shipwright-release/shipwright/pkg/semver"
)

// Options carries the planner's configurable knobs as an explicit struct
// rather than positional arguments, matching the "configuration objects,
// not kwargs" note.
type Options struct {
	// DefaultRangeStrategy names the prefix for a dependency range that
	// carries no explicit prefix (wildcard or bare exact version). One of
	// "caret" (default), "tilde", "exact". Plan records only new versions;
	// range prefixes are chosen by GetUpdatePrefix when a manifest is
	// rewritten.
	DefaultRangeStrategy string
}

func (o Options) strategy() string {
	if o.DefaultRangeStrategy == "" {
		return "caret"
	}
	return o.DefaultRangeStrategy
}

// Plan computes the Publishing Plan for g, given a per-package map of
// already-aggregated direct changeset bumps ("major"/"minor"/"patch").
func Plan(g *graph.DependencyGraph, directBumps map[string]string, opts Options) *plan.Plan {
	result := &plan.Plan{
		VersionChanges:   map[string]plan.VersionChange{},
		BreakingCascades: map[string][]string{},
	}

	devOnly, participating := graph.ClassifyCycles(g)

	if len(participating) > 0 {
		result.PublishingOrder = []string{}
		result.Errors = append(result.Errors, "topological sort failed: a production or peer dependency cycle blocks publishing order")
		for _, cycle := range participating {
			result.Errors = append(result.Errors, formatCycle(cycle))
		}
		return result
	}

	for _, cycle := range devOnly {
		result.Warnings = append(result.Warnings, fmt.Sprintf("development-only dependency cycle: %s", formatCycle(cycle)))
	}

	order, err := graph.TopologicalSort(g, true)
	if err != nil {
		result.PublishingOrder = []string{}
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.PublishingOrder = order

	predictedVersions := make(map[string]semver.Version, len(order))
	breakingPackages := make(map[string]bool)

	for _, name := range order {
		node, _ := g.GetNode(name)
		current := node.Package.Version

		// Step 1: predict explicit versions for packages with their own changesets.
		if bumpKind, ok := directBumps[name]; ok {
			applyBump(result, predictedVersions, breakingPackages, name, current, bumpKind, plan.SourcePlain, "", "")
		}

		// Step 2: dependency updates and breaking cascades.
		var updatedParticipatingDeps []string
		for depName, dependency := range node.Package.Dependencies {
			newVersion, exists := predictedVersions[depName]
			if !exists {
				continue
			}
			if needsUpdate(dependency.Range, newVersion) {
				result.DependencyUpdates = append(result.DependencyUpdates, plan.DependencyUpdate{
					Dependent:       name,
					Dependency:      depName,
					NewVersion:      newVersion,
					Type:            dependency.Type,
					CausesRepublish: dependency.Type.Participates(),
				})
				if dependency.Type.Participates() {
					updatedParticipatingDeps = append(updatedParticipatingDeps, depName)
				}
			}
			if breakingPackages[depName] && dependency.Type.Participates() {
				result.BreakingCascades[depName] = append(result.BreakingCascades[depName], name)
			}
		}

		// Step 3: bump escalation and auto-changeset.
		requiredBump := ""
		if len(updatedParticipatingDeps) > 0 {
			anyBreaking := false
			for _, depName := range updatedParticipatingDeps {
				if breakingPackages[depName] {
					anyBreaking = true
					break
				}
			}
			switch {
			case anyBreaking && current.Major == 0:
				requiredBump = semver.Minor
			case anyBreaking:
				requiredBump = semver.Major
			default:
				requiredBump = semver.Patch
			}
		}

		existing, hasEntry := result.VersionChanges[name]
		switch {
		case hasEntry && requiredBump != "" && changeset.IsHigherPriority(requiredBump, existing.BumpType):
			applyBump(result, predictedVersions, breakingPackages, name, existing.From, requiredBump, plan.SourceEscalated, existing.BumpType, requiredBump)
		case !hasEntry && requiredBump != "":
			applyBump(result, predictedVersions, breakingPackages, name, current, requiredBump, plan.SourceAuto, "", "")
		case !hasEntry:
			result.Info = append(result.Info, fmt.Sprintf("%s: no work", name))
		}
	}

	return result
}

func applyBump(
	result *plan.Plan,
	predictedVersions map[string]semver.Version,
	breakingPackages map[string]bool,
	name string,
	from semver.Version,
	bumpKind string,
	source plan.BumpSource,
	existingBump, requiredBump string,
) {
	to, err := from.Bump(bumpKind)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	breaking := semver.IsBreaking(from, bumpKind)
	result.VersionChanges[name] = plan.VersionChange{
		Package:      name,
		From:         from,
		To:           to,
		BumpType:     bumpKind,
		Breaking:     breaking,
		Source:       source,
		ExistingBump: existingBump,
		RequiredBump: requiredBump,
	}
	predictedVersions[name] = to
	if breaking {
		breakingPackages[name] = true
	}
}

func formatCycle(cycle graph.Cycle) string {
	return strings.Join(cycle, " -> ")
}

// needsUpdate reports whether a declared dependency range must change to
// reflect newVersion, per spec.md §4.4's rule.
func needsUpdate(rangeStr string, newVersion semver.Version) bool {
	if rangeStr == "*" {
		return true
	}
	bare, err := semver.Parse(bareVersion(rangeStr))
	if err != nil {
		return true
	}
	return !bare.Equals(newVersion)
}

// GetUpdatePrefix computes the range prefix a dependency update should use:
// a wildcard or bare-exact range adopts the configured default strategy,
// any other range keeps its existing prefix.
func GetUpdatePrefix(rangeStr, strategy string) string {
	switch {
	case rangeStr == "*":
		return strategyPrefix(strategy)
	case strings.HasPrefix(rangeStr, "^"):
		return "^"
	case strings.HasPrefix(rangeStr, "~"):
		return "~"
	case strings.HasPrefix(rangeStr, ">="):
		return ">="
	default:
		return strategyPrefix(strategy)
	}
}

func strategyPrefix(strategy string) string {
	switch strategy {
	case "exact":
		return ""
	case "tilde":
		return "~"
	default:
		return "^"
	}
}

func bareVersion(rangeStr string) string {
	switch {
	case strings.HasPrefix(rangeStr, ">="):
		return strings.TrimPrefix(rangeStr, ">=")
	case strings.HasPrefix(rangeStr, "^"):
		return strings.TrimPrefix(rangeStr, "^")
	case strings.HasPrefix(rangeStr, "~"):
		return strings.TrimPrefix(rangeStr, "~")
	default:
		return rangeStr
	}
}
