// Package cli wires the declared-repositories configuration to the core
// analyze/plan/publish pipeline, spec.md §6's three entry points. It
// carries no output formatting of its own (out of scope per spec.md §1);
// callers marshal the returned structs however they like.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipwright-release/shipwright/internal/capability"
	"github.com/shipwright-release/shipwright/internal/changeset"
	"github.com/shipwright-release/shipwright/internal/graph"
	"github.com/shipwright-release/shipwright/internal/logger"
	"github.com/shipwright-release/shipwright/internal/orchestrator"
	"github.com/shipwright-release/shipwright/internal/plan"
	"github.com/shipwright-release/shipwright/internal/planner"
	"github.com/shipwright-release/shipwright/internal/preflight"
	"github.com/shipwright-release/shipwright/internal/registrymonitor"
	"github.com/shipwright-release/shipwright/internal/updater"
	pkgconfig "github.com/shipwright-release/shipwright/pkg/config"
	"github.com/shipwright-release/shipwright/pkg/semver"
)

// AnalyzeResult reports the resolved dependency graph and each repository's
// changeset state, spec.md §6's analyze entry point.
type AnalyzeResult struct {
	Graph         *graph.DependencyGraph
	States        map[string]plan.RepositoryState
	Changesets    map[string]changeset.Analysis
	Breaking      []graph.Cycle
	DevOnlyCycles []graph.Cycle
}

// Analyze loads every declared repository's manifest and changeset
// directory and builds the dependency graph, without planning or
// publishing anything.
func Analyze(cfg *pkgconfig.Config, reposDir string, fs capability.Filesystem) (*AnalyzeResult, error) {
	packages := []plan.Package{}
	states := map[string]plan.RepositoryState{}
	changesets := map[string]changeset.Analysis{}

	for _, repo := range cfg.Repos {
		dir := repoDir(reposDir, repo)
		manifestPath := filepath.Join(dir, "shipwright.json")

		data, err := fs.ReadFile(manifestPath)
		if err != nil {
			states[repo.URL] = plan.RepositoryState{Unresolved: &plan.UnresolvedRepository{Reason: err.Error()}}
			continue
		}
		manifest, err := updater.ParseManifest(data)
		if err != nil {
			states[repo.URL] = plan.RepositoryState{Unresolved: &plan.UnresolvedRepository{Reason: err.Error()}}
			continue
		}

		version, err := semver.Parse(manifest.Version)
		if err != nil {
			states[repo.URL] = plan.RepositoryState{Unresolved: &plan.UnresolvedRepository{Reason: err.Error()}}
			continue
		}

		states[manifest.Name] = plan.RepositoryState{Resolved: &plan.ResolvedRepository{Path: dir}}
		packages = append(packages, plan.Package{
			Name:         manifest.Name,
			Version:      version,
			Dependencies: mergeDependencies(manifest),
			Publishable:  !manifest.Private,
		})

		analysis, err := changeset.ReadDir(filepath.Join(dir, ".changesets"))
		if err != nil {
			return nil, fmt.Errorf("read changesets for %s: %w", manifest.Name, err)
		}
		changesets[manifest.Name] = analysis
	}

	g, err := graph.Build(packages)
	if err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}

	devOnly, participating := graph.ClassifyCycles(g)

	return &AnalyzeResult{
		Graph:         g,
		States:        states,
		Changesets:    changesets,
		Breaking:      participating,
		DevOnlyCycles: devOnly,
	}, nil
}

func mergeDependencies(m *updater.Manifest) map[string]plan.Dependency {
	deps := map[string]plan.Dependency{}
	for name, r := range m.Production {
		deps[name] = plan.Dependency{Range: r, Type: plan.Production}
	}
	for name, r := range m.Peer {
		deps[name] = plan.Dependency{Range: r, Type: plan.Peer}
	}
	for name, r := range m.Development {
		deps[name] = plan.Dependency{Range: r, Type: plan.Development}
	}
	return deps
}

func repoDir(reposDir string, repo pkgconfig.RepoEntry) string {
	if repo.Dir != "" {
		if filepath.IsAbs(repo.Dir) {
			return repo.Dir
		}
		return filepath.Join(reposDir, repo.Dir)
	}
	return filepath.Join(reposDir, inferRepoName(repo.URL))
}

func inferRepoName(url string) string {
	name := filepath.Base(url)
	name = trimSuffix(name, ".git")
	return name
}

func trimSuffix(s, suffix string) string {
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}

// aggregateBumps combines every repository's per-package changeset bumps,
// highest-bump-wins across repositories, matching the within-repository
// aggregation internal/changeset already performs.
func aggregateBumps(changesets map[string]changeset.Analysis) map[string]string {
	bumps := map[string]string{}
	for _, analysis := range changesets {
		for pkg, bump := range analysis.PerPackageBumps {
			if existing, ok := bumps[pkg]; !ok || changeset.IsHigherPriority(bump, existing) {
				bumps[pkg] = bump
			}
		}
	}
	return bumps
}

// Plan runs Analyze and feeds its result into the planner, producing a
// Publishing Plan, spec.md §6's plan entry point.
func Plan(cfg *pkgconfig.Config, reposDir string, fs capability.Filesystem) (*AnalyzeResult, *plan.Plan, error) {
	analysis, err := Analyze(cfg, reposDir, fs)
	if err != nil {
		return nil, nil, err
	}
	if len(analysis.Breaking) > 0 {
		return analysis, nil, fmt.Errorf("dependency graph has %d participating cycle(s): %s", len(analysis.Breaking), formatCycles(analysis.Breaking))
	}

	bumps := aggregateBumps(analysis.Changesets)
	p := planner.Plan(analysis.Graph, bumps, planner.Options{DefaultRangeStrategy: string(cfg.BumpStrategy)})
	return analysis, p, nil
}

func formatCycles(cycles []graph.Cycle) string {
	out := ""
	for i, c := range cycles {
		if i > 0 {
			out += "; "
		}
		for j, name := range c {
			if j > 0 {
				out += " -> "
			}
			out += name
		}
	}
	return out
}

// PublishOptions carries the per-run knobs spec.md §6's publish entry point
// accepts, as an explicit struct rather than positional kwargs.
type PublishOptions struct {
	Dry             bool
	Resume          bool
	ContinueOnError bool
	MonitorOptions  registrymonitor.Options
	Deps            orchestrator.Dependencies
}

// Publish runs Plan, validates the result with a pre-flight pass, and -
// absent any blocking pre-flight error - executes the publishing
// orchestrator.
func Publish(ctx context.Context, cfg *pkgconfig.Config, reposDir, statePath string, opts PublishOptions) (*preflight.Result, *orchestrator.Result, error) {
	analysis, p, err := Plan(cfg, reposDir, opts.Deps.Filesystem)
	if err != nil {
		return nil, nil, err
	}

	repos := make([]preflight.Repo, 0, len(cfg.Repos))
	layouts := make(map[string]orchestrator.RepoLayout, len(cfg.Repos))
	dependents := map[string][]string{}

	for _, node := range analysis.Graph.GetAllNodes() {
		state, ok := analysis.States[node.Package.Name]
		if !ok || state.Resolved == nil {
			continue
		}
		dir := state.Resolved.Path
		repos = append(repos, preflight.Repo{
			Name:           node.Package.Name,
			Dir:            dir,
			ChangesetDir:   filepath.Join(dir, ".changesets"),
			ExpectedBranch: "main",
		})
		layouts[node.Package.Name] = orchestrator.RepoLayout{
			Dir:          dir,
			ManifestPath: filepath.Join(dir, "shipwright.json"),
			ChangesetDir: filepath.Join(dir, ".changesets"),
		}
		for _, dependentName := range analysis.Graph.GetDependentsOf(node.Package.Name, true) {
			dependents[node.Package.Name] = appendUnique(dependents[node.Package.Name], dependentName)
		}
	}

	preflightResult := preflight.Run(ctx, repos, opts.Deps.Git, opts.Deps.Registry, opts.Deps.Build, preflight.Options{CheckBuildable: !opts.Dry})
	if !preflightResult.OK {
		return preflightResult, nil, nil
	}

	orchOpts := orchestrator.Options{
		Dry:             opts.Dry,
		Resume:          opts.Resume,
		ContinueOnError: opts.ContinueOnError,
		BumpStrategy:    string(cfg.BumpStrategy),
		StatePath:       statePath,
		Repos:           layouts,
		MonitorOptions:  opts.MonitorOptions,
	}

	result, err := orchestrator.Publish(ctx, p, dependents, opts.Deps, orchOpts)
	return preflightResult, result, err
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

// DefaultLogger returns an info-level logger writing to stderr with quiet
// mode off, so progress and warnings are shown (unlike the orchestrator's
// silent fallback when no logger is supplied).
func DefaultLogger() *logger.Logger {
	return logger.New(os.Stderr, logger.LevelInfo, false)
}
