// Package preflight runs the checks the orchestrator requires before any
// package is built or published: per-repository workspace/branch/changeset
// checks, plus the global registry reachability, credential, and remote
// checks. Runs a fixed check list rather than a pluggable guard registry.
package preflight

import (
	"context"
	"fmt"

	"github.com/shipwright-release/shipwright/internal/capability"
	"github.com/shipwright-release/shipwright/internal/changeset"
)

// Repo describes one repository pre-flight inspects.
type Repo struct {
	Name           string
	Dir            string
	ChangesetDir   string
	ExpectedBranch string
}

// Options controls which checks run.
type Options struct {
	CheckBuildable bool
}

// Result is spec.md §4.5's pre-flight result shape.
type Result struct {
	OK                        bool
	Errors                    []string
	Warnings                  []string
	ReposWithChangesets       []string
	ReposWithoutChangesets    []string
	EstimatedDurationSeconds  *float64
	AuthIdentity              *string
}

// Run executes every per-repo and global check and aggregates them into a
// single Result; ok iff errors is empty.
func Run(ctx context.Context, repos []Repo, git capability.Git, registry capability.Registry, build capability.Build, opts Options) *Result {
	result := &Result{}

	for _, repo := range repos {
		clean, err := git.IsClean(ctx, repo.Dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to check workspace cleanliness: %v", repo.Name, err))
		} else if !clean {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: workspace has uncommitted changes", repo.Name))
		}

		branch, err := git.CurrentBranch(ctx, repo.Dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to read current branch: %v", repo.Name, err))
		} else if repo.ExpectedBranch != "" && branch != repo.ExpectedBranch {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: on branch %q, expected %q", repo.Name, branch, repo.ExpectedBranch))
		}

		analysis, err := changeset.ReadDir(repo.ChangesetDir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to read changesets: %v", repo.Name, err))
		} else if analysis.HasChangesets {
			result.ReposWithChangesets = append(result.ReposWithChangesets, repo.Name)
		} else {
			result.ReposWithoutChangesets = append(result.ReposWithoutChangesets, repo.Name)
		}

		if opts.CheckBuildable && build != nil {
			if err := build.Build(ctx, repo.Dir); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: build failed: %v", repo.Name, err))
			}
		}
	}

	if len(repos) > 0 && git != nil {
		if err := git.RemoteReachable(ctx, repos[0].Dir); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("remote unreachable (sampled from %s): %v", repos[0].Name, err))
		}
	}

	if registry != nil {
		if err := registry.CheckReachable(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("registry unreachable: %v", err))
		}

		ok, identity, err := registry.CheckAuth(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to check registry credentials: %v", err))
		} else if !ok {
			result.Errors = append(result.Errors, "registry credentials are not valid or not configured")
		} else if identity != nil {
			id := identity.Name
			result.AuthIdentity = &id
		}
	}

	result.OK = len(result.Errors) == 0
	return result
}
