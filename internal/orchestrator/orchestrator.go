// Package orchestrator drives spec.md §4.8's publishing state machine:
// pending -> selected -> built -> published -> awaited -> cascaded -> done,
// persisting the Publishing State after every transition so a killed run
// can resume. The state file is written atomically under a flock-guarded
// exclusive lock and read under a shared one (see state.go).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/shipwright-release/shipwright/internal/capability"
	"github.com/shipwright-release/shipwright/internal/logger"
	"github.com/shipwright-release/shipwright/internal/plan"
	"github.com/shipwright-release/shipwright/internal/registrymonitor"
	"github.com/shipwright-release/shipwright/internal/shiperr"
	"github.com/shipwright-release/shipwright/internal/updater"
)

// RepoLayout is where on disk a package's repository, manifest, and
// changeset directory live, keyed by package name in Options.Repos.
type RepoLayout struct {
	Dir          string
	ManifestPath string
	ChangesetDir string
}

// Options controls one Publish run.
type Options struct {
	Dry             bool
	Resume          bool
	ContinueOnError bool
	BumpStrategy    string // exact | caret | tilde, passed to the updater
	StatePath       string
	Repos           map[string]RepoLayout
	MonitorOptions  registrymonitor.Options
}

// Dependencies bundles the external capabilities the orchestrator calls
// through; every side-effecting call in the state machine goes through one
// of these so dry mode can skip them uniformly.
type Dependencies struct {
	Git        capability.Git
	Registry   capability.Registry
	Build      capability.Build
	Filesystem capability.Filesystem
	Log        *logger.Logger
}

// Result is the orchestrator's Publishing Result: the final Publishing
// State, the version each processed package was published at, and any
// run-level errors.
type Result struct {
	State             *plan.State
	PublishedVersions map[string]string
	Errors            []string
}

// Ok reports whether the run finished with no fatal errors and no failed
// packages. The caller maps this to the process exit code.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0 && len(r.State.Failed) == 0
}

// Publish runs p's PublishingOrder through the state machine. dependents
// maps each package to the names of packages in the plan that depend on it
// (production or peer only), used at the cascaded step to know who needs a
// manifest update.
func Publish(ctx context.Context, p *plan.Plan, dependents map[string][]string, deps Dependencies, opts Options) (*Result, error) {
	log := deps.Log
	if log == nil {
		log = logger.New(nopWriter{}, logger.LevelInfo, true)
	}

	state, err := loadOrInitState(opts, p, log)
	if err != nil {
		return nil, err
	}

	published := map[string]string{}
	result := &Result{State: state, PublishedVersions: published}

	// Packages already completed or failed from a resumed run are skipped;
	// a resumed current package is retried from the top of its step, since
	// the state machine has no partial-step markers.
	skip := make(map[string]bool)
	for _, c := range state.Completed {
		skip[c.Name] = true
	}
	for _, f := range state.Failed {
		skip[f.Name] = true
	}

	for len(state.Remaining) > 0 || state.Current != "" {
		name := state.Current
		if name == "" {
			name, state.Remaining = state.Remaining[0], state.Remaining[1:]
			state.Current = name
			if err := persist(opts, state); err != nil {
				return result, err
			}
		}

		if skip[name] {
			state.Current = ""
			continue
		}

		if err := ctx.Err(); err != nil {
			fail(state, name, shiperr.NewForPackage(shiperr.Cancellation, name, err).Error())
			_ = persist(opts, state)
			return result, nil
		}

		layout, ok := opts.Repos[name]
		if !ok {
			fail(state, name, shiperr.NewForPackage(shiperr.Config, name, fmt.Errorf("no repository layout configured")).Error())
			if !opts.ContinueOnError {
				_ = persist(opts, state)
				return result, nil
			}
			state.Current = ""
			continue
		}

		if failMsg := runPackage(ctx, name, layout, p, dependents, published, deps, opts); failMsg != "" {
			fail(state, name, failMsg)
			if err := persist(opts, state); err != nil {
				return result, err
			}
			if !opts.ContinueOnError {
				return result, nil
			}
			state.Current = ""
			continue
		}

		vc, hasChange := p.VersionChanges[name]
		version := ""
		if hasChange {
			version = vc.To.String()
		}
		state.Completed = append(state.Completed, plan.CompletedEntry{Name: name, Version: version, Timestamp: now()})
		state.Current = ""
		if err := persist(opts, state); err != nil {
			return result, err
		}
	}

	if result.Ok() {
		if err := RemoveState(opts.StatePath); err != nil {
			return result, err
		}
	}

	return result, nil
}

// runPackage executes built -> published -> awaited -> cascaded for one
// package, returning a non-empty human message on failure.
func runPackage(ctx context.Context, name string, layout RepoLayout, p *plan.Plan, dependents map[string][]string, published map[string]string, deps Dependencies, opts Options) string {
	log := deps.Log
	if log == nil {
		log = logger.New(nopWriter{}, logger.LevelInfo, true)
	}
	pkgLog := log.WithPrefix(name)

	if !opts.Dry {
		if deps.Registry != nil {
			if err := deps.Registry.Install(ctx, layout.Dir); err != nil {
				pkgLog.Warn("install failed, cleaning registry cache and retrying", "error", err.Error())
				if cleanErr := deps.Registry.CacheClean(ctx); cleanErr != nil {
					return shiperr.NewForPackage(shiperr.Install, name, cleanErr).Error()
				}
				if err := deps.Registry.Install(ctx, layout.Dir); err != nil {
					return shiperr.NewForPackage(shiperr.Install, name, err).Error()
				}
			}
		}
		if deps.Build != nil {
			if err := deps.Build.Build(ctx, layout.Dir); err != nil {
				return shiperr.NewForPackage(shiperr.Build, name, err).Error()
			}
		}
	}
	pkgLog.Info("built")

	if !opts.Dry {
		if err := deps.Registry.Publish(ctx, layout.Dir); err != nil {
			return shiperr.NewForPackage(shiperr.Publish, name, err).Error()
		}
	}
	vc, hasChange := p.VersionChanges[name]
	newVersion := ""
	if hasChange {
		newVersion = vc.To.String()
	}
	published[name] = newVersion
	pkgLog.Info("published", "version", newVersion)

	if !opts.Dry && newVersion != "" {
		if err := registrymonitor.WaitFor(ctx, deps.Registry, name, newVersion, opts.MonitorOptions); err != nil {
			return shiperr.NewForPackage(shiperr.RegistryTimeout, name, err).Error()
		}
	}
	pkgLog.Info("awaited")

	if !opts.Dry {
		for _, dependentName := range dependents[name] {
			dependentLayout, ok := opts.Repos[dependentName]
			if !ok {
				continue
			}
			updates := updatesFor(p, dependentName, published)
			if len(updates) == 0 {
				continue
			}
			bump := "patch"
			if vc, ok := p.VersionChanges[dependentName]; ok {
				bump = vc.BumpType
			}
			if _, err := updater.Apply(ctx, deps.Filesystem, deps.Git, dependentLayout.Dir, dependentLayout.ManifestPath, dependentLayout.ChangesetDir, updates, opts.BumpStrategy, bump); err != nil {
				return shiperr.NewForPackage(shiperr.Manifest, dependentName, err).Error()
			}
		}
	}
	pkgLog.Info("cascaded")

	return ""
}

// updatesFor collects, for dependent, every already-published dependency
// version the plan says it needs to move to.
func updatesFor(p *plan.Plan, dependent string, published map[string]string) map[string]string {
	updates := map[string]string{}
	for _, du := range p.DependencyUpdates {
		if du.Dependent != dependent {
			continue
		}
		if version, ok := published[du.Dependency]; ok && version != "" {
			updates[du.Dependency] = version
		}
	}
	return updates
}

func fail(state *plan.State, name, message string) {
	state.Failed = append(state.Failed, plan.FailedEntry{Name: name, ErrorMessage: message, Timestamp: now()})
	state.Current = ""
}

func persist(opts Options, state *plan.State) error {
	if opts.Dry {
		return nil
	}
	return SaveState(opts.StatePath, state)
}

// loadOrInitState implements spec.md §4.8's resume semantics: a persisted
// state is rehydrated only if its universe of package names exactly
// matches this run's; any mismatch discards it with a warning and starts
// fresh.
func loadOrInitState(opts Options, p *plan.Plan, log *logger.Logger) (*plan.State, error) {
	currentUniverse := make(map[string]bool, len(p.PublishingOrder))
	for _, name := range p.PublishingOrder {
		currentUniverse[name] = true
	}

	if opts.Resume && !opts.Dry {
		persisted, found, err := LoadState(opts.StatePath)
		if err != nil {
			return nil, err
		}
		if found {
			if sameUniverse(persisted.Universe(), currentUniverse) {
				resumedAt := now()
				persisted.ResumedAt = &resumedAt
				return persisted, nil
			}
			// Mismatched universe: discarded with a ResumeMismatchError-kind
			// warning, not surfaced as fatal, per spec.md §7's classification
			// of ResumeMismatchError as recoverable.
			mismatch := shiperr.New(shiperr.ResumeMismatch, fmt.Errorf("persisted state universe does not match current package set"))
			log.Warn(mismatch.Error())
		}
	}

	return &plan.State{
		StartedAt: now(),
		Remaining: append([]string(nil), p.PublishingOrder...),
	}, nil
}

func sameUniverse(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func now() time.Time { return time.Now() }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
