// Package plan holds the shared data structures produced and consumed by
// the graph, planner, preflight, updater, and orchestrator packages: the
// package/dependency model, the Publishing Plan, and the Publishing State.
package plan

import (
	"time"

	"github.com/shipwright-release/shipwright/pkg/semver"
)

// DependencyType classifies a declared dependency. Production and peer
// dependencies participate in the publishing order and propagate breaking
// changes; development dependencies do neither.
type DependencyType string

const (
	Production  DependencyType = "production"
	Peer        DependencyType = "peer"
	Development DependencyType = "development"
)

// Participates reports whether this dependency type takes part in
// publishing order and breaking-change propagation.
func (d DependencyType) Participates() bool {
	return d == Production || d == Peer
}

// Dependency is one declared dependency edge: a range string and its type.
type Dependency struct {
	Range string
	Type  DependencyType
}

// Package describes one sibling repository's manifest contents as loaded
// by the core.
type Package struct {
	Name         string
	Version      semver.Version
	Dependencies map[string]Dependency // dependency name -> range/type
	Publishable  bool                  // false if the manifest is marked private
}

// RepositoryState is a tagged variant recording whether a configured
// sibling repository was actually found on disk during analyze. Exactly
// one of Resolved or Unresolved is non-nil.
type RepositoryState struct {
	Resolved   *ResolvedRepository
	Unresolved *UnresolvedRepository
}

type ResolvedRepository struct {
	Path string
}

type UnresolvedRepository struct {
	Reason string
}

// BumpSource tags why a package's version is changing.
type BumpSource string

const (
	SourcePlain     BumpSource = "plain"
	SourceAuto      BumpSource = "auto_generated"
	SourceEscalated BumpSource = "escalated"
)

// VersionChange is the tagged variant for an entry in a Plan's
// VersionChanges map, replacing the optional-flag shape
// ({has_changesets, will_generate_changeset?, needs_bump_escalation?, ...})
// with an explicit sum over how the change came to be. Flat boolean
// accessors are provided for callers that want the external interface's
// flat view; they are methods only, so JSON encoding of a VersionChange
// carries Source rather than those booleans.
type VersionChange struct {
	Package      string
	From         semver.Version
	To           semver.Version
	BumpType     string // major | minor | patch
	Breaking     bool
	Source       BumpSource
	ExistingBump string // set only when Source == SourceEscalated
	RequiredBump string // set only when Source == SourceEscalated
}

// HasChangesets reports whether the package had its own explicit changeset.
func (vc VersionChange) HasChangesets() bool {
	return vc.Source == SourcePlain || vc.Source == SourceEscalated
}

// WillGenerateChangeset reports whether no explicit changeset existed and
// one will be synthesised because of cascading dependency updates.
func (vc VersionChange) WillGenerateChangeset() bool {
	return vc.Source == SourceAuto
}

// NeedsBumpEscalation reports whether an existing changeset's bump was
// raised because of cascading dependency updates.
func (vc VersionChange) NeedsBumpEscalation() bool {
	return vc.Source == SourceEscalated
}

// DependencyUpdate is one row of a Plan's DependencyUpdates: a dependent
// repository's single dependency moving to a new version.
type DependencyUpdate struct {
	Dependent       string
	Dependency      string
	NewVersion      semver.Version
	Type            DependencyType
	CausesRepublish bool
}

// Plan is the Version Planner's output (spec.md §3, "Publishing Plan").
type Plan struct {
	PublishingOrder  []string
	VersionChanges   map[string]VersionChange      // keyed by package name
	DependencyUpdates []DependencyUpdate
	BreakingCascades map[string][]string           // package -> direct dependents forced to republish
	Warnings         []string
	Info             []string
	Errors           []string
}

// Ok reports whether the plan has no errors (a production/peer cycle or a
// sort failure).
func (p *Plan) Ok() bool { return len(p.Errors) == 0 }

// CompletedEntry is one entry of a Publishing State's Completed list.
type CompletedEntry struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// FailedEntry is one entry of a Publishing State's Failed list.
type FailedEntry struct {
	Name         string    `json:"name"`
	ErrorMessage string    `json:"error_message"`
	Timestamp    time.Time `json:"timestamp"`
}

// State is the Publishing Orchestrator's persistable state (spec.md §3,
// "Publishing State"). It is flushed to disk after every per-package
// transition.
type State struct {
	StartedAt  time.Time        `json:"started_at"`
	ResumedAt  *time.Time       `json:"resumed_at,omitempty"`
	Completed  []CompletedEntry `json:"completed"`
	Failed     []FailedEntry    `json:"failed"`
	Remaining  []string         `json:"remaining"`
	Current    string           `json:"current"`
}

// Universe returns the set of package names this state accounts for:
// completed ∪ failed ∪ remaining ∪ {current}.
func (s *State) Universe() map[string]bool {
	u := make(map[string]bool)
	for _, c := range s.Completed {
		u[c.Name] = true
	}
	for _, f := range s.Failed {
		u[f.Name] = true
	}
	for _, r := range s.Remaining {
		u[r] = true
	}
	if s.Current != "" {
		u[s.Current] = true
	}
	return u
}
