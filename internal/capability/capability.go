// Package capability defines the external-world interfaces the orchestrator,
// pre-flight, and dependency updater call through: git, the package
// registry, the filesystem, subprocess execution, and the build step. Every
// concrete implementation lives in its own file in this package; production
// code depends only on the interfaces so tests can substitute fakes.
package capability

import "context"

// Git is the subset of git operations the core needs against one repository
// working tree. No direct remote fetches are required from the core.
type Git interface {
	CurrentBranch(ctx context.Context, repoDir string) (string, error)
	CurrentCommit(ctx context.Context, repoDir string) (string, error)
	IsClean(ctx context.Context, repoDir string) (bool, error)
	ChangedFiles(ctx context.Context, repoDir string) ([]string, error)
	Checkout(ctx context.Context, repoDir, branch string) error
	Add(ctx context.Context, repoDir string, paths []string) error
	Commit(ctx context.Context, repoDir, message string) (string, error)
	Tag(ctx context.Context, repoDir, name, message string) error
	PushTag(ctx context.Context, repoDir, name string) error
	// RemoteReachable lists the configured "origin" remote's refs without
	// fetching any objects, satisfying pre-flight's one-repo-sampled
	// connectivity check without requiring a full fetch from the core.
	RemoteReachable(ctx context.Context, repoDir string) error
}

// AuthIdentity is the identity captured by a successful Registry.CheckAuth,
// reported back in pre-flight results for operator visibility.
type AuthIdentity struct {
	Name  string
	Email string
}

// Registry is the package registry capability: publishing, availability
// polling, and the credential/reachability checks pre-flight performs once
// globally rather than per repository.
type Registry interface {
	Publish(ctx context.Context, packageDir string) error
	IsAvailable(ctx context.Context, name, version string) (bool, error)
	CheckAuth(ctx context.Context) (ok bool, identity *AuthIdentity, err error)
	CheckReachable(ctx context.Context) error
	Install(ctx context.Context, repoDir string) error
	CacheClean(ctx context.Context) error
}

// Build runs a repository's build step during pre-flight's optional
// buildability check and during the orchestrator's selected->built
// transition.
type Build interface {
	Build(ctx context.Context, repoDir string) error
}

// Filesystem is the manifest and changeset-record read/write surface the
// dependency updater uses, kept as an interface so tests can run against an
// in-memory tree instead of a real one.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm uint32) error
	MkdirAll(path string) error
	Glob(pattern string) ([]string, error)
}

// Subprocess runs an external command in a working directory and returns
// its standard output, the thin seam Registry and Build implementations run
// git and build tooling through.
type Subprocess interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}
