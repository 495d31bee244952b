package updater

import (
	"context"
	"testing"

	"github.com/shipwright-release/shipwright/internal/changeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, assertErr(path)
	}
	return data, nil
}

func (f *fakeFS) WriteFile(path string, data []byte, _ uint32) error {
	f.files[path] = data
	return nil
}

func (f *fakeFS) MkdirAll(path string) error {
	f.dirs[path] = true
	return nil
}

func (f *fakeFS) Glob(pattern string) ([]string, error) {
	var matches []string
	for path := range f.files {
		matches = append(matches, path)
	}
	_ = pattern
	return matches, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func assertErr(path string) error { return notFoundErr(path) }

type fakeGit struct {
	staged    []string
	committed string
	commitMsg string
}

func (f *fakeGit) CurrentBranch(context.Context, string) (string, error)  { return "main", nil }
func (f *fakeGit) CurrentCommit(context.Context, string) (string, error)  { return "abc123", nil }
func (f *fakeGit) IsClean(context.Context, string) (bool, error)          { return true, nil }
func (f *fakeGit) ChangedFiles(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeGit) Checkout(context.Context, string, string) error         { return nil }
func (f *fakeGit) Add(_ context.Context, _ string, paths []string) error {
	f.staged = append(f.staged, paths...)
	return nil
}
func (f *fakeGit) Commit(_ context.Context, _ string, message string) (string, error) {
	f.commitMsg = message
	f.committed = "abc456"
	return f.committed, nil
}
func (f *fakeGit) Tag(context.Context, string, string, string) error         { return nil }
func (f *fakeGit) PushTag(context.Context, string, string) error             { return nil }
func (f *fakeGit) RemoteReachable(context.Context, string) error             { return nil }

const manifestJSON = `{
	"name": "consumer",
	"version": "1.0.0",
	"dependencies": {
		"core": "^1.0.0"
	},
	"devDependencies": {
		"tooling": "~2.0.0"
	}
}
`

func TestApply_RewritesMatchingDependency(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repo/package.json"] = []byte(manifestJSON)
	git := &fakeGit{}

	result, err := Apply(context.Background(), fs, git, "/repo", "/repo/package.json", "/repo/.changesets", map[string]string{"core": "1.1.0"}, "caret", "minor")
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "^1.1.0", result.Updated["core"])
	assert.NotEmpty(t, result.ChangesetPath)
	assert.NotEmpty(t, result.ManifestDiff)

	manifest, err := ParseManifest(fs.files["/repo/package.json"])
	require.NoError(t, err)
	assert.Equal(t, "^1.1.0", manifest.Production["core"])
	assert.Equal(t, "~2.0.0", manifest.Development["tooling"], "unrelated dependency untouched")

	assert.Contains(t, git.staged, "/repo/package.json")
	assert.Contains(t, git.staged, result.ChangesetPath)
	assert.Equal(t, FixedCommitMessage, git.commitMsg)
	assert.NotEmpty(t, git.committed)
}

func TestApply_NoMatchingDependencyIsNoop(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repo/package.json"] = []byte(manifestJSON)
	git := &fakeGit{}

	result, err := Apply(context.Background(), fs, git, "/repo", "/repo/package.json", "/repo/.changesets", map[string]string{"unrelated": "9.9.9"}, "caret", "patch")
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.ChangesetPath)
	assert.Equal(t, manifestJSON, string(fs.files["/repo/package.json"]))
	assert.Empty(t, git.staged)
}

func TestApply_SameVersionIsNoop(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repo/package.json"] = []byte(manifestJSON)
	git := &fakeGit{}

	result, err := Apply(context.Background(), fs, git, "/repo", "/repo/package.json", "/repo/.changesets", map[string]string{"core": "1.0.0"}, "caret", "patch")
	require.NoError(t, err)

	assert.False(t, result.Changed)
}

func TestApply_ChangesetRoundTripsThroughReader(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repo/package.json"] = []byte(manifestJSON)
	git := &fakeGit{}

	result, err := Apply(context.Background(), fs, git, "/repo", "/repo/package.json", "/repo/.changesets", map[string]string{"core": "1.1.0"}, "caret", "minor")
	require.NoError(t, err)
	require.NotEmpty(t, result.ChangesetPath)

	record := changeset.ReadRecord(fs.files[result.ChangesetPath])
	assert.Equal(t, "minor", record.Packages["consumer"])
}

func TestApply_PreservesExistingPrefix(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repo/package.json"] = []byte(manifestJSON)
	git := &fakeGit{}

	result, err := Apply(context.Background(), fs, git, "/repo", "/repo/package.json", "/repo/.changesets", map[string]string{"tooling": "2.1.0"}, "caret", "patch")
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "~2.1.0", result.Updated["tooling"])
}
