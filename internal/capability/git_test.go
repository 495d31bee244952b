package capability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("hello\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	return dir
}

func TestGoGit_CurrentBranchAndCommit(t *testing.T) {
	dir := initRepo(t)
	g := NewGoGit()
	ctx := context.Background()

	_, err := g.Commit(ctx, dir, "initial commit")
	require.NoError(t, err)

	branch, err := g.CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.NotEmpty(t, branch)

	commit, err := g.CurrentCommit(ctx, dir)
	require.NoError(t, err)
	assert.NotEmpty(t, commit)
}

func TestGoGit_IsCleanAndAdd(t *testing.T) {
	dir := initRepo(t)
	g := NewGoGit()
	ctx := context.Background()

	_, err := g.Commit(ctx, dir, "initial commit")
	require.NoError(t, err)

	clean, err := g.IsClean(ctx, dir)
	require.NoError(t, err)
	assert.True(t, clean)

	newFile := filepath.Join(dir, "CHANGES.md")
	require.NoError(t, os.WriteFile(newFile, []byte("v2\n"), 0o644))

	clean, err = g.IsClean(ctx, dir)
	require.NoError(t, err)
	assert.False(t, clean)

	require.NoError(t, g.Add(ctx, dir, []string{newFile}))

	changed, err := g.ChangedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, changed, "CHANGES.md")
}

func TestGoGit_CommitRequiresStagedChanges(t *testing.T) {
	dir := initRepo(t)
	g := NewGoGit()
	ctx := context.Background()

	_, err := g.Commit(ctx, dir, "initial commit")
	require.NoError(t, err)

	_, err = g.Commit(ctx, dir, "nothing to commit")
	assert.Error(t, err)
}

func TestGoGit_TagLifecycle(t *testing.T) {
	dir := initRepo(t)
	g := NewGoGit()
	ctx := context.Background()

	_, err := g.Commit(ctx, dir, "initial commit")
	require.NoError(t, err)

	require.NoError(t, g.Tag(ctx, dir, "v1.0.0", "release v1.0.0"))

	err = g.Tag(ctx, dir, "v1.0.0", "duplicate")
	assert.Error(t, err)
}

func TestIsETarget(t *testing.T) {
	assert.True(t, IsETarget([]byte(`{"error":{"code":"ETARGET"}}`)))
	assert.False(t, IsETarget([]byte(`{"error":{"code":"E404"}}`)))
	assert.False(t, IsETarget([]byte(`not json`)))
}
