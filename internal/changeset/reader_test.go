package changeset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestReadRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		content := "---\npackages:\n  a: minor\n  b: patch\n---\n\nSome summary.\n"
		record := ReadRecord([]byte(content))
		assert.Equal(t, map[string]string{"a": "minor", "b": "patch"}, record.Packages)
		assert.Equal(t, "Some summary.", record.Summary)
	})

	t.Run("malformed header is skipped, not an error", func(t *testing.T) {
		content := "not frontmatter at all"
		record := ReadRecord([]byte(content))
		assert.Empty(t, record.Packages)
	})

	t.Run("unknown bump kind is dropped", func(t *testing.T) {
		content := "---\npackages:\n  a: urgent\n  b: minor\n---\n"
		record := ReadRecord([]byte(content))
		assert.Equal(t, map[string]string{"b": "minor"}, record.Packages)
	})
}

func TestReadDir(t *testing.T) {
	t.Run("aggregates highest bump across records", func(t *testing.T) {
		dir := t.TempDir()
		writeRecord(t, dir, "one.md", "---\npackages:\n  a: patch\n---\n")
		writeRecord(t, dir, "two.md", "---\npackages:\n  a: major\n  b: minor\n---\n")
		writeRecord(t, dir, "ignored.txt", "not a changeset")

		analysis, err := ReadDir(dir)
		require.NoError(t, err)
		assert.True(t, analysis.HasChangesets)
		assert.Equal(t, map[string]string{"a": "major", "b": "minor"}, analysis.PerPackageBumps)
	})

	t.Run("missing directory means no changesets", func(t *testing.T) {
		analysis, err := ReadDir(filepath.Join(t.TempDir(), "does-not-exist"))
		require.NoError(t, err)
		assert.False(t, analysis.HasChangesets)
		assert.Empty(t, analysis.PerPackageBumps)
	})

	t.Run("record with no valid package line is discarded", func(t *testing.T) {
		dir := t.TempDir()
		writeRecord(t, dir, "empty.md", "---\nsomething: else\n---\n")

		analysis, err := ReadDir(dir)
		require.NoError(t, err)
		assert.False(t, analysis.HasChangesets)
	})
}

func TestIsHigherPriority(t *testing.T) {
	assert.True(t, IsHigherPriority("major", "minor"))
	assert.True(t, IsHigherPriority("minor", "patch"))
	assert.False(t, IsHigherPriority("patch", "minor"))
	assert.False(t, IsHigherPriority("patch", "patch"))
}
