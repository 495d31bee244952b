// Package updater rewrites a dependent repository's manifest after one or
// more of its siblings publish a new version, synthesises a changeset
// record describing the rewrite, and stages and commits both. Grounded on
// santosr2-uptool's npm integration's manifest read/rewrite idiom, writing
// records in the format internal/changeset reads.
package updater

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/shipwright-release/shipwright/internal/capability"
	"github.com/shipwright-release/shipwright/internal/planner"
)

// FixedCommitMessage is the only commit message this component ever uses;
// staging and committing are its sole git mutations.
const FixedCommitMessage = "update dependencies after publishing"

var depTables = []string{"production", "development", "peer"}

// Result reports what Apply changed, for callers that want to log or dry-run.
type Result struct {
	Changed          bool
	Updated          map[string]string // dependency name -> new range
	ManifestDiff     string
	ChangesetPath    string
	CommitHash       string
}

// Apply rewrites repoDir's manifest at manifestPath so every dependency
// named in updates points at its new version using the existing prefix (or
// strategy, for a wildcard/bare range), writes a changeset describing the
// rewrite whenever any range changed, and stages and commits both. Nothing
// is written when no range changed.
func Apply(ctx context.Context, fs capability.Filesystem, git capability.Git, repoDir, manifestPath, changesetDir string, updates map[string]string, strategy, bump string) (*Result, error) {
	raw, err := fs.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}

	manifest, err := ParseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", manifestPath, err)
	}

	result := &Result{Updated: map[string]string{}}

	for _, depType := range depTables {
		table := manifest.table(depType)
		for name, existingRange := range table {
			newVersion, ok := updates[name]
			if !ok {
				continue
			}
			prefix := planner.GetUpdatePrefix(existingRange, strategy)
			newRange := prefix + newVersion
			if newRange == existingRange {
				continue
			}
			table[name] = newRange
			result.Updated[name] = newRange
			result.Changed = true
		}
	}

	if !result.Changed {
		return result, nil
	}

	newRaw, err := manifest.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	result.ManifestDiff = diff(manifestPath, raw, newRaw)

	if err := fs.WriteFile(manifestPath, newRaw, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest %s: %w", manifestPath, err)
	}

	changesetPath, err := writeChangeset(fs, changesetDir, manifest.Name, bump, result.Updated)
	if err != nil {
		return nil, fmt.Errorf("write changeset: %w", err)
	}
	result.ChangesetPath = changesetPath

	if git != nil {
		if err := git.Add(ctx, repoDir, []string{manifestPath, changesetPath}); err != nil {
			return nil, fmt.Errorf("stage updated files: %w", err)
		}
		hash, err := git.Commit(ctx, repoDir, FixedCommitMessage)
		if err != nil {
			return nil, fmt.Errorf("commit updated files: %w", err)
		}
		result.CommitHash = hash
	}

	return result, nil
}

// diff renders a unified diff of the manifest rewrite for
// Result.ManifestDiff, using go-difflib instead of a hand-rolled line
// comparator.
func diff(path string, before, after []byte) string {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}
	return text
}

// writeChangeset synthesises a changeset record describing a republish
// cascade, in the same nested "packages:" frontmatter shape the changeset
// reader consumes, declaring bump as packageName's own required bump.
func writeChangeset(fs capability.Filesystem, changesetDir, packageName, bump string, updated map[string]string) (string, error) {
	if err := fs.MkdirAll(changesetDir); err != nil {
		return "", err
	}
	if bump == "" {
		bump = "patch"
	}

	names := make([]string, 0, len(updated))
	for name := range updated {
		names = append(names, name)
	}
	sort.Strings(names)

	var header bytes.Buffer
	header.WriteString("---\n")
	header.WriteString("packages:\n")
	header.WriteString(fmt.Sprintf("  %s: %s\n", packageName, bump))
	header.WriteString("---\n\n")

	var body bytes.Buffer
	body.WriteString("Update dependencies after publishing:\n\n")
	for _, name := range names {
		body.WriteString(fmt.Sprintf("- %s -> %s\n", name, updated[name]))
	}

	id, err := randomID()
	if err != nil {
		return "", err
	}
	path := filepath.Join(changesetDir, fmt.Sprintf("auto-%s-%s.md", packageName, id))
	content := append(header.Bytes(), body.Bytes()...)
	if err := fs.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// randomID generates a short hex identifier for a synthesised changeset
// filename.
func randomID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
