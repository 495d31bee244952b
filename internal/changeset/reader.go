// Package changeset reads pending-bump records from a repository's
// changeset directory and aggregates them into a single per-package bump
// requirement.
//
// A record is a markdown file with a YAML frontmatter header mapping
// package names to bump kinds, followed by free-form summary text:
//
//	---
//	packages:
//	  some-package: minor
//	---
//
//	Added a new widget.
//
// This mirrors the consignment record format shipwright's changeset
// directories use, parsed the same way: github.com/adrg/frontmatter splits
// the header from the body, gopkg.in/yaml.v3 decodes the header.
package changeset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
)

// Bump kind priority, highest wins when multiple records target one package.
var priority = map[string]int{
	"major": 3,
	"minor": 2,
	"patch": 1,
}

// IsHigherPriority reports whether bump kind a outranks bump kind b.
// Unknown kinds have priority 0 and never outrank a recognised kind.
func IsHigherPriority(a, b string) bool {
	return priority[a] > priority[b]
}

// Record is a single parsed changeset file.
type Record struct {
	Packages map[string]string // package name -> bump kind
	Summary  string
}

// Analysis is one repository's aggregated changeset state (spec.md §4.2).
type Analysis struct {
	HasChangesets   bool
	PerPackageBumps map[string]string
}

type recordHeader struct {
	Packages map[string]string `yaml:"packages"`
}

// ReadRecord parses a single changeset file's content. It never fails: a
// malformed header yields a zero Record, and entries with an empty name or
// an unknown bump kind are dropped, so a record with no valid package line
// comes back with an empty Packages map. Per spec.md §4.2, this leniency is
// required so an unrelated file in the changeset directory cannot abort a
// run.
func ReadRecord(content []byte) Record {
	var header recordHeader
	body, err := frontmatter.Parse(bytes.NewReader(content), &header)
	if err != nil {
		return Record{}
	}

	packages := make(map[string]string)
	for name, kind := range header.Packages {
		name = strings.TrimSpace(name)
		kind = strings.TrimSpace(kind)
		if name == "" {
			continue
		}
		if _, known := priority[kind]; !known {
			continue
		}
		packages[name] = kind
	}

	return Record{Packages: packages, Summary: strings.TrimSpace(string(body))}
}

// ReadDir analyzes every changeset record file (*.md) in dir, aggregating
// per-package bumps with highest-wins precedence across records. A missing
// directory is treated as "no changesets", not an error.
func ReadDir(dir string) (Analysis, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Analysis{PerPackageBumps: map[string]string{}}, nil
		}
		return Analysis{}, fmt.Errorf("reading changeset directory %s: %w", dir, err)
	}

	bumps := make(map[string]string)
	hasAny := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return Analysis{}, fmt.Errorf("reading changeset file %s: %w", entry.Name(), err)
		}

		record := ReadRecord(content)
		if len(record.Packages) == 0 {
			continue
		}
		hasAny = true

		for name, kind := range record.Packages {
			if existing, ok := bumps[name]; !ok || IsHigherPriority(kind, existing) {
				bumps[name] = kind
			}
		}
	}

	return Analysis{HasChangesets: hasAny, PerPackageBumps: bumps}, nil
}
