// Package config discovers and loads a project's shipwright.yaml,
// delegating parsing and validation to pkg/config.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/shipwright-release/shipwright/internal/fileutil"
	"github.com/shipwright-release/shipwright/pkg/config"
)

// configNames are checked in order inside the .shipwright/ directory and
// then the project root, mirroring the teacher's own multi-format search.
var configNames = []string{
	"shipwright.yaml",
	"shipwright.yml",
	"shipwright.json",
	"shipwright.toml",
}

// FindConfig searches dir and its ancestors for a shipwright config file,
// preferring .shipwright/<name> over a root-level <name>.
func FindConfig(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			candidate := filepath.Join(dir, ".shipwright", name)
			if fileutil.PathExists(candidate) {
				return candidate, nil
			}
		}
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if fileutil.PathExists(candidate) {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("shipwright config not found in %s or parent directories", startDir)
}

// LoadFromDir finds and loads the config rooted at dir.
func LoadFromDir(dir string) (*config.Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// StatePath returns the persisted orchestrator state file location for a
// config loaded from configPath: state.json in the config file's own
// directory (.shipwright/state.json when the config lives in .shipwright/).
func StatePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "state.json")
}
