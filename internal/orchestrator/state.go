package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/shipwright-release/shipwright/internal/plan"
)

// LoadState reads a persisted Publishing State from path with a shared file
// lock. A missing file is not an error: it reports (nil, false, nil) so the
// caller starts a fresh run.
func LoadState(path string) (*plan.State, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}

	fileLock := flock.New(path + ".lock")
	if err := fileLock.RLock(); err != nil {
		return nil, false, fmt.Errorf("acquire read lock on %s: %w", path, err)
	}
	defer func() { _ = fileLock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state file %s: %w", path, err)
	}

	var state plan.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return &state, true, nil
}

// SaveState writes state to path atomically (write-temp-then-rename) under
// an exclusive file lock.
func SaveState(path string, state *plan.State) error {
	fileLock := flock.New(path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("acquire write lock on %s: %w", path, err)
	}
	defer func() { _ = fileLock.Unlock() }()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", err)
	}
	return nil
}

// RemoveState deletes the persisted state file on clean completion. A
// missing file is not an error.
func RemoveState(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file %s: %w", path, err)
	}
	return nil
}
