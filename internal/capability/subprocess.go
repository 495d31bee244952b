package capability

import (
	"context"
	"fmt"
	"os/exec"
)

// OSSubprocess runs commands via os/exec, matching the teacher's own direct
// exec.Command use in internal/github/release.go's tag-verification helpers
// rather than reaching for a process-execution library the corpus never
// imports.
type OSSubprocess struct{}

func (OSSubprocess) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s %v: %w: %s", name, args, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%s %v: %w", name, args, err)
	}
	return out, nil
}
