package capability

import "context"

// CommandBuild runs a configured command (e.g. "make build", "go build
// ./...") as a repository's build step, grounded on the same direct
// os/exec pattern internal/github/release.go uses for its git
// verification helpers rather than a build-orchestration library.
type CommandBuild struct {
	Subprocess Subprocess
	Command    []string
}

// NewCommandBuild defaults to "make build" when command is empty.
func NewCommandBuild(subprocess Subprocess, command ...string) *CommandBuild {
	if len(command) == 0 {
		command = []string{"make", "build"}
	}
	return &CommandBuild{Subprocess: subprocess, Command: command}
}

func (b *CommandBuild) Build(ctx context.Context, repoDir string) error {
	_, err := b.Subprocess.Run(ctx, repoDir, b.Command[0], b.Command[1:]...)
	return err
}
