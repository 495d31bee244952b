package capability

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGit implements Git against a real working tree via go-git.
type GoGit struct{}

// NewGoGit returns a Git capability backed by go-git.
func NewGoGit() *GoGit { return &GoGit{} }

func (g *GoGit) open(repoDir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(repoDir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", repoDir, err)
	}
	return repo, nil
}

func (g *GoGit) CurrentBranch(_ context.Context, repoDir string) (string, error) {
	repo, err := g.open(repoDir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached, not on a branch")
	}
	return head.Name().Short(), nil
}

func (g *GoGit) CurrentCommit(_ context.Context, repoDir string) (string, error) {
	repo, err := g.open(repoDir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func (g *GoGit) IsClean(_ context.Context, repoDir string) (bool, error) {
	repo, err := g.open(repoDir)
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("read worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("read status: %w", err)
	}
	return status.IsClean(), nil
}

func (g *GoGit) ChangedFiles(_ context.Context, repoDir string) ([]string, error) {
	repo, err := g.open(repoDir)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("read worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	files := make([]string, 0, len(status))
	for path := range status {
		files = append(files, path)
	}
	return files, nil
}

func (g *GoGit) Checkout(_ context.Context, repoDir, branch string) error {
	repo, err := g.open(repoDir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("read worktree: %w", err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch)}); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

func (g *GoGit) Add(_ context.Context, repoDir string, paths []string) error {
	repo, err := g.open(repoDir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("read worktree: %w", err)
	}
	for _, p := range paths {
		rel, err := filepath.Rel(repoDir, p)
		if err != nil {
			rel = p
		}
		rel = strings.ReplaceAll(rel, string(filepath.Separator), "/")
		if _, err := wt.Add(rel); err != nil {
			return fmt.Errorf("stage %s: %w", rel, err)
		}
	}
	return nil
}

func (g *GoGit) Commit(_ context.Context, repoDir, message string) (string, error) {
	repo, err := g.open(repoDir)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("read worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	if status.IsClean() {
		return "", fmt.Errorf("nothing staged to commit")
	}
	sig := &object.Signature{Name: "Shipwright", Email: "shipwright@local", When: time.Now()}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: sig})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

func (g *GoGit) Tag(_ context.Context, repoDir, name, message string) error {
	repo, err := g.open(repoDir)
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("read HEAD: %w", err)
	}
	if _, err := repo.Tag(name); err == nil {
		return fmt.Errorf("tag %s already exists", name)
	}
	sig := &object.Signature{Name: "Shipwright", Email: "shipwright@local", When: time.Now()}
	_, err = repo.CreateTag(name, head.Hash(), &gogit.CreateTagOptions{Tagger: sig, Message: message})
	if err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}
	return nil
}

func (g *GoGit) RemoteReachable(_ context.Context, repoDir string) error {
	repo, err := g.open(repoDir)
	if err != nil {
		return err
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("no origin remote: %w", err)
	}
	if _, err := remote.List(&gogit.ListOptions{}); err != nil {
		return fmt.Errorf("origin unreachable: %w", err)
	}
	return nil
}

func (g *GoGit) PushTag(_ context.Context, repoDir, name string) error {
	repo, err := g.open(repoDir)
	if err != nil {
		return err
	}
	refspec := gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", name, name))
	err = repo.Push(&gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refspec},
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return fmt.Errorf("push tag %s: %w", name, err)
	}
	return nil
}
