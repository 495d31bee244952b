package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// GitHubRegistry implements Registry against the GitHub Releases API,
// generalizing internal/github/client.go's hand-rolled JSON client
// (resolve-token-from-env-or-literal, a do/decodeResponse pair) from
// "GitHub release management for one repository" to the registry surface
// spec.md §6 names. Publish adapts internal/github/release.go's
// ReleasePublisher: tag the commit, push the tag, then create the release.
type GitHubRegistry struct {
	owner      string
	repo       string
	token      string
	httpClient *http.Client
	baseURL    string
	subprocess Subprocess
}

// NewGitHubRegistry resolves tokenSpec the same way the teacher's
// NewClient does: "env:VAR_NAME" reads an environment variable, anything
// else is taken as a literal token, and an empty spec falls back to
// GITHUB_TOKEN / GH_TOKEN.
func NewGitHubRegistry(owner, repo, tokenSpec string, subprocess Subprocess) (*GitHubRegistry, error) {
	token, err := resolveToken(tokenSpec)
	if err != nil {
		return nil, err
	}
	return &GitHubRegistry{
		owner:      owner,
		repo:       repo,
		token:      token,
		httpClient: http.DefaultClient,
		baseURL:    "https://api.github.com",
		subprocess: subprocess,
	}, nil
}

func resolveToken(spec string) (string, error) {
	if spec == "" {
		for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
			if token := os.Getenv(envVar); token != "" {
				return token, nil
			}
		}
		return "", fmt.Errorf("no GitHub token provided; set registry.token (e.g. \"env:GITHUB_TOKEN\") or set the GITHUB_TOKEN environment variable")
	}
	if after, ok := strings.CutPrefix(spec, "env:"); ok {
		token := os.Getenv(after)
		if token == "" {
			return "", fmt.Errorf("environment variable %s is not set", after)
		}
		return token, nil
	}
	return spec, nil
}

func (r *GitHubRegistry) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	url := r.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github API error (HTTP %d): %s", resp.StatusCode, string(body))
	}
	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

type releaseManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func readReleaseManifest(packageDir string) (*releaseManifest, error) {
	data, err := os.ReadFile(filepath.Join(packageDir, "shipwright.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m releaseManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func releaseTag(m *releaseManifest) string {
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

// Publish tags packageDir's current commit with "name@version" read from
// its manifest, pushes the tag, then creates a GitHub release for it.
func (r *GitHubRegistry) Publish(ctx context.Context, packageDir string) error {
	manifest, err := readReleaseManifest(packageDir)
	if err != nil {
		return err
	}
	tag := releaseTag(manifest)

	if _, err := r.subprocess.Run(ctx, packageDir, "git", "tag", tag); err != nil {
		return fmt.Errorf("create tag %s: %w", tag, err)
	}
	if _, err := r.subprocess.Run(ctx, packageDir, "git", "push", "origin", tag); err != nil {
		return fmt.Errorf("push tag %s: %w", tag, err)
	}

	reqBody := map[string]any{
		"tag_name":   tag,
		"name":       fmt.Sprintf("%s v%s", manifest.Name, manifest.Version),
		"body":       fmt.Sprintf("Release %s", tag),
		"draft":      false,
		"prerelease": false,
	}
	resp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/releases", r.owner, r.repo), reqBody)
	if err != nil {
		return fmt.Errorf("create release %s: %w", tag, err)
	}
	return decodeResponse(resp, nil)
}

// IsAvailable reports whether a release tagged "name@version" exists. A 404
// here is GitHub's equivalent of npm's ETARGET stale-cache response: "not
// yet available", not a hard error, satisfying the registry monitor's
// stale-response tolerance without needing a distinct error-code check.
func (r *GitHubRegistry) IsAvailable(ctx context.Context, name, version string) (bool, error) {
	tag := fmt.Sprintf("%s@%s", name, version)
	resp, err := r.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/releases/tags/%s", r.owner, r.repo, tag), nil)
	if err != nil {
		return false, fmt.Errorf("check release %s: %w", tag, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected github status %d for release %s", resp.StatusCode, tag)
	}
}

// IsETarget reports whether output is an npm-style JSON error payload whose
// code is ETARGET ("no matching version"), the stale-cache reply that means
// "not yet available" rather than a hard failure. Output that is not JSON
// reports false.
func IsETarget(output []byte) bool {
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return false
	}
	return payload.Error.Code == "ETARGET"
}

func (r *GitHubRegistry) CheckAuth(ctx context.Context) (bool, *AuthIdentity, error) {
	resp, err := r.do(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return false, nil, nil
	}
	var user struct {
		Login string `json:"login"`
	}
	if err := decodeResponse(resp, &user); err != nil || user.Login == "" {
		return false, nil, nil
	}
	return true, &AuthIdentity{Name: user.Login}, nil
}

func (r *GitHubRegistry) CheckReachable(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("github unreachable: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// Install fetches tags so a dependent's next build sees newly published
// releases; GitHub Releases has no package-manager install step of its own.
func (r *GitHubRegistry) Install(ctx context.Context, repoDir string) error {
	_, err := r.subprocess.Run(ctx, repoDir, "git", "fetch", "--tags")
	return err
}

// CacheClean is a no-op: there is no local registry cache to invalidate
// against the GitHub Releases API, unlike npm's on-disk metadata cache.
func (r *GitHubRegistry) CacheClean(context.Context) error { return nil }
