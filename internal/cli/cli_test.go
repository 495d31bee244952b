package cli

import (
	"errors"
	"testing"

	"github.com/shipwright-release/shipwright/internal/changeset"
	pkgconfig "github.com/shipwright-release/shipwright/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	files map[string][]byte
}

func newFakeFS() *fakeFS { return &fakeFS{files: map[string][]byte{}} }

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return data, nil
}
func (f *fakeFS) WriteFile(path string, data []byte, _ uint32) error {
	f.files[path] = data
	return nil
}
func (f *fakeFS) MkdirAll(string) error         { return nil }
func (f *fakeFS) Glob(string) ([]string, error) { return nil, nil }

const coreManifest = `{"name":"core","version":"1.0.0"}`
const widgetsManifest = `{"name":"widgets","version":"2.0.0","dependencies":{"core":"^1.0.0"}}`

func baseConfig() *pkgconfig.Config {
	return &pkgconfig.Config{
		Repos: []pkgconfig.RepoEntry{
			{URL: "github.com/acme/core", Dir: "core"},
			{URL: "github.com/acme/widgets", Dir: "widgets"},
		},
		BumpStrategy: pkgconfig.BumpStrategyCaret,
	}
}

func TestAnalyze_BuildsGraphFromManifests(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repos/core/shipwright.json"] = []byte(coreManifest)
	fs.files["/repos/widgets/shipwright.json"] = []byte(widgetsManifest)

	result, err := Analyze(baseConfig(), "/repos", fs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Graph.GetNodeCount())
	assert.Empty(t, result.Breaking)

	dependents := result.Graph.GetDependentsOf("core", true)
	assert.Equal(t, []string{"widgets"}, dependents)
}

func TestAnalyze_UnreadableManifestMarksRepoUnresolved(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repos/core/shipwright.json"] = []byte(coreManifest)
	// widgets manifest deliberately missing.

	result, err := Analyze(baseConfig(), "/repos", fs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Graph.GetNodeCount())
	require.Contains(t, result.States, "github.com/acme/widgets")
	assert.NotNil(t, result.States["github.com/acme/widgets"].Unresolved)
}

func TestAggregateBumps_HighestWinsAcrossRepositories(t *testing.T) {
	bumps := aggregateBumps(map[string]changeset.Analysis{
		"core-repo":    {PerPackageBumps: map[string]string{"core": "patch"}},
		"widgets-repo": {PerPackageBumps: map[string]string{"core": "minor", "widgets": "major"}},
	})
	assert.Equal(t, "minor", bumps["core"])
	assert.Equal(t, "major", bumps["widgets"])
}

func TestPlan_NoChangesetsProducesNoVersionChanges(t *testing.T) {
	fs := newFakeFS()
	fs.files["/repos/core/shipwright.json"] = []byte(coreManifest)
	fs.files["/repos/widgets/shipwright.json"] = []byte(widgetsManifest)

	_, p, err := Plan(baseConfig(), "/repos", fs)
	require.NoError(t, err)
	assert.Empty(t, p.VersionChanges)
}
