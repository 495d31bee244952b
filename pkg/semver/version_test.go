package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{name: "valid standard version", input: "1.2.3", want: Version{Major: 1, Minor: 2, Patch: 3}},
		{name: "valid v-prefixed version", input: "v1.2.3", want: Version{Major: 1, Minor: 2, Patch: 3}},
		{name: "zero version", input: "0.0.0", want: Version{}},
		{name: "empty string means unpublished", input: "", want: Version{}},
		{name: "latest means unpublished", input: "latest", want: Version{}},
		{name: "prerelease", input: "1.2.3-alpha.1", want: Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "alpha.1"}},
		{name: "build metadata", input: "1.2.3+build.5", want: Version{Major: 1, Minor: 2, Patch: 3, Build: "build.5"}},
		{name: "prerelease and build", input: "1.2.3-rc.1+exp.sha.5114f85", want: Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "rc.1", Build: "exp.sha.5114f85"}},
		{name: "invalid format", input: "1.2", wantErr: true},
		{name: "non-numeric", input: "a.b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "equal", a: "1.0.0", b: "1.0.0", want: 0},
		{name: "major differs", a: "2.0.0", b: "1.9.9", want: 1},
		{name: "minor differs", a: "1.1.0", b: "1.2.0", want: -1},
		{name: "patch differs", a: "1.0.1", b: "1.0.0", want: 1},
		{name: "no prerelease beats prerelease", a: "1.0.0", b: "1.0.0-alpha", want: 1},
		{name: "numeric prerelease identifiers compare numerically", a: "1.0.0-alpha.2", b: "1.0.0-alpha.10", want: -1},
		{name: "numeric identifier below alphanumeric", a: "1.0.0-1", b: "1.0.0-alpha", want: -1},
		{name: "shorter identifier set is lower", a: "1.0.0-alpha", b: "1.0.0-alpha.1", want: -1},
		{name: "build metadata ignored", a: "1.0.0+build1", b: "1.0.0+build2", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.a)
			require.NoError(t, err)
			b, err := Parse(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Compare(b))
		})
	}
}

func TestBump(t *testing.T) {
	tests := []struct {
		name       string
		version    Version
		changeType string
		want       Version
		wantErr    bool
	}{
		{name: "major drops prerelease", version: Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "beta"}, changeType: Major, want: Version{Major: 2}},
		{name: "minor zeroes patch", version: Version{Major: 1, Minor: 2, Patch: 3}, changeType: Minor, want: Version{Major: 1, Minor: 3}},
		{name: "patch", version: Version{Major: 1, Minor: 2, Patch: 3}, changeType: Patch, want: Version{Major: 1, Minor: 2, Patch: 4}},
		{name: "unknown kind", version: Version{Major: 1}, changeType: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.version.Bump(tt.changeType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsBreaking(t *testing.T) {
	tests := []struct {
		name    string
		version string
		kind    string
		want    bool
	}{
		{name: "0.x minor is breaking", version: "0.1.0", kind: Minor, want: true},
		{name: "0.x major is breaking", version: "0.1.0", kind: Major, want: true},
		{name: "0.x patch is not breaking", version: "0.1.0", kind: Patch, want: false},
		{name: "1.x minor is not breaking", version: "1.1.0", kind: Minor, want: false},
		{name: "1.x major is breaking", version: "1.1.0", kind: Major, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, IsBreaking(v, tt.kind))
		})
	}
}

func TestDetectBumpType(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     string
	}{
		{name: "major", old: "1.0.0", new: "2.0.0", want: Major},
		{name: "minor", old: "1.0.0", new: "1.1.0", want: Minor},
		{name: "patch", old: "1.0.0", new: "1.0.1", want: Patch},
		{name: "none", old: "1.0.0", new: "1.0.0", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old, err := Parse(tt.old)
			require.NoError(t, err)
			newV, err := Parse(tt.new)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DetectBumpType(old, newV))
		})
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name    string
		version string
		rng     string
		want    bool
	}{
		{name: "wildcard always satisfies", version: "4.5.6", rng: "*", want: true},
		{name: "exact match", version: "1.2.3", rng: "1.2.3", want: true},
		{name: "exact mismatch", version: "1.2.4", rng: "1.2.3", want: false},
		{name: "caret within major", version: "1.5.0", rng: "^1.2.3", want: true},
		{name: "caret outside major", version: "2.0.0", rng: "^1.2.3", want: false},
		{name: "caret 0.x within minor only", version: "0.2.5", rng: "^0.2.3", want: true},
		{name: "caret 0.x outside minor", version: "0.3.0", rng: "^0.2.3", want: false},
		{name: "tilde within minor", version: "1.2.9", rng: "~1.2.3", want: true},
		{name: "tilde outside minor", version: "1.3.0", rng: "~1.2.3", want: false},
		{name: "gte satisfied", version: "2.0.0", rng: ">=1.2.3", want: true},
		{name: "gte not satisfied", version: "1.0.0", rng: ">=1.2.3", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.version)
			require.NoError(t, err)
			got, err := Satisfies(v, tt.rng)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
