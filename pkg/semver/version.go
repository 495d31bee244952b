// Package semver provides semantic versioning functionality for shipwright.
// It implements parsing, comparison, and manipulation of semantic versions
// according to the Semantic Versioning 2.0.0 specification (https://semver.org/).
package semver

import (
	"fmt"
	"strconv"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Kind names the three bump kinds a version can be raised by.
const (
	Major = "major"
	Minor = "minor"
	Patch = "patch"
)

// Version represents a semantic version, including its optional prerelease
// and build-metadata components.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string // e.g. "alpha.1"; empty if none
	Build      string // e.g. "20130313144700"; empty if none, ignored by Compare
}

// String returns the version in canonical "major.minor.patch[-prerelease][+build]" form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare orders two versions per SemVer 2.0.0 precedence: numeric fields
// compare first, then prerelease identifiers compare field-wise (numeric
// identifiers are less than alphanumeric ones; a shorter identifier set is
// less than a longer one when all shared fields are equal); build metadata
// is ignored. A version without a prerelease is greater than one with.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	if v.Patch != other.Patch {
		return sign(v.Patch - other.Patch)
	}
	return comparePrerelease(v.Prerelease, other.Prerelease)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// comparePrerelease implements SemVer 2.0.0 §11 precedence for the
// prerelease field. No prerelease sorts higher than any prerelease.
func comparePrerelease(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if c := compareIdentifier(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}

	return sign(len(aParts) - len(bParts))
}

// compareIdentifier compares a single dot-separated prerelease identifier.
// Numeric identifiers are compared numerically and sort before alphanumeric ones.
func compareIdentifier(a, b string) int {
	aNum, aIsNum := identifierAsInt(a)
	bNum, bIsNum := identifierAsInt(b)

	switch {
	case aIsNum && bIsNum:
		return sign(aNum - bNum)
	case aIsNum && !bIsNum:
		return -1
	case !aIsNum && bIsNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func identifierAsInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Equals returns true if this version equals the other version.
func (v Version) Equals(other Version) bool { return v.Compare(other) == 0 }

// LessThan returns true if this version is less than the other version.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// GreaterThan returns true if this version is greater than the other version.
func (v Version) GreaterThan(other Version) bool { return v.Compare(other) > 0 }

// Bump increments the named field (major, minor, or patch), zeroes every
// lower field, and drops prerelease and build metadata.
func (v Version) Bump(kind string) (Version, error) {
	switch kind {
	case Major:
		return Version{Major: v.Major + 1}, nil
	case Minor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case Patch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	default:
		return Version{}, fmt.Errorf("unknown bump kind: %q", kind)
	}
}

// BumpMajor increments the major version, resetting minor and patch to 0.
func (v Version) BumpMajor() Version { b, _ := v.Bump(Major); return b }

// BumpMinor increments the minor version, resetting patch to 0.
func (v Version) BumpMinor() Version { b, _ := v.Bump(Minor); return b }

// BumpPatch increments the patch version.
func (v Version) BumpPatch() Version { b, _ := v.Bump(Patch); return b }

// DetectBumpType returns the highest field that differs between old and new:
// "major", "minor", or "patch". Returns "" if the two versions are equal in
// major.minor.patch.
func DetectBumpType(old, new Version) string {
	switch {
	case old.Major != new.Major:
		return Major
	case old.Minor != new.Minor:
		return Minor
	case old.Patch != new.Patch:
		return Patch
	default:
		return ""
	}
}

// IsBreaking classifies whether bumping old by kind is a breaking change,
// under the 0.x-means-every-minor-is-breaking convention: if old's major is
// 0, any minor or major bump is breaking; otherwise only a major bump is.
func IsBreaking(old Version, kind string) bool {
	if old.Major == 0 {
		return kind == Minor || kind == Major
	}
	return kind == Major
}

// Satisfies reports whether v matches the dependency range grammar in
// rangeStr (wildcard "*", exact "X.Y.Z", caret "^X.Y.Z", tilde "~X.Y.Z",
// ">=X.Y.Z"). Delegates to Masterminds/semver/v3's constraint engine, which
// implements the same caret/tilde/wildcard/>=  semantics this range grammar
// needs.
func Satisfies(v Version, rangeStr string) (bool, error) {
	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" || rangeStr == "*" {
		return true, nil
	}

	constraint, err := mmsemver.NewConstraint(rangeStr)
	if err != nil {
		return false, fmt.Errorf("invalid range %q: %w", rangeStr, err)
	}

	mv, err := mmsemver.NewVersion(v.String())
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", v.String(), err)
	}

	return constraint.Check(mv), nil
}

// Copy returns a copy of this version. Version is already a value type, but
// Copy is kept for parity with collaborators that hold a Version by pointer.
func (v Version) Copy() Version { return v }

// Parse parses a version string into a Version. Accepts an optional leading
// "v", and optional "-prerelease" and "+build" suffixes per SemVer 2.0.0.
// An empty string or "latest" parses as 0.0.0.
func Parse(versionStr string) (Version, error) {
	versionStr = strings.TrimSpace(versionStr)
	if versionStr == "" || versionStr == "latest" {
		return Version{}, nil
	}

	versionStr = strings.TrimPrefix(versionStr, "v")

	core := versionStr
	build := ""
	if i := strings.IndexByte(core, '+'); i >= 0 {
		build = core[i+1:]
		core = core[:i]
	}

	prerelease := ""
	if i := strings.IndexByte(core, '-'); i >= 0 {
		prerelease = core[i+1:]
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: %s (expected major.minor.patch)", versionStr)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %s", parts[0])
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %s", parts[1])
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch version: %s", parts[2])
	}

	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: prerelease, Build: build}, nil
}

// MustParse parses a version string and panics if it's invalid.
func MustParse(versionStr string) Version {
	version, err := Parse(versionStr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse version %s: %v", versionStr, err))
	}
	return version
}

// New creates a new Version with the given major, minor, and patch values.
func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Zero returns a zero version (0.0.0).
func Zero() Version { return Version{} }
