// Package shiperr defines the error kinds components report across package
// boundaries, so the orchestrator and CLI layer can classify a failure
// without string-matching its message.
package shiperr

import (
	"errors"
	"fmt"
)

// Kind names one of the error kinds spec.md §7 assigns to this system.
type Kind string

const (
	Config          Kind = "ConfigError"
	GraphCycle      Kind = "GraphCycleError"
	Sort            Kind = "SortError"
	Preflight       Kind = "PreflightError"
	Build           Kind = "BuildError"
	Publish         Kind = "PublishError"
	RegistryTimeout Kind = "RegistryTimeoutError"
	Install         Kind = "InstallError"
	Git             Kind = "GitError"
	Manifest        Kind = "ManifestError"
	Cancellation    Kind = "CancellationError"
	ResumeMismatch  Kind = "ResumeMismatchError"
)

// Error wraps an underlying error with the kind that classifies it, so
// callers can both log a human message and branch on Kind via errors.As.
type Error struct {
	Kind    Kind
	Package string // repository name this error concerns, if any
	Err     error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind, with no associated package.
func New(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// NewForPackage wraps err with kind and the repository it concerns.
func NewForPackage(kind Kind, pkgName string, err error) error {
	return &Error{Kind: kind, Package: pkgName, Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if !errors.As(err, &se) {
		return "", false
	}
	return se.Kind, true
}
