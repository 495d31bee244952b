package capability

import (
	"os"
	"path/filepath"
)

// OSFilesystem implements Filesystem against the real disk.
type OSFilesystem struct{}

// NewOSFilesystem returns a Filesystem backed by os and path/filepath.
func NewOSFilesystem() *OSFilesystem { return &OSFilesystem{} }

func (OSFilesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFilesystem) WriteFile(path string, data []byte, perm uint32) error {
	return os.WriteFile(path, data, os.FileMode(perm))
}

func (OSFilesystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSFilesystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
