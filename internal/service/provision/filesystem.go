package provision

import (
	"errors"
	"os"
)

// Filesystem abstracts the filesystem operations used while provisioning.
type Filesystem interface {
	Exists(path string) bool
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	MkdirTemp(dir, pattern string) (string, error)
}

// OSFilesystem implements Filesystem using the os package.
type OSFilesystem struct{}

// Exists reports whether path exists. Stat errors other than "not exist" count as existing.
func (OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// Remove removes the named file or empty directory.
func (OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll removes path and any children it contains.
func (OSFilesystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename renames oldpath to newpath.
func (OSFilesystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// MkdirAll creates a directory along with any necessary parents.
func (OSFilesystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// MkdirTemp creates a new temporary directory in dir.
func (OSFilesystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}
