// Package atomicfile writes files to a temporary location first and moves
// them into place on Close, so readers never see partial files.
package atomicfile

import (
	"os"
	"path/filepath"
)

// File is a temporary file that becomes visible under its final name on
// Close.
type File struct {
	*os.File
	name string
}

// New creates a temporary file in the directory of name.
func New(name string) (*File, error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".wip-*")
	if err != nil {
		return nil, err
	}
	return &File{File: f, name: name}, nil
}

// Close closes the temporary file and renames it to its final name.
func (f *File) Close() error {
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.File.Name())
		return err
	}
	if err := os.Chmod(f.File.Name(), 0644); err != nil {
		_ = os.Remove(f.File.Name())
		return err
	}
	return os.Rename(f.File.Name(), f.name)
}

// Abort discards the temporary file.
func (f *File) Abort() error {
	_ = f.File.Close()
	return os.Remove(f.File.Name())
}
