package selection

import (
	"os"
	"path/filepath"
	"strings"
)

// File is a Store keeping the value in a single file, the way a browser
// keeps one localStorage key.
type File struct {
	path string
}

// NewFile creates a file-backed Store at the given path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Get reads the stored value. A missing or empty file means no value.
func (f *File) Get() (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}
	return value, true
}

// Put writes the value, creating parent directories as needed.
func (f *File) Put(value string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(value+"\n"), 0o600)
}
