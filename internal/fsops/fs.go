// Package fsops provides the filesystem operations debplan needs.
//
// Everything debplan reads or writes on disk (metadata snapshots, session
// files, staged .deb archives) goes through the FS interface so the engine
// can be exercised against an in-memory filesystem.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Identifier validation for session names
//   - Testable via the FS interface (see MemFS)
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Open opens a file for streaming reads.
	Open(path string) (io.ReadCloser, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// ListFiles returns the base names of regular files in dir with the given
	// extension, sorted. A missing directory yields an empty list.
	ListFiles(dir, ext string) ([]string, error)

	// ValidateIdentifier returns an error wrapping ErrInvalidIdentifier for
	// names that are not safe file names.
	ValidateIdentifier(id string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".debplan-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Open opens a file for streaming reads.
func (fs *RealFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ListFiles returns the names of regular files in dir ending in ext.
func (fs *RealFS) ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ext) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateIdentifier checks that a session name is safe to use as a file name.
func (fs *RealFS) ValidateIdentifier(id string) error {
	return validateIdentifier(id)
}

// ErrInvalidIdentifier is returned for names that cannot be used as a file
// name under the debplan root.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const maxIdentifierLen = 128

// validateIdentifier accepts [A-Za-z0-9._-] names that do not start with a
// dot, so temp files and traversal are never addressable.
func validateIdentifier(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	case len(id) > maxIdentifierLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidIdentifier, maxIdentifierLen)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: %q must not start with a dot", ErrInvalidIdentifier, id)
	}
	for _, r := range id {
		if r == '/' || r == '\\' || r == filepath.Separator {
			return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidIdentifier, id)
		}
		if !isIdentifierRune(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidIdentifier, id, r)
		}
	}
	return nil
}

func isIdentifierRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '.' || r == '_' || r == '-'
}
