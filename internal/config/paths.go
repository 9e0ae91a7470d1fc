// Package config manages debplan configuration and filesystem paths.
//
// The default root is ~/.debplan/ containing sessions/ and config.yaml. The
// root can be moved with DEBPLAN_ROOT.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by debplan.
type Paths struct {
	// Root is the base directory for all debplan data (default: ~/.debplan)
	Root string

	// Sessions is the directory containing saved transaction sessions
	Sessions string

	// Config is the path to the global config file
	Config string
}

// DefaultPaths returns the default paths for debplan.
// Paths can be overridden with environment variables:
// - DEBPLAN_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".debplan")
	}
	return PathsAt(root), nil
}

// PathsAt returns the layout rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		Sessions: filepath.Join(root, "sessions"),
		Config:   filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Sessions} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
