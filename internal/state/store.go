package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/debplan/internal/fsops"
)

// SessionStore provides an interface for persisting sessions.
type SessionStore interface {
	// Load loads the session with the given name.
	// Returns os.ErrNotExist if the session doesn't exist.
	Load(name string) (*SessionState, error)

	// Save saves the session atomically under its name.
	Save(state *SessionState) error

	// Delete deletes the session file. Deleting a missing session is not an error.
	Delete(name string) error

	// List returns the names of all stored sessions, sorted.
	List() ([]string, error)
}

// FileSessionStore implements SessionStore using JSON files on disk.
type FileSessionStore struct {
	fs  fsops.FS
	dir string
}

// NewFileSessionStore creates a new FileSessionStore.
func NewFileSessionStore(fs fsops.FS, sessionsDir string) *FileSessionStore {
	return &FileSessionStore{
		fs:  fs,
		dir: sessionsDir,
	}
}

func (s *FileSessionStore) path(name string) (string, error) {
	if err := s.fs.ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid session name %q: %w", name, err)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load loads the session with the given name.
func (s *FileSessionStore) Load(name string) (*SessionState, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if state.Selections == nil {
		state.Selections = []Selection{}
	}

	return &state, nil
}

// Save saves the session atomically.
func (s *FileSessionStore) Save(state *SessionState) error {
	path, err := s.path(state.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

// Delete deletes the session file.
func (s *FileSessionStore) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// List returns the names of all stored sessions.
func (s *FileSessionStore) List() ([]string, error) {
	files, err := s.fs.ListFiles(s.dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(f, ".json"))
	}
	return names, nil
}
