package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/clock"
	"github.com/danieljhkim/debplan/internal/config"
	"github.com/danieljhkim/debplan/internal/engine"
	"github.com/danieljhkim/debplan/internal/fsops"
	"github.com/danieljhkim/debplan/internal/hash"
	"github.com/danieljhkim/debplan/internal/logging"
	"github.com/danieljhkim/debplan/internal/state"
)

// newEngine creates a new engine with real implementations of all dependencies,
// and resolves the settings of this invocation.
func newEngine(cmd *cobra.Command) (*engine.Engine, config.Settings, error) {
	// Get default paths
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Ensure directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, config.Settings{}, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	file, err := config.LoadFile(fs, paths.Config)
	if err != nil {
		return nil, config.Settings{}, err
	}

	settings, err := config.Resolve(overrides(cmd), file)
	if err != nil {
		return nil, config.Settings{}, err
	}

	logger, err := logging.New(settings.LogLevel, os.Stderr)
	if err != nil {
		return nil, config.Settings{}, err
	}

	// Create real implementations
	hasher := hash.NewSHA256Hasher(fs)
	clk := &clock.RealClock{}
	sessions := state.NewFileSessionStore(fs, paths.Sessions)

	return engine.New(sessions, fs, hasher, clk, logger), settings, nil
}

// overrides collects the global flags set on the command line.
func overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{
		Snapshot: snapshotFlag,
		Session:  sessionFlag,
		LogLevel: logLevelFlag,
	}
	if cmd != nil && cmd.Flags().Changed("remove-conflicts") {
		v := removeConflicts
		o.RemoveConflicts = &v
	}
	return o
}

// sessionRef builds the engine session reference from resolved settings.
func sessionRef(s config.Settings) engine.SessionRef {
	return engine.SessionRef{
		Session:  s.Session,
		Snapshot: s.Snapshot,
		Options: &state.SessionOptions{
			RemoveConflicts: s.RemoveConflicts,
			SelfID:          s.SelfID,
		},
	}
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// FormatError is formatError for the main package.
func FormatError(err error) string {
	return formatError(err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
