package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/debplan/internal/fsops"
)

// Environment variables read by debplan.
const (
	EnvRoot            = "DEBPLAN_ROOT"
	EnvSnapshot        = "DEBPLAN_SNAPSHOT"
	EnvSession         = "DEBPLAN_SESSION"
	EnvLogLevel        = "DEBPLAN_LOG_LEVEL"
	EnvRemoveConflicts = "DEBPLAN_REMOVE_CONFLICTS"
	EnvSelfID          = "DEBPLAN_SELF_ID"
)

// Defaults applied when nothing else sets a value.
const (
	DefaultSession  = "default"
	DefaultLogLevel = "warn"
)

// ErrInvalidConfig is returned when config.yaml cannot be parsed.
var ErrInvalidConfig = errors.New("invalid config file")

// File is the on-disk shape of config.yaml.
type File struct {
	Snapshot        string `yaml:"snapshot"`
	Session         string `yaml:"session"`
	LogLevel        string `yaml:"log_level"`
	RemoveConflicts *bool  `yaml:"remove_conflicts"`
	SelfID          string `yaml:"self_id"`
}

// LoadFile reads config.yaml at path. A missing file yields an empty File.
func LoadFile(fs fsops.FS, path string) (*File, error) {
	exists, err := fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}
	if !exists {
		return &File{}, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return &f, nil
}

// LoadEnv loads a .env file from the working directory into the process
// environment. Variables already set win; a missing file is not an error.
func LoadEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// Overrides holds values given on the command line. Empty strings and nil
// pointers mean "not set".
type Overrides struct {
	Snapshot        string
	Session         string
	LogLevel        string
	RemoveConflicts *bool
}

// Settings is the resolved configuration of one invocation.
type Settings struct {
	Snapshot        string
	Session         string
	LogLevel        string
	RemoveConflicts bool
	SelfID          string
}

// Resolve merges flags, environment, config file and defaults, in that order
// of precedence.
func Resolve(flags Overrides, file *File) (Settings, error) {
	if file == nil {
		file = &File{}
	}

	s := Settings{
		Snapshot: pick(flags.Snapshot, os.Getenv(EnvSnapshot), file.Snapshot),
		Session:  pick(flags.Session, os.Getenv(EnvSession), file.Session, DefaultSession),
		LogLevel: pick(flags.LogLevel, os.Getenv(EnvLogLevel), file.LogLevel, DefaultLogLevel),
		SelfID:   pick(os.Getenv(EnvSelfID), file.SelfID),
	}

	switch {
	case flags.RemoveConflicts != nil:
		s.RemoveConflicts = *flags.RemoveConflicts
	case os.Getenv(EnvRemoveConflicts) != "":
		v, err := strconv.ParseBool(os.Getenv(EnvRemoveConflicts))
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", EnvRemoveConflicts, err)
		}
		s.RemoveConflicts = v
	case file.RemoveConflicts != nil:
		s.RemoveConflicts = *file.RemoveConflicts
	}

	return s, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
