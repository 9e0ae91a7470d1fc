package pkgdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/fsops"
)

// Snapshot is the on-disk form of a DB: parsed repository indices plus the
// installed set from the status database.
type Snapshot struct {
	Generation uint64           `json:"generation" yaml:"generation"`
	Sources    []*Source        `json:"sources" yaml:"sources"`
	Packages   []*PackageRecord `json:"packages" yaml:"packages"`
}

// PackageRecord is the on-disk form of a Package. Relationship fields use
// Debian control syntax.
type PackageRecord struct {
	ID                 string `json:"id" yaml:"id"`
	Version            string `json:"version" yaml:"version"`
	Name               string `json:"name,omitempty" yaml:"name,omitempty"`
	Section            string `json:"section,omitempty" yaml:"section,omitempty"`
	Architecture       string `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	Priority           string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Source             string `json:"source,omitempty" yaml:"source,omitempty"`
	Filename           string `json:"filename,omitempty" yaml:"filename,omitempty"`
	DebPath            string `json:"debPath,omitempty" yaml:"debPath,omitempty"`
	SHA256             string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Size               int64  `json:"size,omitempty" yaml:"size,omitempty"`
	InstalledSize      int64  `json:"installedSize,omitempty" yaml:"installedSize,omitempty"`
	Depends            string `json:"depends,omitempty" yaml:"depends,omitempty"`
	Conflicts          string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Provides           string `json:"provides,omitempty" yaml:"provides,omitempty"`
	Replaces           string `json:"replaces,omitempty" yaml:"replaces,omitempty"`
	Essential          bool   `json:"essential,omitempty" yaml:"essential,omitempty"`
	Installed          bool   `json:"installed,omitempty" yaml:"installed,omitempty"`
	IgnoreDependencies bool   `json:"ignoreDependencies,omitempty" yaml:"ignoreDependencies,omitempty"`
}

// Package converts the record, parsing its relationship fields.
func (r *PackageRecord) Package() (*Package, error) {
	pkg := &Package{
		ID:                 r.ID,
		Version:            r.Version,
		Name:               r.Name,
		Section:            r.Section,
		Architecture:       r.Architecture,
		Priority:           r.Priority,
		Source:             r.Source,
		Filename:           r.Filename,
		DebPath:            r.DebPath,
		SHA256:             r.SHA256,
		Size:               r.Size,
		InstalledSize:      r.InstalledSize,
		Essential:          r.Essential,
		Installed:          r.Installed,
		IgnoreDependencies: r.IgnoreDependencies,
	}

	fields := []struct {
		name string
		raw  string
		dst  *depexpr.Relation
	}{
		{"depends", r.Depends, &pkg.Depends},
		{"conflicts", r.Conflicts, &pkg.Conflicts},
		{"provides", r.Provides, &pkg.Provides},
		{"replaces", r.Replaces, &pkg.Replaces},
	}
	for _, f := range fields {
		rel, err := depexpr.ParseRelation(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid %s: %w", pkg.Key(), f.name, err)
		}
		*f.dst = rel
	}
	return pkg, nil
}

// Record converts a Package back to its on-disk form.
func Record(p *Package) *PackageRecord {
	return &PackageRecord{
		ID:                 p.ID,
		Version:            p.Version,
		Name:               p.Name,
		Section:            p.Section,
		Architecture:       p.Architecture,
		Priority:           p.Priority,
		Source:             p.Source,
		Filename:           p.Filename,
		DebPath:            p.DebPath,
		SHA256:             p.SHA256,
		Size:               p.Size,
		InstalledSize:      p.InstalledSize,
		Depends:            p.Depends.String(),
		Conflicts:          p.Conflicts.String(),
		Provides:           p.Provides.String(),
		Replaces:           p.Replaces.String(),
		Essential:          p.Essential,
		Installed:          p.Installed,
		IgnoreDependencies: p.IgnoreDependencies,
	}
}

// Build indexes the snapshot into a DB.
func (s *Snapshot) Build() (*DB, error) {
	pkgs := make([]*Package, 0, len(s.Packages))
	for i, rec := range s.Packages {
		if rec == nil {
			return nil, fmt.Errorf("%w: package %d is empty", ErrInvalidSnapshot, i)
		}
		pkg, err := rec.Package()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		pkgs = append(pkgs, pkg)
	}
	return New(s.Generation, s.Sources, pkgs)
}

// Format is a snapshot file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a snapshot in the given format.
func Decode(data []byte, format Format) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot format %d", format)
	}
	return &snap, nil
}

// Encode serializes a snapshot in the given format.
func Encode(snap *Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(snap)
	case FormatJSON:
		return json.MarshalIndent(snap, "", "  ")
	default:
		return nil, fmt.Errorf("unknown snapshot format %d", format)
	}
}

// LoadFile reads and indexes a snapshot file.
func LoadFile(fs fsops.FS, path string) (*DB, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	db, err := snap.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}
	return db, nil
}
