// Package pkgdb holds the package and source metadata the resolver reads.
//
// Metadata arrives already parsed from repository indices and the dpkg
// status database, as a snapshot file. A DB built from a snapshot never
// changes; a refreshed snapshot produces a new DB with a higher Generation.
//
// Key concepts:
//   - Package: one version of one package, with its relationship fields
//   - Source: the repository a package came from (provenance only)
//   - DB: indexes over packages by ID, installed state and provided names
package pkgdb

import (
	"fmt"

	"github.com/danieljhkim/debplan/internal/depexpr"
)

// Package describes one version of a package.
type Package struct {
	// ID is the package identifier, stable across versions
	ID string

	// Version is the Debian version string
	Version string

	// Name is the display name (defaults to ID)
	Name string

	Section      string
	Architecture string
	Priority     string

	// Source is the ID of the repository the package came from
	Source string

	// Filename is the archive path relative to the source base URL
	Filename string

	// DebPath is a staged local archive for sideloaded packages
	DebPath string

	// SHA256 is the expected archive digest
	SHA256 string

	// Size is the download size in bytes
	Size int64

	// InstalledSize is the unpacked size in bytes
	InstalledSize int64

	Depends   depexpr.Relation
	Conflicts depexpr.Relation
	Provides  depexpr.Relation
	Replaces  depexpr.Relation

	// Essential marks packages required by the base system
	Essential bool

	// Installed marks the version currently installed on the device
	Installed bool

	// IgnoreDependencies suppresses resolution for this package
	IgnoreDependencies bool
}

func (p *Package) PackageID() string                  { return p.ID }
func (p *Package) PackageVersion() string             { return p.Version }
func (p *Package) ProvidesRelation() depexpr.Relation { return p.Provides }

// Key returns "id@version", unique within a DB.
func (p *Package) Key() string {
	return p.ID + "@" + p.Version
}

func (p *Package) String() string {
	return fmt.Sprintf("%s (%s)", p.ID, p.Version)
}

// DisplayName returns Name, or the ID when no name is set.
func (p *Package) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// SameAs reports whether both records are the same version of the same package.
func (p *Package) SameAs(other *Package) bool {
	return other != nil && p.ID == other.ID && p.Version == other.Version
}

// Sideloaded reports whether the package comes from a staged local archive
// rather than a source.
func (p *Package) Sideloaded() bool {
	return p.DebPath != ""
}

// Source describes a package repository.
type Source struct {
	ID            string   `json:"id" yaml:"id"`
	BaseURL       string   `json:"baseURL" yaml:"baseURL"`
	Origin        string   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	Suite         string   `json:"suite,omitempty" yaml:"suite,omitempty"`
	Codename      string   `json:"codename,omitempty" yaml:"codename,omitempty"`
	Architectures []string `json:"architectures,omitempty" yaml:"architectures,omitempty"`
	PinPriority   int      `json:"pinPriority,omitempty" yaml:"pinPriority,omitempty"`
}

// DisplayName returns the label, origin or base URL, whichever is set first.
func (s *Source) DisplayName() string {
	switch {
	case s.Label != "":
		return s.Label
	case s.Origin != "":
		return s.Origin
	default:
		return s.BaseURL
	}
}
