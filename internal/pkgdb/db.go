package pkgdb

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danieljhkim/debplan/internal/debver"
)

var (
	// ErrDuplicatePackage indicates two records share an (id, version) pair.
	ErrDuplicatePackage = errors.New("duplicate package")

	// ErrInvalidSnapshot indicates a snapshot that cannot be indexed.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// DB is an immutable, indexed view over a metadata snapshot.
// It is safe for concurrent use.
type DB struct {
	generation uint64
	sources    map[string]*Source
	sourceIDs  []string
	packages   []*Package
	byKey      map[string]*Package
	byID       map[string][]*Package // highest version first
	installed  map[string]*Package
	providers  map[string][]*Package // provided name -> providers, sorted by ID then version desc
}

// New indexes the given sources and packages. The records are owned by the
// DB afterwards and must not be modified.
func New(generation uint64, sources []*Source, packages []*Package) (*DB, error) {
	db := &DB{
		generation: generation,
		sources:    make(map[string]*Source),
		byKey:      make(map[string]*Package),
		byID:       make(map[string][]*Package),
		installed:  make(map[string]*Package),
		providers:  make(map[string][]*Package),
	}

	for _, src := range sources {
		if src.ID == "" {
			return nil, fmt.Errorf("%w: source with empty id", ErrInvalidSnapshot)
		}
		if _, dup := db.sources[src.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate source %q", ErrInvalidSnapshot, src.ID)
		}
		db.sources[src.ID] = src
		db.sourceIDs = append(db.sourceIDs, src.ID)
	}
	sort.Strings(db.sourceIDs)

	for _, pkg := range packages {
		if pkg.ID == "" || pkg.Version == "" {
			return nil, fmt.Errorf("%w: package with empty id or version", ErrInvalidSnapshot)
		}
		if _, dup := db.byKey[pkg.Key()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePackage, pkg.Key())
		}
		if pkg.Installed {
			if prev, ok := db.installed[pkg.ID]; ok {
				return nil, fmt.Errorf("%w: %s installed at both %s and %s", ErrInvalidSnapshot, pkg.ID, prev.Version, pkg.Version)
			}
			db.installed[pkg.ID] = pkg
		}
		db.byKey[pkg.Key()] = pkg
		db.byID[pkg.ID] = append(db.byID[pkg.ID], pkg)
		db.packages = append(db.packages, pkg)

		for _, clause := range pkg.Provides.Clauses() {
			db.providers[clause.Name] = append(db.providers[clause.Name], pkg)
		}
	}

	for _, versions := range db.byID {
		sortNewestFirst(versions)
	}
	for _, provs := range db.providers {
		sort.SliceStable(provs, func(i, j int) bool {
			if provs[i].ID != provs[j].ID {
				return provs[i].ID < provs[j].ID
			}
			return debver.Less(provs[j].Version, provs[i].Version)
		})
	}

	return db, nil
}

// sortNewestFirst orders versions of one package from highest to lowest.
func sortNewestFirst(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return debver.Less(pkgs[j].Version, pkgs[i].Version)
	})
}

// Generation identifies the snapshot the DB was built from.
func (db *DB) Generation() uint64 {
	return db.generation
}

// Source returns the source with the given ID.
func (db *DB) Source(id string) (*Source, bool) {
	src, ok := db.sources[id]
	return src, ok
}

// Sources returns all sources sorted by ID.
func (db *DB) Sources() []*Source {
	out := make([]*Source, 0, len(db.sourceIDs))
	for _, id := range db.sourceIDs {
		out = append(out, db.sources[id])
	}
	return out
}

// SourceOf returns the source a package came from.
func (db *DB) SourceOf(pkg *Package) (*Source, bool) {
	return db.Source(pkg.Source)
}

// Packages returns every package in snapshot order.
func (db *DB) Packages() []*Package {
	return append([]*Package(nil), db.packages...)
}

// Package returns a specific version of a package.
func (db *DB) Package(id, version string) (*Package, bool) {
	pkg, ok := db.byKey[id+"@"+version]
	return pkg, ok
}

// Versions returns every known version of id, highest first.
func (db *DB) Versions(id string) []*Package {
	return append([]*Package(nil), db.byID[id]...)
}

// Latest returns the highest known version of id.
func (db *DB) Latest(id string) (*Package, bool) {
	versions := db.byID[id]
	if len(versions) == 0 {
		return nil, false
	}
	return versions[0], true
}

// Installed returns the installed version of id.
func (db *DB) Installed(id string) (*Package, bool) {
	pkg, ok := db.installed[id]
	return pkg, ok
}

// InstalledPackages returns every installed package sorted by ID.
func (db *DB) InstalledPackages() []*Package {
	out := make([]*Package, 0, len(db.installed))
	for _, pkg := range db.installed {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Providers returns the packages that provide name, sorted by ID and then
// highest version first.
func (db *DB) Providers(name string) []*Package {
	return append([]*Package(nil), db.providers[name]...)
}

// Candidates returns every package that could satisfy a clause on name:
// all versions of the package called name first (highest first), then
// providers of name.
func (db *DB) Candidates(name string) []*Package {
	out := db.Versions(name)
	for _, p := range db.providers[name] {
		if p.ID != name {
			out = append(out, p)
		}
	}
	return out
}

// UpgradesAvailable returns installed packages that have a higher version in
// some source, paired with that version, sorted by ID.
func (db *DB) UpgradesAvailable() []*Package {
	var out []*Package
	for _, inst := range db.InstalledPackages() {
		latest, ok := db.Latest(inst.ID)
		if !ok || latest == inst {
			continue
		}
		if c, err := debver.Compare(latest.Version, inst.Version); err == nil && c > 0 {
			out = append(out, latest)
		}
	}
	return out
}
