package resolver

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/debplan/internal/debver"
	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// effective returns the version of id the system will have once the queue
// runs: the queued version if one is queued for installation, nothing if it
// is queued for removal, otherwise the installed version.
func (s *Session) effective(id string) (*pkgdb.Package, bool) {
	if p, t, ok := s.q.Entry(id); ok {
		switch {
		case t.Installs():
			return p, true
		case t == queue.Remove:
			return nil, false
		}
	}
	return s.db.Installed(id)
}

// queuedInstalls returns every package queued for installation, in queue
// order.
func (s *Session) queuedInstalls() []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, id := range s.q.QueuedIDs() {
		if p, t, ok := s.q.Entry(id); ok && t.Installs() {
			out = append(out, p)
		}
	}
	return out
}

// world returns the effective package of every ID that will be present once
// the queue runs, sorted by ID.
func (s *Session) world() []*pkgdb.Package {
	seen := make(map[string]bool)
	var out []*pkgdb.Package
	for _, inst := range s.db.InstalledPackages() {
		if p, ok := s.effective(inst.ID); ok {
			out = append(out, p)
		}
		seen[inst.ID] = true
	}
	for _, p := range s.queuedInstalls() {
		if !seen[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// satisfiers returns the packages that will be present once the queue runs
// and may satisfy a clause on name: the package called name first, then
// providers of name in ID order.
func (s *Session) satisfiers(name string) []*pkgdb.Package {
	return s.satisfiersExcluding(name, "")
}

func (s *Session) satisfiersExcluding(name, exclude string) []*pkgdb.Package {
	seen := map[string]bool{exclude: true}
	var out []*pkgdb.Package
	consider := func(p *pkgdb.Package) {
		if p == nil || seen[p.ID] {
			return
		}
		seen[p.ID] = true
		out = append(out, p)
	}

	if p, ok := s.effective(name); ok {
		consider(p)
	}

	var providerIDs []string
	for _, prov := range s.db.Providers(name) {
		providerIDs = append(providerIDs, prov.ID)
	}
	for _, p := range s.queuedInstalls() {
		if provides(p, name) {
			providerIDs = append(providerIDs, p.ID)
		}
	}
	sort.Strings(providerIDs)
	for _, id := range providerIDs {
		if p, ok := s.effective(id); ok && provides(p, name) {
			consider(p)
		}
	}
	return out
}

func provides(p *pkgdb.Package, name string) bool {
	for _, c := range p.Provides.Clauses() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// available returns every package in the snapshot that could be pulled in
// for a clause on name, best first. IDs queued for removal and IDs already
// queued for installation are skipped: their fate is decided.
func (s *Session) available(name string) []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, p := range s.db.Candidates(name) {
		if t, ok := s.q.LocateID(p.ID); ok && (t == queue.Remove || t.Installs()) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// addDependency makes sure every dependency group of pkg is satisfied,
// queueing what is missing and recursing into it. visited holds the IDs
// already resolved in this pass so cycles terminate. It returns false when
// any issue was raised along the way.
func (s *Session) addDependency(pkg *pkgdb.Package, visited map[string]bool) bool {
	if pkg.IgnoreDependencies || visited[pkg.ID] {
		return true
	}
	visited[pkg.ID] = true

	ok := true
	for _, group := range pkg.Depends {
		match, found, presentErr := depexpr.Evaluate(group, s.satisfiers)
		if found {
			if t, queued := s.q.LocateID(match.ID); queued && t.Pulled() && match.ID != pkg.ID {
				s.q.AddDependencyOf(match.ID, pkg.ID)
			}
			continue
		}

		cand, found, searchErr := depexpr.Evaluate(group, s.available)
		if !found {
			kind := queue.UnresolvedDependency
			if errors.Is(errors.Join(presentErr, searchErr), debver.ErrMalformed) {
				kind = queue.MalformedVersion
			}
			s.raise(pkg.ID, kind, "unresolved dependency: %s", group)
			ok = false
			continue
		}

		t := queue.Dependency
		if cand.Essential {
			t = queue.Essential
		}
		s.q.Add(cand, t)
		s.q.AddDependencyOf(cand.ID, pkg.ID)
		s.log.WithFields(logrus.Fields{
			"package":  cand.ID,
			"version":  cand.Version,
			"required": pkg.ID,
			"queue":    t,
		}).Debug("pulled in dependency")

		if !s.addConflict(cand, s.opts.RemoveConflicts) {
			ok = false
		}
		if !s.addDependency(cand, visited) {
			ok = false
		}
	}
	return ok
}
