package resolver

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// conflicts reports whether a and b refuse to coexist. Either side may
// declare the conflict. replaced is set when a also replaces b, so b should
// make way without an issue. Comparisons that hit a malformed version do not
// match and are returned in err.
func conflicts(a, b *pkgdb.Package) (conflict, replaced bool, err error) {
	_, forward, ferr := depexpr.MatchesAny(a.Conflicts, b)
	_, backward, berr := depexpr.MatchesAny(b.Conflicts, a)
	if !forward && !backward {
		return false, false, errors.Join(ferr, berr)
	}
	_, replaced, rerr := depexpr.MatchesAny(a.Replaces, b)
	return true, replaced, rerr
}

// addConflict checks pkg against every other package that will be present
// once the queue runs. It returns false when any issue was raised.
func (s *Session) addConflict(pkg *pkgdb.Package, remove bool) bool {
	ok := true
	for _, other := range s.world() {
		if other.ID == pkg.ID {
			continue
		}
		conflict, replaced, err := conflicts(pkg, other)
		if s.raiseMalformed(pkg.ID, err, "malformed version while checking conflicts with %s", other) {
			ok = false
		}
		if !conflict {
			continue
		}
		// A removal earlier in this loop may have taken other with it.
		if current, present := s.effective(other.ID); !present || !current.SameAs(other) {
			continue
		}

		by, required, err := s.requiredBy(other, pkg.ID)
		if s.raiseMalformed(pkg.ID, err, "malformed version while checking what requires %s", other) {
			ok = false
		}
		if other.Essential || required {
			if other.Essential {
				s.raiseAbout(pkg.ID, other.ID, queue.UnresolvableConflict, "conflicts with essential package %s", other)
			} else {
				s.raiseAbout(pkg.ID, other.ID, queue.UnresolvableConflict, "conflicts with %s, required by %s", other, by)
			}
			s.markConflict(other, pkg)
			ok = false
			continue
		}

		switch {
		case replaced:
			if !s.makeWay(pkg, other, true) {
				ok = false
			}
		case remove:
			if !s.makeWay(pkg, other, false) {
				ok = false
			}
		default:
			s.raiseAbout(pkg.ID, other.ID, queue.UnresolvableConflict, "conflicts with %s", other)
			s.markConflict(other, pkg)
			ok = false
		}
	}
	return ok
}

// makeWay takes other out of pkg's way: an installed package is queued for
// removal, a queued one is dequeued. A queued package the user selected
// stays unless pkg replaces it, and a package on pkg's own dependency chain
// always stays; both become an issue instead. Requesters left without the
// dequeued package get an issue too.
func (s *Session) makeWay(pkg, other *pkgdb.Package, replaced bool) bool {
	log := s.log.WithFields(logrus.Fields{"package": pkg.ID, "conflict": other.ID})

	if s.isInstalled(other) {
		log.Debug("removing conflicting package")
		return s.queueRemoval(other, pkg.ID)
	}

	t, _ := s.q.LocateID(other.ID)
	if s.linked(pkg.ID, other.ID) || (t.IsUserFacing() && !replaced) {
		s.raiseAbout(pkg.ID, other.ID, queue.UnresolvableConflict, "conflicts with %s", other)
		return false
	}

	log.Debug("dequeuing conflicting package")
	requesters := s.q.DependencyOf(other.ID)
	s.q.RemoveID(other.ID)

	ok := true
	for _, r := range requesters {
		if _, queued := s.q.LocateID(r); queued {
			s.raiseAbout(r, pkg.ID, queue.UnresolvableConflict, "dependency %s dropped: conflicts with %s", other, pkg)
			ok = false
		}
	}
	return ok
}

// linked reports whether a and b sit on one dependency chain: either was
// pulled in, directly or transitively, on behalf of the other.
func (s *Session) linked(a, b string) bool {
	return s.pulledFor(a, b) || s.pulledFor(b, a)
}

// pulledFor reports whether id was queued on behalf of ancestor.
func (s *Session) pulledFor(id, ancestor string) bool {
	seen := map[string]bool{id: true}
	work := []string{id}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		for _, r := range s.q.DependencyOf(cur) {
			if r == ancestor {
				return true
			}
			if !seen[r] {
				seen[r] = true
				work = append(work, r)
			}
		}
	}
	return false
}

// isInstalled reports whether p is the installed version of its ID and not
// replaced by a queued version.
func (s *Session) isInstalled(p *pkgdb.Package) bool {
	inst, ok := s.db.Installed(p.ID)
	if !ok || !inst.SameAs(p) {
		return false
	}
	_, t, queued := s.q.Entry(p.ID)
	return !queued || !t.Installs()
}

// markConflict puts an installed package into the conflict queue.
func (s *Session) markConflict(other, with *pkgdb.Package) {
	if !s.isInstalled(other) {
		return
	}
	if t, queued := s.q.LocateID(other.ID); queued && t != queue.Conflict {
		return
	}
	s.q.Add(other, queue.Conflict)
	s.q.AddConflictOf(other.ID, with.ID)
}
