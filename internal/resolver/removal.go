package resolver

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// requiredBy reports whether p must stay because of another package: an
// installed essential package, or a package queued for installation, has a
// dependency group that only p satisfies. The package ignore is not
// considered. Comparisons that hit a malformed version count as not
// satisfied and are returned in err.
func (s *Session) requiredBy(p *pkgdb.Package, ignore string) (string, bool, error) {
	holders := s.queuedInstalls()
	for _, inst := range s.db.InstalledPackages() {
		if !inst.Essential {
			continue
		}
		if _, t, queued := s.q.Entry(inst.ID); queued && (t.Installs() || t == queue.Remove) {
			continue
		}
		holders = append(holders, inst)
	}

	only := func(string) []*pkgdb.Package { return []*pkgdb.Package{p} }
	others := func(name string) []*pkgdb.Package { return s.satisfiersExcluding(name, p.ID) }

	var errs []error
	for _, h := range holders {
		if h.ID == p.ID || h.ID == ignore || h.IgnoreDependencies {
			continue
		}
		for _, group := range h.Depends {
			_, satisfies, err := depexpr.Evaluate(group, only)
			if !satisfies {
				errs = append(errs, err)
				continue
			}
			_, replaced, err := depexpr.Evaluate(group, others)
			if !replaced {
				return h.ID, true, errors.Join(append(errs, err)...)
			}
		}
	}
	return "", false, errors.Join(errs...)
}

// isEssentialOrRequired reports whether p may not be removed.
func (s *Session) isEssentialOrRequired(p *pkgdb.Package) bool {
	if p.Essential {
		return true
	}
	_, required, _ := s.requiredBy(p, "")
	return required
}

// addRemoval handles a user removal. Essential and required packages are
// refused with an issue. Removing a package that is not installed only
// takes it out of the queue.
func (s *Session) addRemoval(pkg *pkgdb.Package) {
	if s.q.Contains(pkg, queue.Remove) {
		return
	}

	if _, t, queued := s.q.Entry(pkg.ID); queued && t.Installs() {
		s.q.RemoveID(pkg.ID)
	}
	inst, installed := s.db.Installed(pkg.ID)
	if !installed {
		return
	}

	if inst.Essential {
		s.raise(inst.ID, queue.EssentialRemovalAttempted, "cannot remove essential package %s", inst)
		return
	}
	by, required, err := s.requiredBy(inst, "")
	s.raiseMalformed(inst.ID, err, "malformed version while checking what requires %s", inst)
	if required {
		s.raise(inst.ID, queue.EssentialRemovalAttempted, "cannot remove %s: required by %s", inst, by)
		return
	}

	if s.queueRemoval(inst, "") {
		s.log.WithField("package", inst.ID).Debug("queued removal")
	}
}

// queueRemoval queues the installed package p for removal together with
// every installed package that would break without it. cause is the package
// the removal is done for, empty for user removals. If the removal would
// take an essential or required package with it, nothing is queued and an
// issue is raised on the package that asked for it.
func (s *Session) queueRemoval(p *pkgdb.Package, cause string) bool {
	saved := s.q.Clone()

	s.q.Add(p, queue.Remove)
	if cause != "" {
		s.q.SetRemovedBy(p.ID, cause)
	}

	owner := cause
	if owner == "" {
		owner = p.ID
	}

	blocker, ok, err := s.removeReverseDependencies(p)
	if ok {
		s.raiseMalformed(owner, err, "malformed version while removing %s", p)
		return true
	}

	by, required, _ := s.requiredBy(blocker, "")
	s.q = saved
	s.raiseMalformed(owner, err, "malformed version while removing %s", p)

	if blocker.Essential || !required {
		s.raise(owner, queue.EssentialRemovalAttempted, "removing %s would remove essential package %s", p, blocker)
	} else {
		s.raise(owner, queue.EssentialRemovalAttempted, "removing %s would remove %s, required by %s", p, blocker, by)
	}
	return false
}

// removeReverseDependencies walks installed reverse dependencies of root and
// queues every one whose dependencies can no longer be satisfied. It stops
// at the first essential or required victim and returns it. Malformed
// version errors met on the way are joined into err.
func (s *Session) removeReverseDependencies(root *pkgdb.Package) (*pkgdb.Package, bool, error) {
	var errs []error
	work := []*pkgdb.Package{root}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]

		for _, inst := range s.db.InstalledPackages() {
			if inst.ID == cur.ID || inst.IgnoreDependencies {
				continue
			}
			if t, queued := s.q.LocateID(inst.ID); queued && (t == queue.Remove || t.Installs()) {
				continue
			}
			broken, err := s.brokenBy(inst, cur)
			errs = append(errs, err)
			if !broken {
				continue
			}
			_, required, err := s.requiredBy(inst, "")
			errs = append(errs, err)
			if inst.Essential || required {
				return inst, false, errors.Join(errs...)
			}

			s.q.Add(inst, queue.Remove)
			s.q.SetRemovedBy(inst.ID, cur.ID)
			s.log.WithFields(logrus.Fields{"package": inst.ID, "removedBy": cur.ID}).Debug("queued reverse dependency for removal")
			work = append(work, inst)
		}
	}
	return nil, true, errors.Join(errs...)
}

// brokenBy reports whether dep has a dependency group that gone satisfied
// and that nothing left on the system satisfies. A group whose remaining
// candidates only fail on malformed versions counts as broken.
func (s *Session) brokenBy(dep, gone *pkgdb.Package) (bool, error) {
	only := func(string) []*pkgdb.Package { return []*pkgdb.Package{gone} }
	var errs []error
	for _, group := range dep.Depends {
		_, satisfied, err := depexpr.Evaluate(group, only)
		if !satisfied {
			errs = append(errs, err)
			continue
		}
		_, still, err := depexpr.Evaluate(group, s.satisfiers)
		if !still {
			return true, errors.Join(append(errs, err)...)
		}
	}
	return false, errors.Join(errs...)
}
