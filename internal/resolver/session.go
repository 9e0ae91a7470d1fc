// Package resolver turns user selections into a consistent transaction.
//
// A Session owns the queues of one transaction over an immutable pkgdb.DB.
// Queueing a package for installation pulls in its dependencies
// transitively, checks conflicts against the installed system and the rest
// of the queue, and records every problem it cannot solve as an issue rather
// than failing. Queueing a removal takes the reverse dependencies that would
// break with it.
//
// Resolution is greedy: the highest version that satisfies a dependency wins
// and nothing is backtracked.
package resolver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/debplan/internal/debver"
	"github.com/danieljhkim/debplan/internal/logging"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// ErrNotUserQueue is returned when a caller tries to queue into a queue that
// only resolution may fill.
var ErrNotUserQueue = errors.New("not a user queue")

// Options configures a Session.
type Options struct {
	// RemoveConflicts makes conflict checks queue conflicting installed
	// packages for removal instead of reporting an issue.
	RemoveConflicts bool

	// SelfID is the package ID of the application driving the transaction,
	// if it is itself a package.
	SelfID string
}

// Session is the queue and resolution state of one transaction.
// All methods are safe for concurrent use; mutations run one at a time.
type Session struct {
	mu   sync.RWMutex
	db   *pkgdb.DB
	opts Options
	log  logrus.FieldLogger
	q    *queue.Store
}

// New creates a Session over db. A nil logger discards everything.
func New(db *pkgdb.DB, opts Options, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		db:   db,
		opts: opts,
		log:  logger.WithField("component", "resolver"),
		q:    queue.NewStore(),
	}
}

// DB returns the snapshot the session resolves against.
func (s *Session) DB() *pkgdb.DB {
	return s.db
}

// Options returns the session options.
func (s *Session) Options() Options {
	return s.opts
}

// Add queues pkg in the user queue t and resolves it. Resolution problems
// are recorded as issues; the error is only for queue types callers may not
// use directly.
func (s *Session) Add(pkg *pkgdb.Package, t queue.Type) error {
	if !t.IsUserFacing() {
		return fmt.Errorf("cannot queue %s into %s: %w", pkg, t, ErrNotUserQueue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.add(pkg, t)
	return nil
}

// AddPackages queues every package into t, in order.
func (s *Session) AddPackages(pkgs []*pkgdb.Package, t queue.Type) error {
	if !t.IsUserFacing() {
		return fmt.Errorf("cannot queue into %s: %w", t, ErrNotUserQueue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pkg := range pkgs {
		s.add(pkg, t)
	}
	return nil
}

func (s *Session) add(pkg *pkgdb.Package, t queue.Type) {
	if t == queue.Remove {
		s.addRemoval(pkg)
		return
	}

	if !s.q.Add(pkg, t) {
		return
	}
	s.log.WithFields(logrus.Fields{"package": pkg.ID, "version": pkg.Version, "queue": t}).Debug("queued")

	s.addDependency(pkg, make(map[string]bool))
	s.addConflict(pkg, s.opts.RemoveConflicts)
}

// Dequeue removes the package with pkg's ID from the queue together with
// everything that was queued only on its behalf. It returns the dequeued
// packages.
func (s *Session) Dequeue(pkg *pkgdb.Package) []*pkgdb.Package {
	return s.DequeueID(pkg.ID)
}

// DequeueID is Dequeue by package ID.
func (s *Session) DequeueID(id string) []*pkgdb.Package {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.q.RemoveID(id)
	for _, p := range removed {
		s.log.WithField("package", p.ID).Debug("dequeued")
	}
	return removed
}

// Clear empties every queue and issue.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.q.Clear()
	s.log.Debug("cleared queue")
}

// AddDependency resolves the dependencies of pkg, which must already be
// queued. It returns false when resolution added at least one issue.
func (s *Session) AddDependency(pkg *pkgdb.Package) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addDependency(pkg, make(map[string]bool))
}

// AddConflict checks pkg against the installed system and the queue. With
// remove set, conflicting packages are taken out of the way where possible;
// otherwise every conflict becomes an issue. It returns false when at least
// one issue was added.
func (s *Session) AddConflict(pkg *pkgdb.Package, remove bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addConflict(pkg, remove)
}

func (s *Session) raise(id string, kind queue.IssueKind, format string, args ...any) {
	s.raiseAbout(id, "", kind, format, args...)
}

// raiseAbout records an issue on id that also names related, so dequeuing
// either package clears it.
func (s *Session) raiseAbout(id, related string, kind queue.IssueKind, format string, args ...any) {
	issue := queue.Issue{PackageID: id, Kind: kind, Reason: fmt.Sprintf(format, args...), Related: related}
	if s.q.AddIssue(issue) {
		s.log.WithFields(logrus.Fields{"package": id, "kind": kind}).Debug(issue.Reason)
	}
}

// raiseMalformed records a MalformedVersion issue on id when err came from
// an unparseable version, and reports whether it did.
func (s *Session) raiseMalformed(id string, err error, format string, args ...any) bool {
	if !errors.Is(err, debver.ErrMalformed) {
		return false
	}
	s.log.WithError(err).WithField("package", id).Debug("version comparison failed")
	s.raise(id, queue.MalformedVersion, format, args...)
	return true
}

// HasIssues reports whether resolution recorded any issue.
func (s *Session) HasIssues() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.HasIssues()
}

// Issues returns a copy of the recorded issues.
func (s *Session) Issues() []queue.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.Issues()
}

// RemovingSelf reports whether the transaction removes the application's
// own package.
func (s *Session) RemovingSelf() bool {
	if s.opts.SelfID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.q.LocateID(s.opts.SelfID)
	return ok && t == queue.Remove
}
