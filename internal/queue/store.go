package queue

import (
	"sort"

	"github.com/danieljhkim/debplan/internal/pkgdb"
)

type idSet map[string]struct{}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s idSet) clone() idSet {
	c := make(idSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Store holds the queues of one transaction. Every package ID sits in at
// most one queue at a time.
type Store struct {
	entries map[Type][]*pkgdb.Package
	located map[string]Type
	order   []string // queued IDs, in the order they were first queued
	issues  []Issue

	dependencyOf map[string]idSet  // pulled-in ID -> IDs that required it
	removedBy    map[string]string // removal ID -> ID whose removal or conflict caused it
	conflictOf   map[string]idSet  // conflict-queue ID -> queued IDs it conflicts with
}

// NewStore creates an empty Store.
func NewStore() *Store {
	s := &Store{}
	s.Clear()
	return s
}

// Clear empties every queue, issue and back-link.
func (s *Store) Clear() {
	s.entries = make(map[Type][]*pkgdb.Package)
	s.located = make(map[string]Type)
	s.order = nil
	s.issues = nil
	s.dependencyOf = make(map[string]idSet)
	s.removedBy = make(map[string]string)
	s.conflictOf = make(map[string]idSet)
}

// Add queues pkg in queue t and reports whether anything changed.
//
// A package that already sits in a user-facing queue is not moved into a
// system-derived queue. Any other existing entry for the same ID is evicted,
// so picking a pulled-in package (or switching intent between user queues)
// moves it. Back-links survive the move.
func (s *Store) Add(pkg *pkgdb.Package, t Type) bool {
	if cur, ok := s.located[pkg.ID]; ok {
		existing := s.find(pkg.ID)
		if cur == t && existing.SameAs(pkg) {
			return false
		}
		if !t.IsUserFacing() && cur.IsUserFacing() {
			return false
		}
		if cur == Conflict && t != Conflict {
			delete(s.conflictOf, pkg.ID)
		}
		s.evict(pkg.ID)
	} else {
		s.order = append(s.order, pkg.ID)
	}
	s.entries[t] = append(s.entries[t], pkg)
	s.located[pkg.ID] = t
	return true
}

func (s *Store) find(id string) *pkgdb.Package {
	t, ok := s.located[id]
	if !ok {
		return nil
	}
	for _, p := range s.entries[t] {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// evict takes id out of its queue without touching back-links or order.
func (s *Store) evict(id string) {
	t, ok := s.located[id]
	if !ok {
		return
	}
	kept := s.entries[t][:0]
	for _, p := range s.entries[t] {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.entries[t] = kept
	delete(s.located, id)
}

// forget drops id from every queue, index and issue list. removedBy links
// pointing at id are left for prune to find.
func (s *Store) forget(id string) {
	s.evict(id)
	for i, queued := range s.order {
		if queued == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.ClearIssues(id)
	delete(s.dependencyOf, id)
	delete(s.removedBy, id)
	delete(s.conflictOf, id)
	for dep, reqs := range s.dependencyOf {
		delete(reqs, id)
		if len(reqs) == 0 {
			delete(s.dependencyOf, dep)
		}
	}
	for c, with := range s.conflictOf {
		delete(with, id)
		if len(with) == 0 {
			delete(s.conflictOf, c)
		}
	}
}

// Remove dequeues the package with pkg's ID and everything that was only
// queued on its behalf: pulled-in packages no longer required by a
// user-queued package, removals it caused and conflict entries that no
// longer conflict with anything. It returns the dequeued packages, pkg's
// entry first.
func (s *Store) Remove(pkg *pkgdb.Package) []*pkgdb.Package {
	return s.RemoveID(pkg.ID)
}

// RemoveID is Remove by package ID.
func (s *Store) RemoveID(id string) []*pkgdb.Package {
	var removed []*pkgdb.Package
	if p := s.find(id); p != nil {
		removed = append(removed, p)
	}
	s.forget(id)
	return append(removed, s.prune()...)
}

// prune drops entries that lost the reason they were queued for, until
// nothing changes.
func (s *Store) prune() []*pkgdb.Package {
	var removed []*pkgdb.Package
	for {
		dead := s.orphans()
		if len(dead) == 0 {
			return removed
		}
		for _, id := range dead {
			removed = append(removed, s.find(id))
			s.forget(id)
		}
	}
}

// orphans returns, in queue order, the IDs that should be pruned.
func (s *Store) orphans() []string {
	// Pulled-in packages must be reachable from a user install through
	// dependencyOf links; mutual dependencies alone do not keep a cycle alive.
	live := make(map[string]bool)
	for id, t := range s.located {
		if t.IsUserFacing() && t != Remove {
			live[id] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for id, reqs := range s.dependencyOf {
			if t, ok := s.located[id]; !ok || !t.Pulled() || live[id] {
				continue
			}
			for r := range reqs {
				if live[r] {
					live[id] = true
					changed = true
					break
				}
			}
		}
	}

	var dead []string
	for _, id := range s.order {
		t := s.located[id]
		switch {
		case t.Pulled():
			if !live[id] {
				dead = append(dead, id)
			}
		case t == Remove:
			if by, ok := s.removedBy[id]; ok {
				if _, queued := s.located[by]; !queued {
					dead = append(dead, id)
				}
			}
		case t == Conflict:
			if len(s.conflictOf[id]) == 0 {
				dead = append(dead, id)
			}
		}
	}
	return dead
}

// Queue returns a copy of the entries of queue t in insertion order.
func (s *Store) Queue(t Type) []*pkgdb.Package {
	return append([]*pkgdb.Package(nil), s.entries[t]...)
}

// Count returns the number of entries in queue t.
func (s *Store) Count(t Type) int {
	return len(s.entries[t])
}

// Len returns the number of queued packages across all queues.
func (s *Store) Len() int {
	return len(s.located)
}

// Contains reports whether this exact version of pkg sits in queue t.
func (s *Store) Contains(pkg *pkgdb.Package, t Type) bool {
	cur, ok := s.located[pkg.ID]
	return ok && cur == t && s.find(pkg.ID).SameAs(pkg)
}

// Locate returns the queue holding this exact version of pkg.
func (s *Store) Locate(pkg *pkgdb.Package) (Type, bool) {
	t, ok := s.located[pkg.ID]
	if !ok || !s.find(pkg.ID).SameAs(pkg) {
		return 0, false
	}
	return t, true
}

// LocateID returns the queue holding any version of the package id.
func (s *Store) LocateID(id string) (Type, bool) {
	t, ok := s.located[id]
	return t, ok
}

// Entry returns the queued version of id and its queue.
func (s *Store) Entry(id string) (*pkgdb.Package, Type, bool) {
	t, ok := s.located[id]
	if !ok {
		return nil, 0, false
	}
	return s.find(id), t, true
}

// QueuedIDs returns every queued package ID in the order it was first queued.
func (s *Store) QueuedIDs() []string {
	return append([]string(nil), s.order...)
}

// AddIssue records an issue. Identical issues are recorded once.
func (s *Store) AddIssue(issue Issue) bool {
	for _, existing := range s.issues {
		if existing == issue {
			return false
		}
	}
	s.issues = append(s.issues, issue)
	return true
}

// Issues returns a copy of the recorded issues.
func (s *Store) Issues() []Issue {
	return append([]Issue(nil), s.issues...)
}

// HasIssues reports whether any issue is recorded.
func (s *Store) HasIssues() bool {
	return len(s.issues) > 0
}

// ClearIssues drops every issue recorded for the package id or naming it as
// the related package.
func (s *Store) ClearIssues(id string) {
	kept := s.issues[:0]
	for _, issue := range s.issues {
		if issue.PackageID != id && issue.Related != id {
			kept = append(kept, issue)
		}
	}
	s.issues = kept
}

// AddDependencyOf records that requester needs dep.
func (s *Store) AddDependencyOf(dep, requester string) {
	if dep == requester {
		return
	}
	reqs, ok := s.dependencyOf[dep]
	if !ok {
		reqs = make(idSet)
		s.dependencyOf[dep] = reqs
	}
	reqs[requester] = struct{}{}
}

// DependencyOf returns the IDs that required dep, sorted.
func (s *Store) DependencyOf(dep string) []string {
	return s.dependencyOf[dep].sorted()
}

// RequiredBy reports whether a package that is still queued recorded a need
// for dep.
func (s *Store) RequiredBy(dep string) bool {
	for r := range s.dependencyOf[dep] {
		if _, ok := s.located[r]; ok {
			return true
		}
	}
	return false
}

// SetRemovedBy records that victim is removed because of cause.
func (s *Store) SetRemovedBy(victim, cause string) {
	if victim == cause {
		return
	}
	s.removedBy[victim] = cause
}

// RemovedBy returns the cause recorded for the removal of victim.
func (s *Store) RemovedBy(victim string) (string, bool) {
	by, ok := s.removedBy[victim]
	return by, ok
}

// AddConflictOf records that the conflict-queue entry id conflicts with the
// queued package other.
func (s *Store) AddConflictOf(id, other string) {
	with, ok := s.conflictOf[id]
	if !ok {
		with = make(idSet)
		s.conflictOf[id] = with
	}
	with[other] = struct{}{}
}

// ConflictOf returns the IDs the conflict-queue entry id conflicts with, sorted.
func (s *Store) ConflictOf(id string) []string {
	return s.conflictOf[id].sorted()
}

// Clone returns an independent copy of the store. Package records are shared.
func (s *Store) Clone() *Store {
	c := &Store{
		entries:      make(map[Type][]*pkgdb.Package, len(s.entries)),
		located:      make(map[string]Type, len(s.located)),
		order:        append([]string(nil), s.order...),
		issues:       append([]Issue(nil), s.issues...),
		dependencyOf: make(map[string]idSet, len(s.dependencyOf)),
		removedBy:    make(map[string]string, len(s.removedBy)),
		conflictOf:   make(map[string]idSet, len(s.conflictOf)),
	}
	for t, pkgs := range s.entries {
		c.entries[t] = append([]*pkgdb.Package(nil), pkgs...)
	}
	for id, t := range s.located {
		c.located[id] = t
	}
	for id, set := range s.dependencyOf {
		c.dependencyOf[id] = set.clone()
	}
	for id, by := range s.removedBy {
		c.removedBy[id] = by
	}
	for id, set := range s.conflictOf {
		c.conflictOf[id] = set.clone()
	}
	return c
}
