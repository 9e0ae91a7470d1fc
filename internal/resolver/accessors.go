package resolver

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// Queue returns a copy of the entries of queue t.
func (s *Session) Queue(t queue.Type) []*pkgdb.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.Queue(t)
}

// Contains reports whether this exact version of pkg sits in queue t.
func (s *Session) Contains(pkg *pkgdb.Package, t queue.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.Contains(pkg, t)
}

// Locate returns the queue holding this exact version of pkg.
func (s *Session) Locate(pkg *pkgdb.Package) (queue.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.Locate(pkg)
}

// LocateID returns the queue holding any version of id.
func (s *Session) LocateID(id string) (queue.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.LocateID(id)
}

// QueuedIDs returns every queued package ID in the order it was first queued.
func (s *Session) QueuedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.QueuedIDs()
}

// DependencyOf returns the IDs that pulled in id.
func (s *Session) DependencyOf(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.DependencyOf(id)
}

// RemovedBy returns the ID whose removal or conflict queued id for removal.
func (s *Session) RemovedBy(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.RemovedBy(id)
}

// ConflictOf returns the queued IDs the conflict entry id conflicts with.
func (s *Session) ConflictOf(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.ConflictOf(id)
}

// NumberOfPackagesInQueue returns the number of entries in queue t.
func (s *Session) NumberOfPackagesInQueue(t queue.Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.q.Count(t)
}

// DisplayableNameForQueueType returns the heading of queue t, or "" when
// the queue is empty.
func (s *Session) DisplayableNameForQueueType(t queue.Type) string {
	if s.NumberOfPackagesInQueue(t) == 0 {
		return ""
	}
	return t.DisplayName()
}

// DownloadSizeForQueue returns the bytes to download for queue t. Removals,
// conflicts and sideloaded packages download nothing.
func (s *Session) DownloadSizeForQueue(t queue.Type) int64 {
	if !t.Installs() {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, p := range s.q.Queue(t) {
		if !p.Sideloaded() {
			total += p.Size
		}
	}
	return total
}

// Actions returns the non-empty queues in execution order.
func (s *Session) Actions() []queue.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []queue.Type
	for _, t := range queue.All {
		if s.q.Count(t) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// PackagesToDownload returns the queued installs that must be fetched from
// a source.
func (s *Session) PackagesToDownload() []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, p := range s.PackagesToInstall() {
		if !p.Sideloaded() {
			out = append(out, p)
		}
	}
	return out
}

// NeedsToDownloadPackages reports whether any queued install must be fetched.
func (s *Session) NeedsToDownloadPackages() bool {
	return len(s.PackagesToDownload()) > 0
}

// PackagesToInstall returns every package queued for installation in
// install order.
func (s *Session) PackagesToInstall() []*pkgdb.Package {
	var out []*pkgdb.Package
	for _, level := range s.TopDownQueue() {
		out = append(out, level.Packages...)
	}
	return out
}

// ContainsEssentialOrRequiredPackage reports whether the transaction touches
// an essential package or one with required priority.
func (s *Session) ContainsEssentialOrRequiredPackage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range queue.All {
		if t == queue.Conflict {
			continue
		}
		for _, p := range s.q.Queue(t) {
			if p.Essential || strings.EqualFold(p.Priority, "required") {
				return true
			}
		}
	}
	return false
}

// IsEssentialOrRequired reports whether pkg is essential or needed by a
// package that must stay.
func (s *Session) IsEssentialOrRequired(pkg *pkgdb.Package) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isEssentialOrRequired(pkg)
}

// PackagesQueuedForAddition maps every package queued for installation to
// its queued version.
func (s *Session) PackagesQueuedForAddition() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range s.queuedInstalls() {
		out[p.ID] = p.Version
	}
	return out
}

// InstalledPackagesListExcluding maps every package present once the queue
// runs to its version, leaving out exclude's ID.
func (s *Session) InstalledPackagesListExcluding(exclude *pkgdb.Package) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range s.world() {
		if exclude == nil || p.ID != exclude.ID {
			out[p.ID] = p.Version
		}
	}
	return out
}

// VirtualPackagesListExcluding maps every name provided by a package present
// once the queue runs to the provided version ("" for unversioned provides),
// leaving out what exclude provides.
func (s *Session) VirtualPackagesListExcluding(exclude *pkgdb.Package) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range s.world() {
		if exclude != nil && p.ID == exclude.ID {
			continue
		}
		for _, c := range p.Provides.Clauses() {
			version := ""
			if c.Op == depexpr.OpEqual {
				version = c.Version
			}
			if _, seen := out[c.Name]; !seen || version != "" {
				out[c.Name] = version
			}
		}
	}
	return out
}

// PackageIDsQueuedForRemoval returns the IDs in the remove queue.
func (s *Session) PackageIDsQueuedForRemoval() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, p := range s.q.Queue(queue.Remove) {
		out = append(out, p.ID)
	}
	return out
}

// FormatSize renders a byte count using binary units, e.g. "1.5 MB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
