package engine

import (
	"time"

	"github.com/danieljhkim/debplan/internal/planner"
	"github.com/danieljhkim/debplan/internal/queue"
	"github.com/danieljhkim/debplan/internal/state"
)

// PackageInfo describes one queued package.
type PackageInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Size    int64  `json:"size"`

	// DependencyOf lists the packages that pulled this one in
	DependencyOf []string `json:"dependencyOf,omitempty"`

	// RemovedBy is the package whose removal or conflict removes this one
	RemovedBy string `json:"removedBy,omitempty"`

	// ConflictOf lists the queued packages this one conflicts with
	ConflictOf []string `json:"conflictOf,omitempty"`
}

// QueueInfo describes one non-empty queue.
type QueueInfo struct {
	Type         queue.Type    `json:"type"`
	Name         string        `json:"name"`
	Packages     []PackageInfo `json:"packages"`
	DownloadSize int64         `json:"downloadSize"`
}

// StatusResult represents the current queue of a session.
type StatusResult struct {
	// Session is the session name
	Session string `json:"session"`

	// Snapshot is the snapshot path the session resolved against
	Snapshot string `json:"snapshot"`

	// Generation is the snapshot generation
	Generation uint64 `json:"generation"`

	// Queues lists the non-empty queues in execution order
	Queues []QueueInfo `json:"queues"`

	// DownloadSize is the total bytes to download
	DownloadSize int64 `json:"downloadSize"`

	// Issues are the unresolved problems of the transaction
	Issues []queue.Issue `json:"issues"`

	// Stale lists selections dropped because the snapshot no longer has them
	Stale []state.Selection `json:"stale,omitempty"`

	// TouchesEssential is set when an essential or required package is involved
	TouchesEssential bool `json:"touchesEssential"`

	// RemovingSelf is set when the transaction removes debplan's own package
	RemovingSelf bool `json:"removingSelf"`
}

// QueueResult represents the result of queueing packages.
type QueueResult struct {
	// Queued lists the selected packages as "id@version"
	Queued []string `json:"queued"`

	Status *StatusResult `json:"status"`
}

// DequeueResult represents the result of dequeueing packages.
type DequeueResult struct {
	// Dequeued lists the IDs taken out, including dependencies that were
	// only queued for them
	Dequeued []string `json:"dequeued"`

	Status *StatusResult `json:"status"`
}

// PlanResult represents the ordered transaction.
type PlanResult struct {
	Plan *planner.Plan `json:"plan"`

	// Mismatches lists staged archives that failed verification
	Mismatches []planner.Mismatch `json:"mismatches,omitempty"`
}

// SessionInfo summarizes a saved session.
type SessionInfo struct {
	Name           string    `json:"name"`
	Snapshot       string    `json:"snapshot"`
	SelectionCount int       `json:"selectionCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListSessionsResult represents the saved sessions.
type ListSessionsResult struct {
	Sessions []SessionInfo `json:"sessions"`
}

// DeleteSessionResult represents the result of deleting a session.
type DeleteSessionResult struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	DryRun  bool   `json:"dryRun"`
}
