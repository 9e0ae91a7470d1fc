package engine

import (
	"github.com/danieljhkim/debplan/internal/queue"
	"github.com/danieljhkim/debplan/internal/state"
)

// SessionRef names the session a request works on.
type SessionRef struct {
	// Session is the session name (default: "default")
	Session string

	// Snapshot replaces the snapshot path saved with the session when set
	Snapshot string

	// Options replaces the saved resolver options when set
	Options *state.SessionOptions
}

// QueueRequest represents a request to put packages in a user queue.
type QueueRequest struct {
	SessionRef

	// Queue is the user queue to add to
	Queue queue.Type

	// Targets are package references, "id" or "id=version"
	Targets []string
}

// DequeueRequest represents a request to take packages out of the queue.
type DequeueRequest struct {
	SessionRef

	// IDs are the package IDs to dequeue
	IDs []string
}

// ClearRequest represents a request to empty the queue of a session.
type ClearRequest struct {
	SessionRef
}

// StatusRequest represents a request for the queue status.
type StatusRequest struct {
	SessionRef
}

// PlanRequest represents a request for the ordered transaction.
type PlanRequest struct {
	SessionRef

	// Force returns the plan even when the transaction has issues
	Force bool

	// Verify checks staged archives against their digests
	Verify bool
}

// DeleteSessionRequest represents a request to delete a saved session.
type DeleteSessionRequest struct {
	Name   string
	DryRun bool // Preview only
}
