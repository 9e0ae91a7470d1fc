package state

import (
	"time"

	"github.com/danieljhkim/debplan/internal/queue"
)

// SessionState is the persisted form of one session.
type SessionState struct {
	// Name identifies the session and names its file
	Name string `json:"name"`

	// Snapshot is the path of the metadata snapshot last used with the session
	Snapshot string `json:"snapshot,omitempty"`

	// Generation is the snapshot generation the selections were last resolved against
	Generation uint64 `json:"generation"`

	// Options are the resolver options of the session
	Options SessionOptions `json:"options"`

	// Selections is the ordered list of requests that built the queue
	Selections []Selection `json:"selections"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionOptions mirrors the resolver options.
type SessionOptions struct {
	RemoveConflicts bool   `json:"removeConflicts,omitempty"`
	SelfID          string `json:"selfID,omitempty"`
}

// Selection is one request against the queue.
type Selection struct {
	// ID is the package identifier
	ID string `json:"id"`

	// Version is the selected version (empty for dequeues)
	Version string `json:"version,omitempty"`

	// Queue is the user queue the package was put in
	Queue queue.Type `json:"queue"`

	// Dequeue marks a request to take the package out of the queue
	Dequeue bool `json:"dequeue,omitempty"`
}

// NewSessionState creates a new empty SessionState.
func NewSessionState(name string, now time.Time) *SessionState {
	return &SessionState{
		Name:       name,
		Selections: []Selection{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Select appends a queue request.
func (s *SessionState) Select(id, version string, t queue.Type) {
	s.Selections = append(s.Selections, Selection{ID: id, Version: version, Queue: t})
}

// Deselect appends a dequeue request. Earlier selections of the same ID
// are dropped since nothing after the dequeue can observe them.
func (s *SessionState) Deselect(id string) {
	kept := s.Selections[:0]
	for _, sel := range s.Selections {
		if sel.ID != id {
			kept = append(kept, sel)
		}
	}
	s.Selections = append(kept, Selection{ID: id, Dequeue: true})
}

// Reset drops every selection.
func (s *SessionState) Reset() {
	s.Selections = []Selection{}
}
