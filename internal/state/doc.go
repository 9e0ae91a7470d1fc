// Package state manages session persistence.
//
// A session is an in-progress transaction that outlives one CLI invocation.
// It is stored as the ordered list of selections that built it rather than
// as resolved queues, so that loading it against a refreshed snapshot
// resolves everything again. Sessions are persisted as JSON files in the
// .debplan/sessions directory.
//
// Key concepts:
//   - SessionState: options plus the ordered selections of one session
//   - Selection: one queue or dequeue request, replayed in order
//   - SessionStore: Interface for persisting and loading sessions
package state
