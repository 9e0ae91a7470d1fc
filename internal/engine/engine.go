// Package engine provides the core business logic for debplan operations.
//
// The engine package acts as the orchestration layer between CLI commands and
// the resolver. It loads the metadata snapshot, rebuilds the session's queue
// from its saved selections, applies the request and saves the session back.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Queue/Dequeue/Clear: Change the selections of a session
//   - Status/Issues/Plan: Read the resolved transaction
//   - Sessions: List and delete saved sessions
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/debplan/internal/clock"
	"github.com/danieljhkim/debplan/internal/config"
	"github.com/danieljhkim/debplan/internal/fsops"
	"github.com/danieljhkim/debplan/internal/hash"
	"github.com/danieljhkim/debplan/internal/logging"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/resolver"
	"github.com/danieljhkim/debplan/internal/state"
)

// Engine orchestrates all debplan operations.
// It is the main API surface called by the CLI.
type Engine struct {
	sessions state.SessionStore
	fs       fsops.FS
	hasher   hash.Hasher
	clock    clock.Clock
	log      logrus.FieldLogger
}

// New creates a new Engine with the given dependencies. A nil logger
// discards everything.
func New(
	sessions state.SessionStore,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		sessions: sessions,
		fs:       fs,
		hasher:   hasher,
		clock:    clk,
		log:      logger.WithField("component", "engine"),
	}
}

// openSession is a session state with its queue rebuilt.
type openSession struct {
	state   *state.SessionState
	db      *pkgdb.DB
	session *resolver.Session
	stale   []state.Selection
	created bool
}

// open loads the named session, or starts a new one, and replays its
// selections against the snapshot.
func (e *Engine) open(ctx context.Context, ref SessionRef) (*openSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, created, err := e.loadOrCreate(ref.Session)
	if err != nil {
		return nil, err
	}

	if ref.Snapshot != "" {
		st.Snapshot = ref.Snapshot
	}
	if st.Snapshot == "" {
		return nil, fmt.Errorf("%w for session '%s'", ErrNoSnapshot, st.Name)
	}
	if ref.Options != nil {
		st.Options = *ref.Options
	}

	db, err := pkgdb.LoadFile(e.fs, st.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	log := e.log.WithField("session", st.Name)
	if !created && st.Generation != db.Generation() {
		log.WithFields(logrus.Fields{"from": st.Generation, "to": db.Generation()}).
			Info("snapshot changed since the session was saved, resolving again")
	}

	sess := resolver.New(db, resolver.Options{
		RemoveConflicts: st.Options.RemoveConflicts,
		SelfID:          st.Options.SelfID,
	}, log)

	stale, err := replay(sess, db, st.Selections)
	if err != nil {
		return nil, err
	}
	for _, sel := range stale {
		log.WithFields(logrus.Fields{"package": sel.ID, "version": sel.Version}).
			Warn("selected version no longer in snapshot, dropping it")
	}
	st.Generation = db.Generation()

	return &openSession{state: st, db: db, session: sess, stale: stale, created: created}, nil
}

func (e *Engine) loadOrCreate(name string) (*state.SessionState, bool, error) {
	if name == "" {
		name = config.DefaultSession
	}
	st, err := e.sessions.Load(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state.NewSessionState(name, e.clock.Now()), true, nil
		}
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	return st, false, nil
}

// replay rebuilds the queue from selections in order. Selections whose
// version is gone from the snapshot are returned and skipped.
func replay(sess *resolver.Session, db *pkgdb.DB, selections []state.Selection) ([]state.Selection, error) {
	var stale []state.Selection
	for _, sel := range selections {
		if sel.Dequeue {
			sess.DequeueID(sel.ID)
			continue
		}
		pkg, ok := db.Package(sel.ID, sel.Version)
		if !ok {
			stale = append(stale, sel)
			continue
		}
		if err := sess.Add(pkg, sel.Queue); err != nil {
			return nil, fmt.Errorf("failed to replay selection %s: %w", sel.ID, err)
		}
	}
	return stale, nil
}

// save writes the session back, dropping stale selections.
func (e *Engine) save(o *openSession) error {
	if len(o.stale) > 0 {
		kept := o.state.Selections[:0]
		for _, sel := range o.state.Selections {
			if !isStale(sel, o.stale) {
				kept = append(kept, sel)
			}
		}
		o.state.Selections = kept
		o.stale = nil
	}

	o.state.UpdatedAt = e.clock.Now()
	if err := e.sessions.Save(o.state); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func isStale(sel state.Selection, stale []state.Selection) bool {
	for _, s := range stale {
		if s == sel {
			return true
		}
	}
	return false
}
