package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ListSessions returns summary information about every saved session.
// Corrupted session files are skipped.
func (e *Engine) ListSessions(ctx context.Context) (*ListSessionsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := e.sessions.List()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ListSessionsResult{Sessions: []SessionInfo{}}, nil
		}
		return nil, err
	}

	sessions := []SessionInfo{}
	for _, name := range names {
		st, err := e.sessions.Load(name)
		if err != nil {
			e.log.WithField("session", name).WithError(err).Debug("skipping unreadable session")
			continue
		}
		sessions = append(sessions, SessionInfo{
			Name:           st.Name,
			Snapshot:       st.Snapshot,
			SelectionCount: len(st.Selections),
			UpdatedAt:      st.UpdatedAt,
		})
	}

	slices.SortFunc(sessions, func(a, b SessionInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return &ListSessionsResult{Sessions: sessions}, nil
}

// DeleteSession deletes a saved session.
func (e *Engine) DeleteSession(ctx context.Context, req *DeleteSessionRequest) (*DeleteSessionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := e.sessions.Load(req.Name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: session '%s' not found", ErrNotFound, req.Name)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if req.DryRun {
		return &DeleteSessionResult{Name: req.Name, DryRun: true}, nil
	}

	if err := e.sessions.Delete(req.Name); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	return &DeleteSessionResult{Name: req.Name, Deleted: true}, nil
}
