package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/danieljhkim/debplan/internal/debver"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// Queue puts the target packages in a user queue and saves the session.
// An upgrade without targets selects every available upgrade.
func (e *Engine) Queue(ctx context.Context, req *QueueRequest) (*QueueResult, error) {
	if !req.Queue.IsUserFacing() {
		return nil, fmt.Errorf("%w: %s is not a user queue", ErrValidation, req.Queue)
	}
	if len(req.Targets) == 0 && req.Queue != queue.Upgrade {
		return nil, fmt.Errorf("%w: no packages given", ErrValidation)
	}

	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}

	var pkgs []*pkgdb.Package
	if len(req.Targets) == 0 {
		pkgs = o.db.UpgradesAvailable()
	}
	for _, target := range req.Targets {
		pkg, err := selectTarget(o.db, req.Queue, target)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}

	result := &QueueResult{Queued: []string{}}
	for _, pkg := range pkgs {
		if err := o.session.Add(pkg, req.Queue); err != nil {
			return nil, fmt.Errorf("failed to queue %s: %w", pkg, err)
		}
		o.state.Select(pkg.ID, pkg.Version, req.Queue)
		result.Queued = append(result.Queued, pkg.Key())
	}

	if err := e.save(o); err != nil {
		return nil, err
	}
	result.Status = e.status(o)
	return result, nil
}

// Dequeue takes packages out of the queue together with the dependencies
// queued only for them.
func (e *Engine) Dequeue(ctx context.Context, req *DequeueRequest) (*DequeueResult, error) {
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("%w: no packages given", ErrValidation)
	}

	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}

	result := &DequeueResult{Dequeued: []string{}}
	for _, id := range req.IDs {
		if _, queued := o.session.LocateID(id); !queued {
			return nil, fmt.Errorf("%w: package '%s' is not queued", ErrNotFound, id)
		}
		for _, p := range o.session.DequeueID(id) {
			result.Dequeued = append(result.Dequeued, p.ID)
		}
		o.state.Deselect(id)
	}

	if err := e.save(o); err != nil {
		return nil, err
	}
	result.Status = e.status(o)
	return result, nil
}

// Clear empties the queue of the session.
func (e *Engine) Clear(ctx context.Context, req *ClearRequest) (*StatusResult, error) {
	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}

	o.session.Clear()
	o.state.Reset()
	o.stale = nil

	if err := e.save(o); err != nil {
		return nil, err
	}
	return e.status(o), nil
}

// parseTarget splits "id" or "id=version".
func parseTarget(target string) (id, version string, err error) {
	id, version, _ = strings.Cut(strings.TrimSpace(target), "=")
	id = strings.TrimSpace(id)
	version = strings.TrimSpace(version)
	if id == "" {
		return "", "", fmt.Errorf("%w: empty package reference %q", ErrValidation, target)
	}
	return id, version, nil
}

// selectTarget picks the package version a target refers to in queue t.
func selectTarget(db *pkgdb.DB, t queue.Type, target string) (*pkgdb.Package, error) {
	id, version, err := parseTarget(target)
	if err != nil {
		return nil, err
	}
	if len(db.Versions(id)) == 0 {
		return nil, fmt.Errorf("%w: package '%s' not found", ErrNotFound, id)
	}

	if version != "" {
		pkg, ok := db.Package(id, version)
		if !ok {
			return nil, fmt.Errorf("%w: package '%s' has no version %s", ErrNotFound, id, version)
		}
		if err := checkDirection(db, t, pkg); err != nil {
			return nil, err
		}
		return pkg, nil
	}

	installed, isInstalled := db.Installed(id)
	switch t {
	case queue.Install:
		latest, _ := db.Latest(id)
		return latest, nil

	case queue.Remove:
		if isInstalled {
			return installed, nil
		}
		latest, _ := db.Latest(id)
		return latest, nil

	case queue.Reinstall:
		if !isInstalled {
			return nil, fmt.Errorf("%w: %s is not installed", ErrValidation, id)
		}
		return installed, nil

	case queue.Upgrade:
		latest, _ := db.Latest(id)
		if err := checkDirection(db, t, latest); err != nil {
			return nil, err
		}
		return latest, nil

	case queue.Downgrade:
		if !isInstalled {
			return nil, fmt.Errorf("%w: %s is not installed", ErrValidation, id)
		}
		for _, p := range db.Versions(id) {
			if c, err := debver.Compare(p.Version, installed.Version); err == nil && c < 0 {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: no version of %s older than %s", ErrNotFound, id, installed.Version)

	default:
		return nil, fmt.Errorf("%w: %s is not a user queue", ErrValidation, t)
	}
}

// checkDirection validates an explicit version against the queue: upgrades
// must be newer than the installed version, downgrades older, reinstalls
// equal.
func checkDirection(db *pkgdb.DB, t queue.Type, pkg *pkgdb.Package) error {
	if t != queue.Upgrade && t != queue.Downgrade && t != queue.Reinstall {
		return nil
	}

	installed, ok := db.Installed(pkg.ID)
	if !ok {
		return fmt.Errorf("%w: %s is not installed", ErrValidation, pkg.ID)
	}
	c, err := debver.Compare(pkg.Version, installed.Version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch {
	case t == queue.Upgrade && c <= 0:
		return fmt.Errorf("%w: %s is not newer than installed %s", ErrValidation, pkg, installed.Version)
	case t == queue.Downgrade && c >= 0:
		return fmt.Errorf("%w: %s is not older than installed %s", ErrValidation, pkg, installed.Version)
	case t == queue.Reinstall && c != 0:
		return fmt.Errorf("%w: %s is not the installed version %s", ErrValidation, pkg, installed.Version)
	}
	return nil
}
