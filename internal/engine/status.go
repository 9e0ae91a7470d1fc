package engine

import (
	"context"

	"github.com/danieljhkim/debplan/internal/queue"
	"github.com/danieljhkim/debplan/internal/state"
)

// Status returns the current queue of the session. It does not save the
// session.
func (e *Engine) Status(ctx context.Context, req *StatusRequest) (*StatusResult, error) {
	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}
	return e.status(o), nil
}

// Issues returns the unresolved problems of the session's transaction.
func (e *Engine) Issues(ctx context.Context, req *StatusRequest) ([]queue.Issue, error) {
	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}
	return o.session.Issues(), nil
}

func (e *Engine) status(o *openSession) *StatusResult {
	sess := o.session
	result := &StatusResult{
		Session:          o.state.Name,
		Snapshot:         o.state.Snapshot,
		Generation:       o.db.Generation(),
		Queues:           []QueueInfo{},
		Issues:           sess.Issues(),
		Stale:            append([]state.Selection(nil), o.stale...),
		TouchesEssential: sess.ContainsEssentialOrRequiredPackage(),
		RemovingSelf:     sess.RemovingSelf(),
	}

	for _, t := range sess.Actions() {
		info := QueueInfo{
			Type:         t,
			Name:         sess.DisplayableNameForQueueType(t),
			Packages:     []PackageInfo{},
			DownloadSize: sess.DownloadSizeForQueue(t),
		}
		for _, p := range sess.Queue(t) {
			removedBy, _ := sess.RemovedBy(p.ID)
			info.Packages = append(info.Packages, PackageInfo{
				ID:           p.ID,
				Version:      p.Version,
				Size:         p.Size,
				DependencyOf: sess.DependencyOf(p.ID),
				RemovedBy:    removedBy,
				ConflictOf:   sess.ConflictOf(p.ID),
			})
		}
		result.DownloadSize += info.DownloadSize
		result.Queues = append(result.Queues, info)
	}

	return result
}
