package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/debplan/internal/planner"
)

// Plan returns the ordered transaction of the session.
// Algorithm steps:
// 1. Rebuild the queue
// 2. Refuse a transaction with issues unless Force is set
// 3. Optionally verify staged archives
//
// The result is returned alongside ErrIssues and ErrDigestMismatch so callers
// can show what went wrong.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	// Step 1: Rebuild the queue
	o, err := e.open(ctx, req.SessionRef)
	if err != nil {
		return nil, err
	}

	plan := o.session.Plan()
	result := &PlanResult{Plan: plan}

	// Step 2: Issues block the plan
	if plan.HasIssues() && !req.Force {
		return result, fmt.Errorf("%w: %d issue(s); resolve them or use --force", ErrIssues, len(plan.Issues))
	}

	// Step 3: Verify staged archives
	if req.Verify {
		result.Mismatches = planner.NewVerifier(e.fs, e.hasher).Verify(plan)
		if len(result.Mismatches) > 0 {
			return result, fmt.Errorf("%w: %d staged archive(s) failed verification", ErrDigestMismatch, len(result.Mismatches))
		}
	}

	return result, nil
}
