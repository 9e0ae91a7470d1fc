package planner

import (
	"fmt"

	"github.com/danieljhkim/debplan/internal/fsops"
	"github.com/danieljhkim/debplan/internal/hash"
)

// Mismatch is a staged archive that cannot be handed to the executor.
type Mismatch struct {
	// ID is the package the archive belongs to
	ID string `json:"id"`

	// Path is the staged archive path
	Path string `json:"path"`

	// Reason is a human-readable explanation
	Reason string `json:"reason"`

	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Verifier checks the staged archives of sideloaded packages.
type Verifier struct {
	fs     fsops.FS
	hasher hash.Hasher
}

// NewVerifier creates a new Verifier.
func NewVerifier(fs fsops.FS, hasher hash.Hasher) *Verifier {
	return &Verifier{fs: fs, hasher: hasher}
}

// CheckTask verifies one task. Returns nil when the task needs no staged
// archive or the archive is present and matches its recorded digest.
func (v *Verifier) CheckTask(task Task) *Mismatch {
	if task.Action == ActionRemove || task.Package == nil || !task.Package.Sideloaded() {
		return nil
	}
	path := task.Package.DebPath

	exists, err := v.fs.Exists(path)
	if err != nil {
		return &Mismatch{ID: task.ID, Path: path, Reason: fmt.Sprintf("Failed to check archive: %v", err)}
	}
	if !exists {
		return &Mismatch{ID: task.ID, Path: path, Reason: "Staged archive is missing"}
	}

	// Archives without a recorded digest are accepted as staged
	if task.Package.SHA256 == "" {
		return nil
	}

	actual, err := v.hasher.HashFile(path)
	if err != nil {
		return &Mismatch{ID: task.ID, Path: path, Reason: fmt.Sprintf("Failed to hash archive: %v", err)}
	}
	if !hash.Equal(actual, task.Package.SHA256) {
		return &Mismatch{
			ID:       task.ID,
			Path:     path,
			Reason:   "Digest mismatch",
			Expected: task.Package.SHA256,
			Actual:   actual,
		}
	}
	return nil
}

// Verify checks every task of the plan in order.
func (v *Verifier) Verify(plan *Plan) []Mismatch {
	var out []Mismatch
	for _, task := range plan.Tasks {
		if m := v.CheckTask(task); m != nil {
			out = append(out, *m)
		}
	}
	return out
}
