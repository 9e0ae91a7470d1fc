package planner

import (
	"fmt"

	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/queue"
)

// Plan is an ordered set of package operations.
type Plan struct {
	// Tasks is the ordered list of operations to execute
	Tasks []Task `json:"tasks"`

	// Levels groups the installs by dependency depth
	Levels []Level `json:"levels"`

	// Issues lists problems that make the plan unsafe to execute
	Issues []queue.Issue `json:"issues"`
}

// Task is a single executor operation.
type Task struct {
	// Action is what to do with the package
	Action Action `json:"action"`

	ID      string `json:"id"`
	Version string `json:"version"`

	// Path is the archive to install: the staged file for sideloaded
	// packages, otherwise the source URL. Empty for removals.
	Path string `json:"path,omitempty"`

	// Level is the dependency level of an install, or the removal step of a
	// removal
	Level int `json:"level"`

	// Package is the full record
	Package *pkgdb.Package `json:"-"`
}

func (t Task) String() string {
	return fmt.Sprintf("%s %s (%s)", t.Action, t.ID, t.Version)
}

// Level is a set of packages with no dependencies on each other that can be
// installed once every earlier level is done.
type Level struct {
	Index    int              `json:"index"`
	Packages []*pkgdb.Package `json:"-"`

	// IDs mirrors Packages for serialization
	IDs []string `json:"ids"`

	// Cyclic marks a level holding packages that depend on each other
	Cyclic bool `json:"cyclic,omitempty"`
}

// NewLevel creates a level from packages already in their final order.
func NewLevel(index int, pkgs []*pkgdb.Package, cyclic bool) Level {
	ids := make([]string, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	return Level{Index: index, Packages: pkgs, IDs: ids, Cyclic: cyclic}
}

// NewPlan creates a new empty Plan.
func NewPlan() *Plan {
	return &Plan{
		Tasks:  []Task{},
		Levels: []Level{},
		Issues: []queue.Issue{},
	}
}

// HasIssues returns true if the plan has any issues.
func (p *Plan) HasIssues() bool {
	return len(p.Issues) > 0
}

// AddTask adds a task to the plan.
func (p *Plan) AddTask(task Task) {
	p.Tasks = append(p.Tasks, task)
}

// Removals returns the remove tasks, in order.
func (p *Plan) Removals() []Task {
	return p.filter(func(a Action) bool { return a == ActionRemove })
}

// Installs returns every task that installs a package, in order.
func (p *Plan) Installs() []Task {
	return p.filter(func(a Action) bool { return a != ActionRemove })
}

func (p *Plan) filter(keep func(Action) bool) []Task {
	var out []Task
	for _, t := range p.Tasks {
		if keep(t.Action) {
			out = append(out, t)
		}
	}
	return out
}

// HasCycles reports whether any level is cyclic.
func (p *Plan) HasCycles() bool {
	for _, l := range p.Levels {
		if l.Cyclic {
			return true
		}
	}
	return false
}
