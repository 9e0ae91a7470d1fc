package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danieljhkim/debplan/internal/debver"
	"github.com/danieljhkim/debplan/internal/depexpr"
	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/planner"
	"github.com/danieljhkim/debplan/internal/queue"
)

// graph is a dependency graph over a set of queued packages. An edge a -> b
// means a depends on b.
type graph struct {
	nodes map[string]*pkgdb.Package
	ids   []string
	edges map[string][]string

	// malformed holds one issue per pair whose edge could not be decided
	malformed []queue.Issue
}

// newGraph links every package to the packages of the set that satisfy an
// alternative of one of its dependency groups.
func newGraph(pkgs []*pkgdb.Package) *graph {
	g := &graph{
		nodes: make(map[string]*pkgdb.Package, len(pkgs)),
		edges: make(map[string][]string, len(pkgs)),
	}
	for _, p := range pkgs {
		g.nodes[p.ID] = p
		g.ids = append(g.ids, p.ID)
	}
	sort.Strings(g.ids)

	for _, id := range g.ids {
		p := g.nodes[id]
		if p.IgnoreDependencies {
			continue
		}
		for _, other := range g.ids {
			if other == id {
				continue
			}
			dep := g.nodes[other]
			ok, err := dependsOn(p, dep)
			if ok {
				g.edges[id] = append(g.edges[id], other)
			} else if errors.Is(err, debver.ErrMalformed) {
				g.malformed = append(g.malformed, queue.Issue{
					PackageID: id,
					Kind:      queue.MalformedVersion,
					Reason:    fmt.Sprintf("malformed version while ordering %s after %s", p, dep),
					Related:   other,
				})
			}
		}
	}
	return g
}

// dependsOn reports whether dep satisfies a group of p. Comparisons that hit
// a malformed version add no edge and are returned in err.
func dependsOn(p, dep *pkgdb.Package) (bool, error) {
	only := func(string) []*pkgdb.Package { return []*pkgdb.Package{dep} }
	var errs []error
	for _, group := range p.Depends {
		_, ok, err := depexpr.Evaluate(group, only)
		if ok {
			return true, nil
		}
		errs = append(errs, err)
	}
	return false, errors.Join(errs...)
}

// components returns the strongly connected components of the graph using
// Tarjan's algorithm. Members of each component are sorted by ID.
func (g *graph) components() [][]string {
	var (
		index   = make(map[string]int)
		low     = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		next    int
		out     [][]string
	)

	var visit func(id string)
	visit = func(id string) {
		index[id] = next
		low[id] = next
		next++
		stack = append(stack, id)
		onStack[id] = true

		for _, dep := range g.edges[id] {
			if _, seen := index[dep]; !seen {
				visit(dep)
				low[id] = min(low[id], low[dep])
			} else if onStack[dep] {
				low[id] = min(low[id], index[dep])
			}
		}

		if low[id] == index[id] {
			var comp []string
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				comp = append(comp, top)
				if top == id {
					break
				}
			}
			sort.Strings(comp)
			out = append(out, comp)
		}
	}

	for _, id := range g.ids {
		if _, seen := index[id]; !seen {
			visit(id)
		}
	}
	return out
}

// layer is a group of packages at the same depth.
type layer struct {
	pkgs   []*pkgdb.Package
	cyclic bool
}

// layers groups the graph by depth: packages with no dependencies in the set
// sit at depth 0, everything else one above its deepest dependency. Members
// of a cycle share a depth.
func (g *graph) layers() []layer {
	comps := g.components()
	compOf := make(map[string]int, len(g.ids))
	for i, comp := range comps {
		for _, id := range comp {
			compOf[id] = i
		}
	}

	depth := make(map[int]int, len(comps))
	var depthOf func(c int) int
	depthOf = func(c int) int {
		if d, ok := depth[c]; ok {
			return d
		}
		d := 0
		for _, id := range comps[c] {
			for _, dep := range g.edges[id] {
				if dc := compOf[dep]; dc != c {
					d = max(d, depthOf(dc)+1)
				}
			}
		}
		depth[c] = d
		return d
	}

	var out []layer
	for c, comp := range comps {
		d := depthOf(c)
		for len(out) <= d {
			out = append(out, layer{})
		}
		for _, id := range comp {
			out[d].pkgs = append(out[d].pkgs, g.nodes[id])
		}
		if len(comp) > 1 {
			out[d].cyclic = true
		}
	}
	for _, l := range out {
		sort.Slice(l.pkgs, func(i, j int) bool { return l.pkgs[i].ID < l.pkgs[j].ID })
	}
	return out
}

// TopDownQueue groups every package queued for installation into levels.
// A level only depends on earlier levels; packages in one level can be
// installed in any order. Packages that depend on each other share a level
// flagged Cyclic.
func (s *Session) TopDownQueue() []planner.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.topDownQueue()
}

func (s *Session) topDownQueue() []planner.Level {
	return s.levels(newGraph(s.queuedInstalls()))
}

func (s *Session) levels(g *graph) []planner.Level {
	for _, issue := range g.malformed {
		s.log.WithField("package", issue.PackageID).Debug(issue.Reason)
	}
	layers := g.layers()
	levels := make([]planner.Level, 0, len(layers))
	for i, l := range layers {
		level := planner.NewLevel(i, l.pkgs, l.cyclic)
		if l.cyclic {
			s.log.WithField("level", i).WithField("packages", strings.Join(level.IDs, ",")).
				Warn("dependency cycle: installing packages of this level together")
		}
		levels = append(levels, level)
	}
	return levels
}

// TasksToPerform returns the ordered executor tasks: removals first, leaf
// packages before the packages they depend on, then installations level by
// level. Conflict entries produce no task.
func (s *Session) TasksToPerform() []planner.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tasks(s.topDownQueue(), newGraph(s.q.Queue(queue.Remove)))
}

// Plan assembles tasks, install levels and issues. Version comparisons that
// failed while ordering are reported as issues of the plan only.
func (s *Session) Plan() *planner.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	installs := newGraph(s.queuedInstalls())
	removals := newGraph(s.q.Queue(queue.Remove))

	plan := planner.NewPlan()
	plan.Levels = append(plan.Levels, s.levels(installs)...)
	for _, task := range s.tasks(plan.Levels, removals) {
		plan.AddTask(task)
	}
	plan.Issues = append(plan.Issues, s.q.Issues()...)
	plan.Issues = append(plan.Issues, installs.malformed...)
	plan.Issues = append(plan.Issues, removals.malformed...)
	return plan
}

func (s *Session) tasks(levels []planner.Level, removalGraph *graph) []planner.Task {
	var tasks []planner.Task

	removals := removalGraph.layers()
	step := 0
	for i := len(removals) - 1; i >= 0; i-- {
		for _, p := range removals[i].pkgs {
			tasks = append(tasks, planner.Task{
				Action:  planner.ActionRemove,
				ID:      p.ID,
				Version: p.Version,
				Level:   step,
				Package: p,
			})
		}
		step++
	}

	for _, level := range levels {
		for _, p := range level.Packages {
			_, t, _ := s.q.Entry(p.ID)
			action, ok := planner.ActionFor(t)
			if !ok {
				continue
			}
			tasks = append(tasks, planner.Task{
				Action:  action,
				ID:      p.ID,
				Version: p.Version,
				Path:    s.archivePath(p),
				Level:   level.Index,
				Package: p,
			})
		}
	}
	return tasks
}

// archivePath returns where the executor finds the archive of p.
func (s *Session) archivePath(p *pkgdb.Package) string {
	if p.Sideloaded() {
		return p.DebPath
	}
	src, ok := s.db.SourceOf(p)
	if !ok || src.BaseURL == "" || p.Filename == "" {
		return p.Filename
	}
	return strings.TrimSuffix(src.BaseURL, "/") + "/" + strings.TrimPrefix(p.Filename, "/")
}
