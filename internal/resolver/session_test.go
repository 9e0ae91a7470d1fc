package resolver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/debplan/internal/pkgdb"
	"github.com/danieljhkim/debplan/internal/planner"
	"github.com/danieljhkim/debplan/internal/queue"
)

func newDB(t *testing.T, recs ...*pkgdb.PackageRecord) *pkgdb.DB {
	t.Helper()
	for _, r := range recs {
		if r.Source == "" && !r.Installed {
			r.Source = "main"
		}
	}
	snap := &pkgdb.Snapshot{
		Generation: 1,
		Sources:    []*pkgdb.Source{{ID: "main", BaseURL: "https://repo.example.com/"}},
		Packages:   recs,
	}
	db, err := snap.Build()
	require.NoError(t, err)
	return db
}

func get(t *testing.T, db *pkgdb.DB, id, version string) *pkgdb.Package {
	t.Helper()
	p, ok := db.Package(id, version)
	require.True(t, ok, "package %s@%s not in snapshot", id, version)
	return p
}

func ids(pkgs []*pkgdb.Package) []string {
	out := []string{}
	for _, p := range pkgs {
		out = append(out, p.ID)
	}
	return out
}

func TestAdd_Idempotent(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y, missing"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0"},
	)
	s := New(db, Options{}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))
	queued, issues := s.QueuedIDs(), s.Issues()

	require.NoError(t, s.Add(x, queue.Install))
	assert.Equal(t, queued, s.QueuedIDs())
	assert.Equal(t, issues, s.Issues())
	assert.Equal(t, 1, s.NumberOfPackagesInQueue(queue.Install))
}

func TestAdd_UserQueuesAreExclusive(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0", Installed: true})
	s := New(db, Options{}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))
	require.NoError(t, s.Add(x, queue.Reinstall))

	count := 0
	for _, typ := range []queue.Type{queue.Install, queue.Remove, queue.Reinstall, queue.Upgrade, queue.Downgrade} {
		if s.Contains(x, typ) {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, s.Contains(x, queue.Reinstall))
}

func TestAdd_RejectsSystemQueues(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0"})
	s := New(db, Options{}, nil)

	for _, typ := range []queue.Type{queue.Dependency, queue.Essential, queue.Conflict} {
		err := s.Add(get(t, db, "x", "1.0"), typ)
		assert.True(t, errors.Is(err, ErrNotUserQueue), "queue %s", typ)
	}
	assert.Empty(t, s.QueuedIDs())
}

func TestAddDependency_PullsNewerVersionOverInstalled(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y (>= 2.0)"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "y", Version: "2.1"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))

	deps := s.Queue(queue.Dependency)
	require.Len(t, deps, 1)
	assert.Equal(t, "y", deps[0].ID)
	assert.Equal(t, "2.1", deps[0].Version)
	assert.Equal(t, []string{"x"}, s.DependencyOf("y"))
	assert.False(t, s.HasIssues())
}

func TestAddDependency_InstalledSatisfies(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y (>= 1.0)"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "y", Version: "2.1"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	assert.Zero(t, s.NumberOfPackagesInQueue(queue.Dependency))
	assert.False(t, s.HasIssues())
}

func TestAddDependency_Unresolved(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "z (>= 1.0)"})
	s := New(db, Options{}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))

	assert.Equal(t, []queue.Issue{{
		PackageID: "x",
		Kind:      queue.UnresolvedDependency,
		Reason:    "unresolved dependency: z >= 1.0",
	}}, s.Issues())
	assert.True(t, s.Contains(x, queue.Install))
}

func TestAddDependency_ReturnsFalseOnIssue(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "ok", Version: "1.0", Depends: "y"},
		&pkgdb.PackageRecord{ID: "bad", Version: "1.0", Depends: "nothing"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0"},
	)
	s := New(db, Options{}, nil)

	assert.True(t, s.AddDependency(get(t, db, "ok", "1.0")))
	assert.False(t, s.AddDependency(get(t, db, "bad", "1.0")))
}

func TestAddDependency_MalformedVersion(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "z (>= 1.0)"},
		&pkgdb.PackageRecord{ID: "z", Version: "bogus"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))

	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, queue.MalformedVersion, issues[0].Kind)
	assert.Equal(t, "unresolved dependency: z >= 1.0", issues[0].Reason)
}

func TestAddDependency_AlternativesAndProviders(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "tweak", Version: "1.0", Depends: "mobilesubstrate | libsubstrate"},
		&pkgdb.PackageRecord{ID: "ellekit", Version: "1.0", Provides: "libsubstrate"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "tweak", "1.0"), queue.Install))
	assert.Equal(t, []string{"ellekit"}, ids(s.Queue(queue.Dependency)))
	assert.False(t, s.HasIssues())
}

func TestAddDependency_EssentialQueue(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "base"},
		&pkgdb.PackageRecord{ID: "base", Version: "1.0", Essential: true},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	assert.Equal(t, []string{"base"}, ids(s.Queue(queue.Essential)))
	assert.Zero(t, s.NumberOfPackagesInQueue(queue.Dependency))
	assert.True(t, s.ContainsEssentialOrRequiredPackage())
}

func TestAddDependency_IgnoreDependencies(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "missing", IgnoreDependencies: true})
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	assert.False(t, s.HasIssues())
}

func TestAddDependency_Cycle(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "a"},
		&pkgdb.PackageRecord{ID: "a", Version: "1.0", Depends: "b"},
		&pkgdb.PackageRecord{ID: "b", Version: "1.0", Depends: "a"},
	)
	s := New(db, Options{}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))
	assert.Equal(t, []string{"a", "b"}, ids(s.Queue(queue.Dependency)))
	assert.Equal(t, []string{"b", "x"}, s.DependencyOf("a"))
	assert.Equal(t, []string{"a"}, s.DependencyOf("b"))
	assert.False(t, s.HasIssues())

	levels := s.TopDownQueue()
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"a", "b"}, levels[0].IDs)
	assert.True(t, levels[0].Cyclic)
	assert.Equal(t, []string{"x"}, levels[1].IDs)
	assert.False(t, levels[1].Cyclic)

	s.Dequeue(x)
	assert.Empty(t, s.QueuedIDs())
}

func TestPlan_MalformedVersionWhileOrdering(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "z", Version: "bogus"},
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y | z (>= 1.0)"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "z", "bogus"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	require.False(t, s.HasIssues())

	plan := s.Plan()
	assert.Equal(t, []queue.Issue{{
		PackageID: "x",
		Kind:      queue.MalformedVersion,
		Reason:    "malformed version while ordering x (1.0) after z (bogus)",
		Related:   "z",
	}}, plan.Issues)
	require.Len(t, plan.Levels, 2)
	assert.Equal(t, []string{"y", "z"}, plan.Levels[0].IDs)
	assert.Equal(t, []string{"x"}, plan.Levels[1].IDs)
	assert.False(t, s.HasIssues())
}

func TestDequeue_KeepsSharedDependencies(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "shared, only-x"},
		&pkgdb.PackageRecord{ID: "w", Version: "1.0", Depends: "shared"},
		&pkgdb.PackageRecord{ID: "shared", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "only-x", Version: "1.0"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "w", "1.0"), queue.Install))
	assert.Equal(t, []string{"w", "x"}, s.DependencyOf("shared"))

	removed := s.DequeueID("x")
	assert.Equal(t, []string{"x", "only-x"}, ids(removed))
	assert.Equal(t, []string{"shared"}, ids(s.Queue(queue.Dependency)))
	assert.Equal(t, []string{"w"}, s.DependencyOf("shared"))
}

func TestTopDownQueue_TopologicalOrder(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "app", Version: "1.0", Depends: "lib, base"},
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Depends: "base"},
		&pkgdb.PackageRecord{ID: "base", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "tool", Version: "1.0"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.AddPackages([]*pkgdb.Package{get(t, db, "app", "1.0"), get(t, db, "tool", "1.0")}, queue.Install))

	levels := s.TopDownQueue()
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"base", "tool"}, levels[0].IDs)
	assert.Equal(t, []string{"lib"}, levels[1].IDs)
	assert.Equal(t, []string{"app"}, levels[2].IDs)

	levelOf := make(map[string]int)
	for _, l := range levels {
		for _, id := range l.IDs {
			levelOf[id] = l.Index
		}
	}
	for _, l := range levels {
		for _, p := range l.Packages {
			for _, group := range p.Depends {
				for _, c := range group {
					if dl, ok := levelOf[c.Name]; ok {
						assert.Less(t, dl, l.Index, "%s must come after %s", p.ID, c.Name)
					}
				}
			}
		}
	}
}

func TestAddConflict_ReportsBothDirections(t *testing.T) {
	tests := []struct {
		name string
		recs []*pkgdb.PackageRecord
	}{
		{
			name: "requester declares",
			recs: []*pkgdb.PackageRecord{
				{ID: "x", Version: "1.0", Conflicts: "old"},
				{ID: "old", Version: "1.0", Installed: true},
			},
		},
		{
			name: "installed package declares",
			recs: []*pkgdb.PackageRecord{
				{ID: "x", Version: "1.0"},
				{ID: "old", Version: "1.0", Installed: true, Conflicts: "x (<< 2.0)"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newDB(t, tt.recs...)
			s := New(db, Options{}, nil)

			require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))

			assert.Equal(t, []queue.Issue{{
				PackageID: "x",
				Kind:      queue.UnresolvableConflict,
				Reason:    "conflicts with old (1.0)",
				Related:   "old",
			}}, s.Issues())
			assert.Equal(t, []string{"old"}, ids(s.Queue(queue.Conflict)))
			assert.Equal(t, []string{"x"}, s.ConflictOf("old"))
			assert.Zero(t, s.NumberOfPackagesInQueue(queue.Remove))
		})
	}
}

func TestAddConflict_RemoveConflicts(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Conflicts: "old"},
		&pkgdb.PackageRecord{ID: "old", Version: "1.0", Installed: true},
	)
	s := New(db, Options{RemoveConflicts: true}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))
	assert.False(t, s.HasIssues())
	assert.Equal(t, []string{"old"}, s.PackageIDsQueuedForRemoval())
	by, ok := s.RemovedBy("old")
	require.True(t, ok)
	assert.Equal(t, "x", by)

	s.Dequeue(x)
	assert.Empty(t, s.PackageIDsQueuedForRemoval())
}

func TestAddConflict_ReplacesRemovesInstalled(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Conflicts: "old", Replaces: "old"},
		&pkgdb.PackageRecord{ID: "old", Version: "1.0", Installed: true},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	assert.False(t, s.HasIssues())
	assert.Zero(t, s.NumberOfPackagesInQueue(queue.Conflict))
	assert.Equal(t, []string{"old"}, s.PackageIDsQueuedForRemoval())
	by, ok := s.RemovedBy("old")
	require.True(t, ok)
	assert.Equal(t, "x", by)
}

func TestAddConflict_ReplacesDequeuesQueued(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "b", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "a", Version: "1.0", Conflicts: "b", Replaces: "b"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "b", "1.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "a", "1.0"), queue.Install))

	assert.Equal(t, []string{"a"}, s.QueuedIDs())
	assert.False(t, s.HasIssues())

	plan := s.Plan()
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "a", plan.Tasks[0].ID)
}

func TestAddConflict_KeepsUserSelection(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "a", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "b", Version: "1.0", Conflicts: "a"},
	)
	s := New(db, Options{RemoveConflicts: true}, nil)

	require.NoError(t, s.Add(get(t, db, "a", "1.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "b", "1.0"), queue.Install))

	assert.Equal(t, []string{"a", "b"}, s.QueuedIDs())
	assert.Equal(t, []queue.Issue{{
		PackageID: "b",
		Kind:      queue.UnresolvableConflict,
		Reason:    "conflicts with a (1.0)",
		Related:   "a",
	}}, s.Issues())
}

func TestAddConflict_DependencyConflictsWithRequester(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0", Conflicts: "x"},
	)
	s := New(db, Options{RemoveConflicts: true}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))

	assert.Equal(t, []string{"x", "y"}, s.QueuedIDs())
	assert.True(t, s.HasIssues())
	for _, issue := range s.Issues() {
		assert.Equal(t, queue.UnresolvableConflict, issue.Kind)
	}
}

func TestAddConflict_DequeuesPulledPackage(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "w", Version: "1.0", Depends: "lib"},
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "b", Version: "1.0", Conflicts: "lib"},
	)
	s := New(db, Options{RemoveConflicts: true}, nil)

	require.NoError(t, s.Add(get(t, db, "w", "1.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "b", "1.0"), queue.Install))

	assert.Equal(t, []string{"w", "b"}, s.QueuedIDs())
	assert.Equal(t, []queue.Issue{{
		PackageID: "w",
		Kind:      queue.UnresolvableConflict,
		Reason:    "dependency lib (1.0) dropped: conflicts with b (1.0)",
		Related:   "b",
	}}, s.Issues())

	s.DequeueID("b")
	assert.False(t, s.HasIssues())
}

func TestAddConflict_IssueClearedWithCounterpart(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "a", Version: "1.0"},
		&pkgdb.PackageRecord{ID: "b", Version: "1.0", Conflicts: "a"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "a", "1.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "b", "1.0"), queue.Install))
	require.True(t, s.HasIssues())

	s.DequeueID("a")
	assert.Equal(t, []string{"b"}, s.QueuedIDs())
	assert.False(t, s.HasIssues())
	assert.Empty(t, s.Issues())
}

func TestAddConflict_MalformedVersion(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "a", Version: "1.0", Conflicts: "b (<< 2.0)"},
		&pkgdb.PackageRecord{ID: "b", Version: "bogus", Installed: true},
	)
	s := New(db, Options{}, nil)

	a := get(t, db, "a", "1.0")
	require.NoError(t, s.Add(a, queue.Install))

	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "a", issues[0].PackageID)
	assert.Equal(t, queue.MalformedVersion, issues[0].Kind)
	assert.Equal(t, "malformed version while checking conflicts with b (bogus)", issues[0].Reason)
	assert.True(t, s.Contains(a, queue.Install))
	assert.Zero(t, s.NumberOfPackagesInQueue(queue.Conflict))
}

func TestRemove_MalformedReverseDependency(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "app", Version: "1.0", Installed: true, Depends: "lib (>= 0.5) | alt (>= 1.0)"},
		&pkgdb.PackageRecord{ID: "alt", Version: "bogus", Installed: true},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "lib", "1.0"), queue.Remove))

	assert.Equal(t, []string{"lib", "app"}, s.PackageIDsQueuedForRemoval())
	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, queue.MalformedVersion, issues[0].Kind)
	assert.Equal(t, "lib", issues[0].PackageID)
}

func TestAddConflict_EssentialNeverRemoved(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Conflicts: "base"},
		&pkgdb.PackageRecord{ID: "base", Version: "1.0", Installed: true, Essential: true},
	)
	s := New(db, Options{RemoveConflicts: true}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, queue.UnresolvableConflict, issues[0].Kind)
	assert.Equal(t, "conflicts with essential package base (1.0)", issues[0].Reason)
	assert.Empty(t, s.PackageIDsQueuedForRemoval())
	assert.Equal(t, []string{"base"}, ids(s.Queue(queue.Conflict)))
}

func TestAddConflict_PulledDependency(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "y"},
		&pkgdb.PackageRecord{ID: "y", Version: "1.0", Conflicts: "old"},
		&pkgdb.PackageRecord{ID: "old", Version: "1.0", Installed: true},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "y", issues[0].PackageID)
	assert.Equal(t, queue.UnresolvableConflict, issues[0].Kind)
}

func TestRemove_EssentialRefused(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "base", Version: "1.0", Installed: true, Essential: true})
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "base", "1.0"), queue.Remove))

	_, queued := s.LocateID("base")
	assert.False(t, queued)
	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, queue.EssentialRemovalAttempted, issues[0].Kind)
	assert.Equal(t, "base", issues[0].PackageID)
}

func TestRemove_RequiredByQueuedInstallRefused(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "lib"},
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Installed: true},
	)
	s := New(db, Options{}, nil)
	lib := get(t, db, "lib", "1.0")

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	assert.True(t, s.IsEssentialOrRequired(lib))

	require.NoError(t, s.Add(lib, queue.Remove))
	assert.Empty(t, s.PackageIDsQueuedForRemoval())
	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "cannot remove lib (1.0): required by x", issues[0].Reason)
}

func TestRemove_TakesReverseDependencies(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "app", Version: "1.0", Installed: true, Depends: "lib"},
		&pkgdb.PackageRecord{ID: "other", Version: "1.0", Installed: true, Depends: "lib | lib-alt"},
		&pkgdb.PackageRecord{ID: "lib-alt", Version: "1.0", Installed: true},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "lib", "1.0"), queue.Remove))
	assert.Equal(t, []string{"lib", "app"}, s.PackageIDsQueuedForRemoval())
	by, ok := s.RemovedBy("app")
	require.True(t, ok)
	assert.Equal(t, "lib", by)
	assert.False(t, s.HasIssues())
}

func TestRemove_RolledBackWhenEssentialWouldBreak(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "mid", Version: "1.0", Installed: true, Depends: "lib"},
		&pkgdb.PackageRecord{ID: "base", Version: "1.0", Installed: true, Essential: true, Depends: "mid"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "lib", "1.0"), queue.Remove))
	assert.Empty(t, s.QueuedIDs())

	issues := s.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, queue.Issue{
		PackageID: "lib",
		Kind:      queue.EssentialRemovalAttempted,
		Reason:    "removing lib (1.0) would remove mid (1.0), required by base",
	}, issues[0])
}

func TestRemove_NotInstalledOnlyDequeues(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0"})
	s := New(db, Options{}, nil)
	x := get(t, db, "x", "1.0")

	require.NoError(t, s.Add(x, queue.Install))
	require.NoError(t, s.Add(x, queue.Remove))
	assert.Empty(t, s.QueuedIDs())
}

func TestRemovingSelf(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "xyz.willy.zebra", Version: "1.4", Installed: true})
	s := New(db, Options{SelfID: "xyz.willy.zebra"}, nil)

	assert.False(t, s.RemovingSelf())
	require.NoError(t, s.Add(get(t, db, "xyz.willy.zebra", "1.4"), queue.Remove))
	assert.True(t, s.RemovingSelf())
}

func TestTasksToPerform_RemovalsFirstLeafFirst(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "lib", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "app", Version: "1.0", Installed: true, Depends: "lib"},
		&pkgdb.PackageRecord{ID: "new", Version: "2.0", Depends: "dep", Filename: "pool/new_2.0.deb"},
		&pkgdb.PackageRecord{ID: "dep", Version: "1.0", DebPath: "/staged/dep.deb"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "new", "2.0"), queue.Install))
	require.NoError(t, s.Add(get(t, db, "lib", "1.0"), queue.Remove))

	tasks := s.TasksToPerform()
	require.Len(t, tasks, 4)

	type step struct {
		action planner.Action
		id     string
		path   string
	}
	var got []step
	for _, task := range tasks {
		got = append(got, step{task.Action, task.ID, task.Path})
	}
	assert.Equal(t, []step{
		{planner.ActionRemove, "app", ""},
		{planner.ActionRemove, "lib", ""},
		{planner.ActionInstall, "dep", "/staged/dep.deb"},
		{planner.ActionInstall, "new", "https://repo.example.com/pool/new_2.0.deb"},
	}, got)

	plan := s.Plan()
	assert.Len(t, plan.Tasks, 4)
	assert.Len(t, plan.Levels, 2)
	assert.False(t, plan.HasIssues())
}

func TestTasksToPerform_ActionsPerQueue(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "a", Version: "1.0", Installed: true},
		&pkgdb.PackageRecord{ID: "b", Version: "2.0"},
		&pkgdb.PackageRecord{ID: "c", Version: "0.9"},
	)
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "a", "1.0"), queue.Reinstall))
	require.NoError(t, s.Add(get(t, db, "b", "2.0"), queue.Upgrade))
	require.NoError(t, s.Add(get(t, db, "c", "0.9"), queue.Downgrade))

	actions := make(map[string]planner.Action)
	for _, task := range s.TasksToPerform() {
		actions[task.ID] = task.Action
	}
	assert.Equal(t, map[string]planner.Action{
		"a": planner.ActionReinstall,
		"b": planner.ActionUpgrade,
		"c": planner.ActionDowngrade,
	}, actions)
	assert.Equal(t, []queue.Type{queue.Reinstall, queue.Upgrade, queue.Downgrade}, s.Actions())
}

func TestClear(t *testing.T) {
	db := newDB(t, &pkgdb.PackageRecord{ID: "x", Version: "1.0", Depends: "missing"})
	s := New(db, Options{}, nil)

	require.NoError(t, s.Add(get(t, db, "x", "1.0"), queue.Install))
	require.True(t, s.HasIssues())

	s.Clear()
	assert.Empty(t, s.QueuedIDs())
	assert.False(t, s.HasIssues())
	assert.Empty(t, s.TasksToPerform())
}

func TestSession_ConcurrentUse(t *testing.T) {
	db := newDB(t,
		&pkgdb.PackageRecord{ID: "a", Version: "1.0", Depends: "shared"},
		&pkgdb.PackageRecord{ID: "b", Version: "1.0", Depends: "shared"},
		&pkgdb.PackageRecord{ID: "shared", Version: "1.0"},
	)
	s := New(db, Options{}, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		p := get(t, db, id, "1.0")
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Add(p, queue.Install)
		}()
		go func() {
			defer wg.Done()
			_ = s.TasksToPerform()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"a", "b"}, s.DependencyOf("shared"))
	assert.Len(t, s.TasksToPerform(), 3)
}
