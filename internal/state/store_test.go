package state

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/danieljhkim/debplan/internal/fsops"
	"github.com/danieljhkim/debplan/internal/queue"
)

func TestFileSessionStore_SaveLoad(t *testing.T) {
	fs := fsops.NewMemFS()
	store := NewFileSessionStore(fs, "/root/.debplan/sessions")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state := NewSessionState("default", now)
	state.Snapshot = "/data/snapshot.json"
	state.Generation = 4
	state.Options.RemoveConflicts = true
	state.Select("app", "2.0", queue.Install)
	state.Select("old", "1.0", queue.Remove)

	if err := store.Save(state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load("default")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Generation != 4 || loaded.Snapshot != "/data/snapshot.json" {
		t.Errorf("unexpected snapshot fields: %+v", loaded)
	}
	if !loaded.Options.RemoveConflicts {
		t.Error("expected RemoveConflicts to survive")
	}
	if len(loaded.Selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(loaded.Selections))
	}
	if loaded.Selections[1] != (Selection{ID: "old", Version: "1.0", Queue: queue.Remove}) {
		t.Errorf("unexpected selection: %+v", loaded.Selections[1])
	}
	if !loaded.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", loaded.CreatedAt, now)
	}

	data, _ := fs.ReadFile("/root/.debplan/sessions/default.json")
	if len(data) == 0 {
		t.Error("expected session file on disk")
	}
}

func TestFileSessionStore_LoadMissing(t *testing.T) {
	store := NewFileSessionStore(fsops.NewMemFS(), "/sessions")

	if _, err := store.Load("nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestFileSessionStore_InvalidName(t *testing.T) {
	store := NewFileSessionStore(fsops.NewMemFS(), "/sessions")

	for _, name := range []string{"", "../escape", "a/b"} {
		if _, err := store.Load(name); err == nil {
			t.Errorf("Load(%q) should fail", name)
		}
		if err := store.Save(&SessionState{Name: name}); err == nil {
			t.Errorf("Save(%q) should fail", name)
		}
	}
}

func TestFileSessionStore_DeleteAndList(t *testing.T) {
	fs := fsops.NewMemFS()
	store := NewFileSessionStore(fs, "/sessions")
	now := time.Now()

	for _, name := range []string{"b", "a"} {
		if err := store.Save(NewSessionState(name, now)); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}
	fs.WriteFile("/sessions/notes.txt", []byte("ignored"))

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v, want [a b]", names)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("a"); err != nil {
		t.Errorf("Delete() of missing session should succeed, got %v", err)
	}
	if _, err := store.Load("a"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() after Delete error = %v", err)
	}
}

func TestSessionState_Deselect(t *testing.T) {
	state := NewSessionState("s", time.Now())
	state.Select("x", "1.0", queue.Install)
	state.Select("y", "1.0", queue.Install)
	state.Select("x", "1.0", queue.Reinstall)

	state.Deselect("x")

	want := []Selection{
		{ID: "y", Version: "1.0", Queue: queue.Install},
		{ID: "x", Dequeue: true},
	}
	if len(state.Selections) != len(want) {
		t.Fatalf("Selections = %+v, want %+v", state.Selections, want)
	}
	for i := range want {
		if state.Selections[i] != want[i] {
			t.Errorf("Selections[%d] = %+v, want %+v", i, state.Selections[i], want[i])
		}
	}

	state.Reset()
	if state.Selections == nil || len(state.Selections) != 0 {
		t.Errorf("Reset() left %v", state.Selections)
	}
}
