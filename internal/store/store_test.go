package store

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/tree"
)

// recordingFS records the names of completed writes.
type recordingFS struct {
	*storage.Dir

	mu     sync.Mutex
	writes []string
}

func (r *recordingFS) Write(ctx context.Context, name, contents string) error {
	if err := r.Dir.Write(ctx, name, contents); err != nil {
		return err
	}
	r.mu.Lock()
	r.writes = append(r.writes, name)
	r.mu.Unlock()
	return nil
}

func (r *recordingFS) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// newTestFS creates an in-memory filesystem holding files.
func newTestFS(t *testing.T, files map[string]string) *recordingFS {
	t.Helper()

	fsys := &recordingFS{Dir: storage.NewMemory()}
	for name, contents := range files {
		if err := fsys.Dir.Write(context.Background(), name, contents); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return fsys
}

// newTestStore creates a store with a silent logger.
func newTestStore(t *testing.T, fsys storage.FS, throttle time.Duration, observers ...tree.Observer) *Store {
	t.Helper()

	s, err := NewWithConfig(fsys, &Config{
		Throttle:  throttle,
		Observers: observers,
		Logger:    log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// mustLoad loads name and fails the test on any error.
func mustLoad(t *testing.T, s *Store, name string) {
	t.Helper()

	errs, err := s.Load(context.Background(), name)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", name, err)
	}
	if len(errs) != 0 {
		t.Fatalf("Load(%s) reported errors: %v", name, errs)
	}
}

func mustSave(t *testing.T, s *Store) {
	t.Helper()

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
}

func readFile(t *testing.T, fsys storage.FS, name string) string {
	t.Helper()

	contents, err := fsys.Read(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return contents
}

// snapshot is the text shape of a subtree.
type snapshot struct {
	Text     string
	Children []snapshot
}

func snapshotOf(t *tree.Tree, id tree.NodeID) snapshot {
	s := snapshot{Text: t.Text(id)}
	for _, c := range t.Children(id) {
		s.Children = append(s.Children, snapshotOf(t, c))
	}
	return s
}

func topLevel(s *Store) []snapshot {
	t := s.Tree()
	if t.Root() == tree.None {
		return nil
	}
	return snapshotOf(t, t.Root()).Children
}

// reload loads name into a fresh store and returns its top-level shape.
func reload(t *testing.T, fsys storage.FS, name string) []snapshot {
	t.Helper()

	s := newTestStore(t, fsys, Never)
	mustLoad(t, s, name)
	return topLevel(s)
}

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}

	s, err := NewWithConfig(storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewWithConfig() with nil config failed: %v", err)
	}
	if s.Tree() == nil {
		t.Error("new store has no tree")
	}
	if s.Tree().Root() != tree.None {
		t.Error("new store should have an empty tree")
	}
}

func TestStore_Stale(t *testing.T) {
	src := "items:\n  - a\n"
	fsys := newTestFS(t, map[string]string{"outline.yaml": src})
	s := newTestStore(t, fsys, Never)
	mustLoad(t, s, "outline.yaml")

	if !s.Owns("outline.yaml") {
		t.Error("store should own its root file")
	}
	if s.Owns("other.yaml") {
		t.Error("store should not own unrelated files")
	}
	if s.Stale("outline.yaml", src) {
		t.Error("unchanged contents reported stale")
	}
	if !s.Stale("outline.yaml", "items: []\n") {
		t.Error("changed contents not reported stale")
	}
	if s.Stale("other.yaml", "x") {
		t.Error("unknown file reported stale")
	}

	tr := s.Tree()
	if err := tr.SetProperty(tr.Child(tr.Root(), 0), "text", "b"); err != nil {
		t.Fatalf("SetProperty() failed: %v", err)
	}
	mustSave(t, s)
	if s.Stale("outline.yaml", readFile(t, fsys, "outline.yaml")) {
		t.Error("contents written by Save reported stale")
	}
}

type hookRecorder struct {
	tree.NopObserver
	events []string
}

func (h *hookRecorder) Loading() { h.events = append(h.events, "loading") }
func (h *hookRecorder) Loaded()  { h.events = append(h.events, "loaded") }
func (h *hookRecorder) Saving()  { h.events = append(h.events, "saving") }
func (h *hookRecorder) Saved()   { h.events = append(h.events, "saved") }

func TestStore_LifecycleHooks(t *testing.T) {
	fsys := newTestFS(t, map[string]string{
		"outline.yaml": "items:\n  - a\n",
		"broken.yaml":  "- a\n",
	})
	hooks := &hookRecorder{}
	s := newTestStore(t, fsys, Never, hooks)

	mustLoad(t, s, "outline.yaml")
	mustSave(t, s)

	want := []string{"loading", "loaded", "saving", "saved"}
	if diff := cmp.Diff(want, hooks.events); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}

	hooks.events = nil
	if _, err := s.Load(context.Background(), "broken.yaml"); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"loading"}, hooks.events); diff != "" {
		t.Errorf("structural error should skip loaded hook (-want +got):\n%s", diff)
	}
}

func TestStore_ObserversSeeChangesFirst(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"outline.yaml": "items:\n  - a\n"})

	var seen []tree.NodeID
	var s *Store
	obs := &insertSpy{fn: func(id tree.NodeID) {
		if _, bound := s.Binding(id); !bound {
			seen = append(seen, id)
		}
	}}
	s = newTestStore(t, fsys, Never, obs)
	mustLoad(t, s, "outline.yaml")

	tr := s.Tree()
	id, err := tr.CreateChild(tr.Root(), 1, "b", nil, nil)
	if err != nil {
		t.Fatalf("CreateChild() failed: %v", err)
	}
	if diff := cmp.Diff([]tree.NodeID{id}, seen); diff != "" {
		t.Errorf("observer should run before the store binds new nodes (-want +got):\n%s", diff)
	}
	if _, ok := s.Binding(id); !ok {
		t.Error("store did not bind inserted node")
	}
}

type insertSpy struct {
	tree.NopObserver
	fn func(tree.NodeID)
}

func (o *insertSpy) Inserted(_ *tree.Tree, id tree.NodeID) { o.fn(id) }

func TestStore_FileOf(t *testing.T) {
	fsys := newTestFS(t, map[string]string{
		"outline.yaml":  "items:\n  - Inbox\n  - __include__: projects.yaml\n",
		"projects.yaml": "text: Projects\nitems:\n  - Garden\n",
	})
	s := newTestStore(t, fsys, Never)
	mustLoad(t, s, "outline.yaml")

	tr := s.Tree()
	proj := tr.Child(tr.Root(), 1)
	tests := []struct {
		id   tree.NodeID
		want string
	}{
		{id: tr.Root(), want: "outline.yaml"},
		{id: tr.Child(tr.Root(), 0), want: "outline.yaml"},
		{id: proj, want: "projects.yaml"},
		{id: tr.Child(proj, 0), want: "projects.yaml"},
	}
	for _, tt := range tests {
		got, err := s.FileOf(tt.id)
		if err != nil {
			t.Fatalf("FileOf(%d) failed: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("FileOf(%q) = %q, want %q", tr.Text(tt.id), got, tt.want)
		}
	}

	if _, err := s.FileOf(tree.NodeID(999)); !errors.Is(err, ErrUnbound) {
		t.Errorf("FileOf(unknown) error = %v, want ErrUnbound", err)
	}
}
