package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeClock hands out timers that fire only when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func TestScheduler_Debounces(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	sc := newScheduler(100*time.Millisecond, func() { fired++ })
	sc.afterFunc = clock.afterFunc

	for i := 0; i < 5; i++ {
		sc.Schedule()
	}
	if got := clock.count(); got != 5 {
		t.Errorf("armed %d timers, want 5", got)
	}
	active := clock.active()
	if len(active) != 1 {
		t.Fatalf("%d timers active, want 1", len(active))
	}
	if active[0].d != 100*time.Millisecond {
		t.Errorf("timer duration = %v, want 100ms", active[0].d)
	}
	if !sc.Pending() {
		t.Error("scheduler should be pending")
	}

	// Timers replaced by a later Schedule do nothing even if they run.
	clock.timers[0].f()
	if fired != 0 {
		t.Errorf("stale timer fired the save")
	}

	active[0].f()
	if fired != 1 {
		t.Errorf("fired %d saves, want 1", fired)
	}
	if sc.Pending() {
		t.Error("scheduler still pending after firing")
	}
}

func TestScheduler_Cancel(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	sc := newScheduler(time.Second, func() { fired++ })
	sc.afterFunc = clock.afterFunc

	sc.Schedule()
	sc.Cancel()
	if sc.Pending() {
		t.Error("scheduler pending after Cancel")
	}
	if len(clock.active()) != 0 {
		t.Error("timer not stopped by Cancel")
	}

	clock.timers[0].f()
	if fired != 0 {
		t.Error("cancelled timer fired the save")
	}
}

func TestScheduler_Never(t *testing.T) {
	clock := &fakeClock{}
	sc := newScheduler(Never, func() { t.Error("save fired with throttle Never") })
	sc.afterFunc = clock.afterFunc

	sc.Schedule()
	if clock.count() != 0 {
		t.Error("throttle Never armed a timer")
	}
	if sc.Pending() {
		t.Error("throttle Never reports a pending save")
	}
}

func TestStore_AutosaveAfterBurst(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"outline.yaml": "items:\n  - a\n"})
	s := newTestStore(t, fsys, 100*time.Millisecond)
	clock := &fakeClock{}
	s.sched.afterFunc = clock.afterFunc
	mustLoad(t, s, "outline.yaml")

	if clock.count() != 0 {
		t.Errorf("Load armed %d timers", clock.count())
	}

	tr := s.Tree()
	for i, text := range []string{"b", "c", "d"} {
		mustCreate(t, tr, tr.Root(), i+1, text, nil)
	}
	if !s.Pending() {
		t.Fatal("store should have a pending save")
	}
	if got := fsys.Writes(); len(got) != 0 {
		t.Fatalf("wrote %v before the throttle elapsed", got)
	}

	active := clock.active()
	if len(active) != 1 {
		t.Fatalf("%d timers active, want 1", len(active))
	}
	active[0].f()

	if diff := cmp.Diff([]string{"outline.yaml"}, fsys.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	if got, want := readFile(t, fsys, "outline.yaml"), "items:\n  - a\n  - b\n  - c\n  - d\n"; got != want {
		t.Errorf("saved file = %q, want %q", got, want)
	}
	if s.Pending() || s.Dirty() {
		t.Error("store should be idle after the scheduled save")
	}
}

func TestStore_SaveCancelsPending(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"outline.yaml": "items:\n  - a\n"})
	s := newTestStore(t, fsys, time.Hour)
	clock := &fakeClock{}
	s.sched.afterFunc = clock.afterFunc
	mustLoad(t, s, "outline.yaml")

	tr := s.Tree()
	mustCreate(t, tr, tr.Root(), 1, "b", nil)
	mustSave(t, s)

	if s.Pending() {
		t.Error("explicit Save left a save pending")
	}
	clock.timers[0].f()
	if diff := cmp.Diff([]string{"outline.yaml"}, fsys.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_NeverSavesOnlyExplicitly(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"outline.yaml": "items:\n  - a\n"})
	s := newTestStore(t, fsys, Never)
	mustLoad(t, s, "outline.yaml")

	tr := s.Tree()
	mustCreate(t, tr, tr.Root(), 1, "b", nil)
	if s.Pending() {
		t.Error("throttle Never scheduled a save")
	}
	if !s.Dirty() {
		t.Error("change not tracked")
	}
	if got := fsys.Writes(); len(got) != 0 {
		t.Errorf("wrote %v without Save", got)
	}
}

func TestStore_AutosaveWithRealTimer(t *testing.T) {
	fsys := newTestFS(t, map[string]string{"outline.yaml": "items:\n  - a\n"})
	s := newTestStore(t, fsys, 10*time.Millisecond)
	mustLoad(t, s, "outline.yaml")

	tr := s.Tree()
	mustCreate(t, tr, tr.Root(), 1, "b", nil)

	deadline := time.Now().Add(2 * time.Second)
	for len(fsys.Writes()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled save did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got, want := readFile(t, fsys, "outline.yaml"), "items:\n  - a\n  - b\n"; got != want {
		t.Errorf("saved file = %q, want %q", got, want)
	}
}
