package store

import (
	"sync"
	"time"
)

type stopper interface {
	Stop() bool
}

// scheduler debounces saves: each Schedule restarts a single countdown, so a
// burst of changes yields one save after the last change settles.
type scheduler struct {
	throttle  time.Duration
	fire      func()
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	pending stopper
	gen     uint64
}

func newScheduler(throttle time.Duration, fire func()) *scheduler {
	return &scheduler{
		throttle: throttle,
		fire:     fire,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Schedule arms the save timer, cancelling any pending one.
func (sc *scheduler) Schedule() {
	if sc.throttle < 0 {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.pending != nil {
		sc.pending.Stop()
	}
	sc.gen++
	gen := sc.gen
	sc.pending = sc.afterFunc(sc.throttle, func() {
		sc.mu.Lock()
		// A timer that fired while being replaced or cancelled is stale.
		if sc.gen != gen {
			sc.mu.Unlock()
			return
		}
		sc.pending = nil
		sc.mu.Unlock()

		sc.fire()
	})
}

// Cancel disarms the save timer.
func (sc *scheduler) Cancel() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.pending != nil {
		sc.pending.Stop()
		sc.pending = nil
	}
	sc.gen++
}

// Pending reports whether a save is armed.
func (sc *scheduler) Pending() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.pending != nil
}
