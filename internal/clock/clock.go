// Package clock abstracts time for the assistant engine. The conversation
// manager models "the assistant is thinking" as a bounded delay; injecting
// the clock lets tests advance virtual time instead of sleeping on real
// timers.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time and timer channels.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// =============================================================================
// REAL CLOCK
// =============================================================================

type realClock struct{}

// Real returns a Clock backed by the system clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// =============================================================================
// FAKE CLOCK
// =============================================================================

// Fake is a manually advanced clock for deterministic tests.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFake returns a fake clock pinned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires once virtual time passes the deadline.
// A non-positive duration fires immediately, matching time.After semantics
// closely enough for the engine's latency window.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	deadline := f.now.Add(d)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, fakeWaiter{deadline: deadline, ch: ch})
	return ch
}

// Advance moves virtual time forward and fires any expired waiters.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.deadline.After(f.now) {
			w.ch <- f.now
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
}

// Pending reports how many timers are waiting to fire. Used by tests to
// synchronize with goroutines parked on After.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}
