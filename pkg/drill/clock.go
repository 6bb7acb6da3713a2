package drill

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time for the scheduler so tests can drive reaction windows
// and announce delays synchronously instead of sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancelable scheduled callback
type Timer interface {
	// Stop cancels the timer, reporting whether it was still pending
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{time.AfterFunc(d, f)}
}

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

// RealClock returns the wall-clock implementation
func RealClock() Clock { return realClock{} }

// FakeClock is a manually advanced clock for tests. Callbacks fire
// synchronously inside Advance, in due order.
type FakeClock struct {
	mutex   sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

// NewFakeClock creates a fake clock starting at the given instant
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

type fakeTimer struct {
	clock   *FakeClock
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mutex.Lock()
	defer t.clock.mutex.Unlock()

	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Now returns the fake current time
func (c *FakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// AfterFunc schedules f to run when the clock is advanced past d
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	t := &fakeTimer{clock: c, due: c.now.Add(d), f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward, firing due timers in order. Callbacks run
// without the clock lock held so they may schedule further timers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	target := c.now.Add(d)
	c.mutex.Unlock()

	for {
		c.mutex.Lock()
		var next *fakeTimer
		for _, t := range c.pending {
			if t.stopped || t.fired || t.due.After(target) {
				continue
			}
			if next == nil || t.due.Before(next.due) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			// Drop exhausted timers
			live := c.pending[:0]
			for _, t := range c.pending {
				if !t.stopped && !t.fired {
					live = append(live, t)
				}
			}
			c.pending = live
			sort.SliceStable(c.pending, func(i, j int) bool {
				return c.pending[i].due.Before(c.pending[j].due)
			})
			c.mutex.Unlock()
			return
		}
		next.fired = true
		if next.due.After(c.now) {
			c.now = next.due
		}
		f := next.f
		c.mutex.Unlock()

		f()
	}
}
