// Package testutil provides deterministic drivers for testing programs and
// subscriptions: a manual clock, a manual frame scheduler and a recording
// dispatcher.
package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a clock that only moves when Advance is called. It satisfies
// sub.Clock.
type ManualClock struct {
	mu            sync.Mutex
	now           time.Time
	seq           uint64
	timers        map[uint64]*manualTimer
	registrations int
}

type manualTimer struct {
	seq   uint64
	every time.Duration
	next  time.Time
	fn    func(time.Time)
}

// NewManualClock returns a clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, timers: make(map[uint64]*manualTimer)}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Every registers fn to run every d of manual time.
func (c *ManualClock) Every(d time.Duration, fn func(time.Time)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	id := c.seq
	c.timers[id] = &manualTimer{seq: id, every: d, next: c.now.Add(d), fn: fn}
	c.registrations++
	return func() {
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every timer that comes due on
// the way. Timers due at the same instant fire in registration order.
// Callbacks run without the clock's lock held.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := make([]*manualTimer, 0, len(c.timers))
		for _, t := range c.timers {
			if !t.next.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool {
			if !due[i].next.Equal(due[j].next) {
				return due[i].next.Before(due[j].next)
			}
			return due[i].seq < due[j].seq
		})
		t := due[0]
		at := t.next
		c.now = at
		t.next = at.Add(t.every)
		c.mu.Unlock()

		t.fn(at)
	}
}

// Timers reports how many timers are registered right now.
func (c *ManualClock) Timers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Registrations reports how many times Every has been called.
func (c *ManualClock) Registrations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registrations
}
