package testutil

import (
	"sync"
	"time"
)

// FixedClock is a settable wall clock for tests.
//
// Relative date ranges ("today", "this_week") are computed from Now(), so a
// FixedClock makes them reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock that reports now until advanced or set.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Date is shorthand for a FixedClock at noon UTC on the given day.
func Date(year int, month time.Month, day int) *FixedClock {
	return NewFixedClock(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// Now returns the current fixed time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
