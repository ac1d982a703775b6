package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant deterministic clocks start from.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// DeterministicClock is an ir.Clock for tests. Every call to Now advances
// the clock by Step, so consecutive manifests get distinct, predictable
// Fti-LastModified stamps. A zero Step freezes the clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewDeterministicClock creates a clock at Epoch advancing by step.
//
// The first call to Now returns Epoch.
func NewDeterministicClock(step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: Epoch, step: step}
}

// NewFrozenClock creates a clock that always returns Epoch.
func NewFrozenClock() *DeterministicClock {
	return NewDeterministicClock(0)
}

// Now returns the current instant, then advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to Epoch.
//
// Used for test reuse. After Reset(), the next call to Now() returns Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
