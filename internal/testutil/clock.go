package testutil

import "sync"

// FixedClock provides a thread-safe deterministic wall clock for tests.
//
// Each call to NowMillis advances the clock by one millisecond, so
// consecutive timestamps are distinct but fully reproducible.
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

// NewFixedClock creates a clock starting at the given epoch-millisecond
// instant.
func NewFixedClock(start int64) *FixedClock {
	return &FixedClock{now: start}
}

// NowMillis returns the current instant and advances the clock by 1ms.
func (c *FixedClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

// Current returns the current instant without advancing.
func (c *FixedClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
