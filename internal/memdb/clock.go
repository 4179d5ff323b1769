package memdb

import (
	"sync"
	"time"
)

// Clock provides a simulated clock for time-dependent twin behavior.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
	now    func() time.Time
}

// NewClock creates a new simulated clock with no offset.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset)
}

// Advance moves the simulated clock forward by the given duration.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

// Reset resets the clock offset to zero.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
}

// Offset returns the current clock offset.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}
