package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a DeterministicClock starts from.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe clock for tests that advances one
// second per reading.
//
// Each call to Now returns a strictly later instant, and Reset rewinds to
// Epoch, so the same scenario produces identical timestamps on every run.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first reading is Epoch+1s.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now advances the clock and returns the new instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return Epoch.Add(time.Duration(c.seq) * time.Second)
}

// Current returns the number of readings taken so far.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
