package testfixtures

import (
	"sync"
	"time"
)

var referenceTime = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant fixtures are built around. It
// falls on a Monday so weekly patterns line up with ISO weekday 1.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a manually driven time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock currently points at.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc adapts the clock to the func() time.Time hooks taken by services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
