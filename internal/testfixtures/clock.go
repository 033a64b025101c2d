package testfixtures

import (
	"sync"
	"time"

	"github.com/example/meeting-rooms/internal/timezone"
)

// Clock is a settable time source shared between services under test, so a
// booking can move from upcoming to ongoing to ended without sleeping.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts the clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock is currently showing.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now for injection, falling back to time.Now on a nil clock.
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

// SetWall moves the clock to a wall clock value such as "2024-06-10T10:00"
// read in zone. It panics on values the zone cannot interpret.
func (c *Clock) SetWall(zone timezone.Normalizer, value string) time.Time {
	t := Wall(zone, value)
	c.Set(t)
	return t
}

// Wall parses a display zone wall clock value, panicking on failure.
func Wall(zone timezone.Normalizer, value string) time.Time {
	t, err := zone.Parse(value)
	if err != nil {
		panic("testfixtures: bad wall time " + value + ": " + err.Error())
	}
	return t
}
