package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time for SLA checks and audit stamps.
// Production code uses Real(); tests use Fake() and advance it by hand.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by time.Now, truncated to microseconds so
// stamps survive a database round trip unchanged.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// FakeClock is a deterministic Clock. Time only moves on Advance or Set.
// Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}
