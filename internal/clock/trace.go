package clock

import (
	"strconv"
	"sync"
	"time"
)

// TraceClock is driven by the timestamps of replayed records.
// It never moves backwards: an out-of-order record leaves it untouched.
//
// Thread-safe for concurrent use.
type TraceClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewTraceClock creates a TraceClock starting at the given time.
func NewTraceClock(start time.Time) *TraceClock {
	return &TraceClock{current: start}
}

// Now returns the current trace time.
func (c *TraceClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves the clock forward by d. Non-positive durations are ignored.
func (c *TraceClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set moves the clock to t if t is later than the current time.
// It reports whether the clock moved.
func (c *TraceClock) Set(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.After(c.current) {
		return false
	}
	c.current = t
	return true
}

// ParseTimestamp converts a trace timestamp (integer seconds since the
// start of the trace or since the Unix epoch) into a time.
func ParseTimestamp(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}
