package clock

import "time"

// Clock abstracts time so cache expiry can follow either the wall clock or
// the timestamps recorded in a trace.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock delegates to the standard time package.
type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
