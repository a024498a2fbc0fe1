package scheduler

import "time"

// Clock is a millisecond tick counter that wraps at 2^32.
type Clock interface {
	Millis() uint32
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint32

// Millis implements Clock.
func (f ClockFunc) Millis() uint32 { return f() }

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock counts milliseconds since its creation.
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

// Millis implements Clock.
func (c *monotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds()) //nolint:gosec // Wrapping is the point.
}
