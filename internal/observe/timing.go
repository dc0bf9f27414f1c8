// Package observe measures how long a single invocation takes.
package observe

import "time"

// Timing brackets one call. Until Complete is called Duration keeps
// reading the clock.
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
	clock       func() time.Time
}

// NewTiming starts a Timing on the wall clock
func NewTiming() *Timing {
	return NewTimingWithClock(nil)
}

// NewTimingWithClock starts a Timing on clock; nil means time.Now
func NewTimingWithClock(clock func() time.Time) *Timing {
	if clock == nil {
		clock = time.Now
	}
	return &Timing{StartedAt: clock(), clock: clock}
}

// Complete freezes the measurement and returns it
func (t *Timing) Complete() time.Duration {
	if t.CompletedAt.IsZero() {
		t.CompletedAt = t.clock()
	}
	return t.Duration()
}

// Duration is the elapsed time, frozen once completed
func (t *Timing) Duration() time.Duration {
	end := t.CompletedAt
	if end.IsZero() {
		end = t.clock()
	}
	return end.Sub(t.StartedAt)
}

// Milliseconds reports Duration as fractional milliseconds for log fields
func (t *Timing) Milliseconds() float64 {
	return float64(t.Duration().Microseconds()) / 1000
}
