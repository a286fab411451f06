// Package system is the wall-clock backing for the pipeline's Clock
// dependency; tests substitute a fixed clock instead.
package system

import "time"

// Clock reads the system time. All pipeline timestamps (capturedAt,
// lastSeenAt, run boundaries) come through here, always in UTC.
type Clock struct{}

// New returns the wall clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
