package clock

import "time"

// Clock abstracts time so derivations and the speaker controller can be
// tested against fixed instants.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current wall time.
func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }
