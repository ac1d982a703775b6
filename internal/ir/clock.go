package ir

import "time"

// Clock supplies wall-clock time for manifest timestamps.
//
// Injected so tests can produce byte-identical archives; production code uses
// SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
