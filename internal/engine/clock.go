package engine

import "sync/atomic"

// Clock numbers install attempts within a session. Sequence numbers start at
// 1 and strictly increase, so attempt order never depends on wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

