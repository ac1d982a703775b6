package testutil

import (
	"context"
	"time"

	"github.com/Lambeaux/steadfast/internal/lifecycle"
)

// FastWait is a lifecycle policy with the default attempt budget and no real
// sleeping between polls.
func FastWait() lifecycle.Policy {
	return lifecycle.Policy{
		Interval:    lifecycle.DefaultInterval,
		MaxAttempts: lifecycle.DefaultMaxAttempts,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

// FixedSessionIDs returns ids in order, then panics when exhausted.
//
// Implements engine.SessionIDGenerator.
type FixedSessionIDs struct {
	ids []string
	idx int
}

// NewFixedSessionIDs creates a generator over ids. With no ids it always
// returns "test-session-default".
func NewFixedSessionIDs(ids ...string) *FixedSessionIDs {
	return &FixedSessionIDs{ids: ids}
}

// Generate returns the next id.
func (g *FixedSessionIDs) Generate() string {
	if len(g.ids) == 0 {
		return "test-session-default"
	}
	if g.idx >= len(g.ids) {
		panic("FixedSessionIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
