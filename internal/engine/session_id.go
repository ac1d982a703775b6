package engine

import "github.com/google/uuid"

// SessionIDGenerator names resolve sessions.
// Implemented by UUIDv7Generator (production) and testutil.FixedSessionIDs.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids, so a history
// listing sorted by id is also sorted by start time.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
