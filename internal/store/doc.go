// Package store keeps resolve session history in SQLite.
//
// Two tables:
//   - sessions: one row per Run, written at start and completed at the end
//   - attempts: one row per install attempt, keyed by (session_id, seq)
//
// Writes are idempotent (ON CONFLICT DO NOTHING), so replaying the same
// session into the store is harmless. Attempt order is always seq ASC;
// session listings are newest first.
//
// Export lists are stored as RFC 8785 canonical JSON next to their
// fingerprint (ir.ExportsFingerprint), so sessions that ended with the same
// exports compare equal as text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
