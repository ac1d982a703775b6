package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
)

func TestSessionRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := createTestSession("session-1", "test-io/2.19.11", 0)
	require.NoError(t, s.BeginSession(ctx, sess))

	lang := ir.Capability{Package: "org.apache.commons.lang", MinVersion: "2.6.0"}
	attempts := []ir.Attempt{
		{Seq: 1, Result: ir.ResultPatched, Message: "missing lang", Capability: &lang},
		{Seq: 2, Result: ir.ResultSucceeded},
	}
	for _, a := range attempts {
		require.NoError(t, s.RecordAttempt(ctx, sess.ID, a))
	}

	sess.FinishedAt = sess.StartedAt.Add(3 * time.Second)
	sess.Succeeded = true
	sess.Exports = []ir.Capability{lang}
	require.NoError(t, s.EndSession(ctx, sess))

	got, err := s.ReadSession(ctx, "session-1")
	require.NoError(t, err)

	assert.Equal(t, "test-io/2.19.11", got.Feature)
	assert.Equal(t, "/tmp/tryinstall", got.Workspace)
	assert.True(t, sess.StartedAt.Equal(got.StartedAt))
	assert.True(t, sess.FinishedAt.Equal(got.FinishedAt))
	assert.True(t, got.Succeeded)
	assert.Empty(t, got.ErrorCode)
	assert.Equal(t, []ir.Capability{lang}, got.Exports)
	assert.Equal(t, attempts, got.Attempts)

	fp, err := ir.ExportsFingerprint([]ir.Capability{lang})
	require.NoError(t, err)
	assert.Equal(t, fp, got.Fingerprint)
	assert.Equal(t, fp, sess.Fingerprint)
}

func TestEndSessionStoresFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := createTestSession("session-1", "test-io", 0)
	require.NoError(t, s.BeginSession(ctx, sess))

	sess.ErrorCode = ir.ErrCodeExtractionFailure
	sess.Error = "EXTRACTION_FAILURE: no actionable dependency found"
	require.NoError(t, s.EndSession(ctx, sess))

	got, err := s.ReadSession(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, got.Succeeded)
	assert.Equal(t, ir.ErrCodeExtractionFailure, got.ErrorCode)
	assert.Equal(t, sess.Error, got.Error)
	assert.Empty(t, got.Exports)
	assert.NotNil(t, got.Exports)
}

func TestBeginSessionIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := createTestSession("session-1", "first", 0)
	require.NoError(t, s.BeginSession(ctx, sess))
	require.NoError(t, s.BeginSession(ctx, createTestSession("session-1", "second", 0)))

	got, err := s.ReadSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Feature)
}

func TestRecordAttemptKeepsFirstWrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginSession(ctx, createTestSession("session-1", "f", 0)))
	require.NoError(t, s.RecordAttempt(ctx, "session-1", ir.Attempt{Seq: 1, Result: ir.ResultFailed, Message: "first"}))
	require.NoError(t, s.RecordAttempt(ctx, "session-1", ir.Attempt{Seq: 1, Result: ir.ResultSucceeded}))

	got, err := s.ReadSession(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, "first", got.Attempts[0].Message)
	assert.Nil(t, got.Attempts[0].Capability)
}

func TestRecordAttemptRequiresSession(t *testing.T) {
	s := createTestStore(t)

	err := s.RecordAttempt(context.Background(), "missing", ir.Attempt{Seq: 1, Result: ir.ResultFailed})
	assert.Error(t, err)
}

func TestEndSessionRequiresSession(t *testing.T) {
	s := createTestStore(t)

	err := s.EndSession(context.Background(), createTestSession("missing", "f", 0))
	assert.ErrorIs(t, err, ErrNotFound)
}
