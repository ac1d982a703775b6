package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
)

func seedSessions(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	for i, seed := range []struct {
		id, feature string
		ok          bool
	}{
		{"a", "test-io", false},
		{"b", "other", true},
		{"c", "test-io", true},
	} {
		sess := createTestSession(seed.id, seed.feature, time.Duration(i)*time.Minute)
		require.NoError(t, s.BeginSession(ctx, sess))
		sess.Succeeded = seed.ok
		if !seed.ok {
			sess.ErrorCode = ir.ErrCodeRepeatCapability
		}
		require.NoError(t, s.EndSession(ctx, sess))
	}
}

func sessionIDs(sessions []ir.Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := createTestStore(t)
	seedSessions(t, s)

	got, err := s.ListSessions(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, sessionIDs(got))
	for _, sess := range got {
		assert.Empty(t, sess.Attempts)
	}
}

func TestListSessionsFilters(t *testing.T) {
	s := createTestStore(t)
	seedSessions(t, s)
	ctx := context.Background()

	got, err := s.ListSessions(ctx, ListOptions{Feature: "test-io"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sessionIDs(got))

	got, err = s.ListSessions(ctx, ListOptions{FailedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sessionIDs(got))

	got, err = s.ListSessions(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, sessionIDs(got))
}

func TestListSessionsEmpty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListSessions(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadSessionNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadSessionOrdersAttempts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginSession(ctx, createTestSession("s", "f", 0)))
	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, s.RecordAttempt(ctx, "s", ir.Attempt{Seq: seq, Result: ir.ResultPatched}))
	}

	got, err := s.ReadSession(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.Attempts, 3)
	for i, a := range got.Attempts {
		assert.Equal(t, int64(i+1), a.Seq)
	}
}
