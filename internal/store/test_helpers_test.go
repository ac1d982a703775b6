package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/testutil"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session started offset after testutil.Epoch.
func createTestSession(id, feature string, offset time.Duration) *ir.Session {
	return &ir.Session{
		ID:        id,
		Feature:   feature,
		Workspace: "/tmp/tryinstall",
		StartedAt: testutil.Epoch.Add(offset),
		Attempts:  []ir.Attempt{},
		Exports:   []ir.Capability{},
	}
}
