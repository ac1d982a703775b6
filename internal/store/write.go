package store

import (
	"context"
	"fmt"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// BeginSession inserts the session row. A second call with the same id is a
// no-op.
func (s *Store) BeginSession(ctx context.Context, sess *ir.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, feature, workspace, started_at, tool_version, history_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Feature,
		sess.Workspace,
		formatTime(sess.StartedAt),
		ir.ToolVersion,
		ir.HistoryVersion,
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// RecordAttempt inserts one attempt. The session must exist (foreign key).
// Writing the same (session, seq) twice keeps the first row.
func (s *Store) RecordAttempt(ctx context.Context, sessionID string, a ir.Attempt) error {
	capability, err := marshalCapability(a.Capability)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts
		(session_id, seq, result, message, capability)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		a.Seq,
		a.Result,
		a.Message,
		capability,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// EndSession stores the terminal result and final exports of a session that
// BeginSession already inserted.
func (s *Store) EndSession(ctx context.Context, sess *ir.Session) error {
	exports, fp, err := marshalExports(sess.Exports)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET finished_at = ?, succeeded = ?, error_code = ?, error = ?,
		    exports = ?, exports_fingerprint = ?
		WHERE id = ?
	`,
		formatTime(sess.FinishedAt),
		sess.Succeeded,
		string(sess.ErrorCode),
		sess.Error,
		exports,
		fp,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", sess.ID, ErrNotFound)
	}
	sess.Fingerprint = fp
	return nil
}
