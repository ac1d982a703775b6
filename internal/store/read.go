package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// ListOptions filters ListSessions.
type ListOptions struct {
	// Feature keeps only sessions for this feature id. Empty keeps all.
	Feature string
	// FailedOnly keeps only sessions that did not succeed.
	FailedOnly bool
	// Limit caps the number of rows. 0 means no limit.
	Limit int
}

// ListSessions returns sessions newest first, without their attempts.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListSessions(ctx context.Context, opts ListOptions) ([]ir.Session, error) {
	query := `
		SELECT id, feature, workspace, started_at, finished_at, succeeded,
		       error_code, error, exports, exports_fingerprint
		FROM sessions
		WHERE (? = '' OR feature = ?)
		  AND (? = 0 OR succeeded = 0)
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`
	args := []any{opts.Feature, opts.Feature, opts.FailedOnly}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session with its attempts in seq order.
// Returns ErrNotFound for an unknown id.
func (s *Store) ReadSession(ctx context.Context, id string) (*ir.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, feature, workspace, started_at, finished_at, succeeded,
		       error_code, error, exports, exports_fingerprint
		FROM sessions
		WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	attempts, err := s.readAttempts(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Attempts = attempts
	return sess, nil
}

func (s *Store) readAttempts(ctx context.Context, sessionID string) ([]ir.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, result, message, capability
		FROM attempts
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []ir.Attempt{}
	for rows.Next() {
		var (
			a          ir.Attempt
			capability sql.NullString
		)
		if err := rows.Scan(&a.Seq, &a.Result, &a.Message, &capability); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if a.Capability, err = unmarshalCapability(capability); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ir.Session, error) {
	var (
		sess               ir.Session
		started, finished  string
		errorCode, exports string
	)
	err := row.Scan(
		&sess.ID,
		&sess.Feature,
		&sess.Workspace,
		&started,
		&finished,
		&sess.Succeeded,
		&errorCode,
		&sess.Error,
		&exports,
		&sess.Fingerprint,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if sess.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if sess.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	sess.ErrorCode = ir.ErrorCode(errorCode)
	if sess.Exports, err = unmarshalExports(exports); err != nil {
		return nil, err
	}
	sess.Attempts = []ir.Attempt{}
	return &sess, nil
}
