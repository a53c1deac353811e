// Package store is the persistence layer for sessions, feedback-loop state,
// and the per-file backup ledger that pkg/vfs.VFS.Commit relies on for
// rollback. It replaces the teacher's ent-generated client with plain
// database/sql + pgx, grounded on the same connection pool pkg/database
// opens (see DESIGN.md's "ent dropped" entry).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by ID finds no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps the shared connection pool with the queries internal/session
// and pkg/vfs need.
type Store struct {
	db *sql.DB
}

// New wraps an already-open pool (see pkg/database.Client.DB).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection pool, for pkg/database.Health
// checks only — query code belongs in this package's own methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SessionRecord is the persisted row backing a RequestSession.
type SessionRecord struct {
	ID           uuid.UUID
	UserRequest  string
	ProjectRoot  string
	Fingerprint  string
	Status       string
	ThreadRef    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// CreateSession inserts a new session row in the "running" status.
func (s *Store) CreateSession(ctx context.Context, id uuid.UUID, userRequest, projectRoot, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_request, project_root, fingerprint, status)
		VALUES ($1, $2, $3, $4, 'running')
	`, id, userRequest, projectRoot, fingerprint)
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// SetThreadRef records the notification thread a session was announced on.
func (s *Store) SetThreadRef(ctx context.Context, id uuid.UUID, threadRef string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET thread_ref = $2, updated_at = now() WHERE id = $1
	`, id, threadRef)
	if err != nil {
		return fmt.Errorf("store: set thread ref: %w", err)
	}
	return nil
}

// CompleteSession records the session's terminal status.
func (s *Store) CompleteSession(ctx context.Context, id uuid.UUID, status, errMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = $2, error_message = $3, updated_at = now(), completed_at = now()
		WHERE id = $1
	`, id, status, errMessage)
	if err != nil {
		return fmt.Errorf("store: complete session: %w", err)
	}
	return nil
}

// GetSession fetches one session row.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_request, project_root, fingerprint, status, thread_ref,
		       error_message, created_at, updated_at, completed_at
		FROM sessions WHERE id = $1
	`, id)

	var rec SessionRecord
	if err := row.Scan(&rec.ID, &rec.UserRequest, &rec.ProjectRoot, &rec.Fingerprint,
		&rec.Status, &rec.ThreadRef, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.CompletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	return &rec, nil
}

// ListExpiredSessions returns sessions completed before cutoff, for
// pkg/cleanup's retention sweep.
func (s *Store) ListExpiredSessions(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM sessions WHERE completed_at IS NOT NULL AND completed_at < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: list expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan expired session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSession removes a session and, via ON DELETE CASCADE, its loop
// state and backups.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	return nil
}

// LoopSnapshot is the durable projection of feedback.LoopState persisted
// for crash recovery and observability. It does not attempt to round-trip
// the polymorphic Feedback trail byte-for-byte (Feedback is a Go interface
// with five concrete variants); it records the counts and terminal fields a
// recovered session or a status endpoint actually needs, by Source tag.
type LoopSnapshot struct {
	AttemptNo        int       `json:"attempt_no"`
	Revisions        int       `json:"revisions"`
	ValidatorRetries int       `json:"validator_retries"`
	TestRunCount     int       `json:"test_run_count"`
	FeedbackSources  []string  `json:"feedback_sources"`
	Exhausted        bool      `json:"exhausted"`
	ExhaustedReason  string    `json:"exhausted_reason,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PutLoopSnapshot upserts the latest loop-state snapshot for a session.
func (s *Store) PutLoopSnapshot(ctx context.Context, sessionID uuid.UUID, snap LoopSnapshot) error {
	snap.UpdatedAt = time.Time{} // stamped by the DB, never by the caller
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal loop snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO loop_states (session_id, snapshot)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET snapshot = $2, updated_at = now()
	`, sessionID, data)
	if err != nil {
		return fmt.Errorf("store: put loop snapshot: %w", err)
	}
	return nil
}

// GetLoopSnapshot fetches the latest persisted loop-state snapshot.
func (s *Store) GetLoopSnapshot(ctx context.Context, sessionID uuid.UUID) (*LoopSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot, updated_at FROM loop_states WHERE session_id = $1
	`, sessionID)

	var data []byte
	var updatedAt time.Time
	if err := row.Scan(&data, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get loop snapshot: %w", err)
	}

	var snap LoopSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("store: unmarshal loop snapshot: %w", err)
	}
	snap.UpdatedAt = updatedAt
	return &snap, nil
}
