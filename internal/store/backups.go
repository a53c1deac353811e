package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SessionBackups implements pkg/vfs.BackupManager for one session. pkg/vfs's
// commit path calls Backup once per staged path before writing it, and
// Restore during rollback if a later path in the same commit fails.
type SessionBackups struct {
	store     *Store
	sessionID uuid.UUID
}

// NewSessionBackups binds a BackupManager to one session's backup ledger.
func NewSessionBackups(s *Store, sessionID uuid.UUID) *SessionBackups {
	return &SessionBackups{store: s, sessionID: sessionID}
}

// Backup records path's pre-change content (and whether it existed) so a
// later rollback in the same commit can restore it.
func (b *SessionBackups) Backup(ctx context.Context, path string, content string, existed bool) error {
	_, err := b.store.db.ExecContext(ctx, `
		INSERT INTO backups (id, session_id, path, existed, content)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), b.sessionID, path, existed, content)
	if err != nil {
		return fmt.Errorf("store: backup %s: %w", path, err)
	}
	return nil
}

// Restore returns the most recent backed-up content for path in this
// session, for VFS.Commit's rollback path.
func (b *SessionBackups) Restore(ctx context.Context, path string) (string, bool, error) {
	row := b.store.db.QueryRowContext(ctx, `
		SELECT content, existed FROM backups
		WHERE session_id = $1 AND path = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, b.sessionID, path)

	var content string
	var existed bool
	if err := row.Scan(&content, &existed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, fmt.Errorf("store: no backup recorded for %s", path)
		}
		return "", false, fmt.Errorf("store: restore %s: %w", path, err)
	}
	return content, existed, nil
}
