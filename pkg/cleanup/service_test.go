package cleanup

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/config"
)

func newTestService(t *testing.T, cfg *config.RetentionConfig) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	st := store.New(db)
	svc := NewService(cfg, st, slog.Default())

	return svc, mock, func() { _ = db.Close() }
}

func TestService_DeleteExpiredSessions(t *testing.T) {
	svc, mock, cleanup := newTestService(t, &config.RetentionConfig{
		SessionRetentionDays: 30,
		CleanupInterval:      time.Hour,
	})
	defer cleanup()

	id1 := uuid.New()
	id2 := uuid.New()

	mock.ExpectQuery(`SELECT id FROM sessions WHERE completed_at IS NOT NULL AND completed_at < \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs(id1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs(id2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.deleteExpiredSessions(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteExpiredSessions_NoneExpired(t *testing.T) {
	svc, mock, cleanup := newTestService(t, &config.RetentionConfig{
		SessionRetentionDays: 30,
		CleanupInterval:      time.Hour,
	})
	defer cleanup()

	mock.ExpectQuery(`SELECT id FROM sessions WHERE completed_at IS NOT NULL AND completed_at < \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	svc.deleteExpiredSessions(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteExpiredSessions_DeleteErrorContinues(t *testing.T) {
	svc, mock, cleanup := newTestService(t, &config.RetentionConfig{
		SessionRetentionDays: 30,
		CleanupInterval:      time.Hour,
	})
	defer cleanup()

	id1 := uuid.New()
	id2 := uuid.New()

	mock.ExpectQuery(`SELECT id FROM sessions WHERE completed_at IS NOT NULL AND completed_at < \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs(id1).
		WillReturnError(assert.AnError)
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs(id2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// one failing delete must not stop the sweep from reaching the rest
	svc.deleteExpiredSessions(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_StartStop(t *testing.T) {
	svc, mock, cleanup := newTestService(t, &config.RetentionConfig{
		SessionRetentionDays: 30,
		CleanupInterval:      10 * time.Millisecond,
	})
	defer cleanup()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT id FROM sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	svc.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	svc.Stop()

	// Start/Stop must tolerate a second Stop without blocking.
	svc.Stop()
}
