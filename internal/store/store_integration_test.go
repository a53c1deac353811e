package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a real PostgreSQL instance (a shared
// testcontainer, or CI_DATABASE_URL in CI) with pkg/database's migrations
// applied, exercising the actual SQL rather than a mocked driver — the
// same reason the teacher kept a testcontainers-backed suite alongside its
// unit tests.

func TestStore_SessionLifecycle(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, st.CreateSession(ctx, id, "fix the flaky test", "/repo", "fp-1"))

	rec, err := st.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "running", rec.Status)
	assert.Equal(t, "/repo", rec.ProjectRoot)
	assert.Nil(t, rec.CompletedAt)

	require.NoError(t, st.SetThreadRef(ctx, id, "slack-thread-42"))
	rec, err = st.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "slack-thread-42", rec.ThreadRef)

	require.NoError(t, st.CompleteSession(ctx, id, "succeeded", ""))
	rec, err = st.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", rec.Status)
	require.NotNil(t, rec.CompletedAt)
}

func TestStore_GetSession_NotFound(t *testing.T) {
	st := setupTestDB(t)
	_, err := st.GetSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAndDeleteExpiredSessions(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()

	expired := uuid.New()
	require.NoError(t, st.CreateSession(ctx, expired, "old request", "/repo", ""))
	require.NoError(t, st.CompleteSession(ctx, expired, "succeeded", ""))

	fresh := uuid.New()
	require.NoError(t, st.CreateSession(ctx, fresh, "new request", "/repo", ""))
	require.NoError(t, st.CompleteSession(ctx, fresh, "succeeded", ""))

	cutoff := time.Now().Add(time.Hour)
	ids, err := st.ListExpiredSessions(ctx, cutoff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{expired, fresh}, ids)

	require.NoError(t, st.DeleteSession(ctx, expired))
	ids, err = st.ListExpiredSessions(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fresh}, ids)

	_, err = st.GetSession(ctx, expired)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoopSnapshot_PutAndGet(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, st.CreateSession(ctx, id, "refactor the validator", "/repo", ""))

	snap := LoopSnapshot{
		AttemptNo:        2,
		Revisions:        1,
		ValidatorRetries: 3,
		TestRunCount:     2,
		FeedbackSources:  []string{"validator", "test_runner"},
	}
	require.NoError(t, st.PutLoopSnapshot(ctx, id, snap))

	got, err := st.GetLoopSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap.AttemptNo, got.AttemptNo)
	assert.Equal(t, snap.FeedbackSources, got.FeedbackSources)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)

	snap.Exhausted = true
	snap.ExhaustedReason = "budget exceeded"
	require.NoError(t, st.PutLoopSnapshot(ctx, id, snap))

	got, err = st.GetLoopSnapshot(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Exhausted)
	assert.Equal(t, "budget exceeded", got.ExhaustedReason)
}

func TestStore_DeleteSession_CascadesLoopStateAndBackups(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, st.CreateSession(ctx, id, "add retries", "/repo", ""))
	require.NoError(t, st.PutLoopSnapshot(ctx, id, LoopSnapshot{AttemptNo: 1}))

	backups := NewSessionBackups(st, id)
	require.NoError(t, backups.Backup(ctx, "main.go", "package main\n", true))

	require.NoError(t, st.DeleteSession(ctx, id))

	_, err := st.GetLoopSnapshot(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = backups.Restore(ctx, "main.go")
	assert.Error(t, err, "backup row should have been cascade-deleted with its session")
}

func TestSessionBackups_BackupAndRestore(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, st.CreateSession(ctx, id, "rename a function", "/repo", ""))
	backups := NewSessionBackups(st, id)

	require.NoError(t, backups.Backup(ctx, "util.go", "func Old() {}\n", true))

	content, existed, err := backups.Restore(ctx, "util.go")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, "func Old() {}\n", content)

	// A later backup of the same path wins on restore.
	require.NoError(t, backups.Backup(ctx, "util.go", "func Old() { /* v2 */ }\n", true))
	content, _, err = backups.Restore(ctx, "util.go")
	require.NoError(t, err)
	assert.Equal(t, "func Old() { /* v2 */ }\n", content)
}

func TestSessionBackups_Restore_NoBackupRecorded(t *testing.T) {
	st := setupTestDB(t)
	_, _, err := NewSessionBackups(st, uuid.New()).Restore(context.Background(), "nope.go")
	assert.Error(t, err)
}
