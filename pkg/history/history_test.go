package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/melody/pkg/backup"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListSessions(t *testing.T) {
	db := openTestDB(t)

	results := []backup.Result{
		{Feature: "mouse", Success: true, Items: []backup.Outcome{{Name: "k", Success: true}}},
		{Feature: "games", Success: false, Errors: []string{"steam library unreadable"}},
	}

	id, err := db.RecordSession("backup", `C:\backups\BOX\2026-08-25-120000`, time.Now().Add(-time.Minute), results)
	require.NoError(t, err)
	assert.Positive(t, id)

	sessions, err := db.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	session := sessions[0]
	assert.Equal(t, "backup", session.Kind)
	assert.Equal(t, `C:\backups\BOX\2026-08-25-120000`, session.BackupPath)
	assert.Equal(t, 1, session.Succeeded)
	assert.Equal(t, 1, session.Failed)
	assert.False(t, session.StartedAt.IsZero())
	assert.False(t, session.FinishedAt.Before(session.StartedAt))
}

func TestRecentSessionsOrderAndLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		_, err := db.RecordSession("backup", "path", time.Now(), nil)
		require.NoError(t, err)
	}

	sessions, err := db.RecentSessions(3)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Greater(t, sessions[0].ID, sessions[1].ID)
	assert.Greater(t, sessions[1].ID, sessions[2].ID)
}

func TestRecentSessionsDefaultLimit(t *testing.T) {
	db := openTestDB(t)
	sessions, err := db.RecentSessions(0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRecordSessionRejectsUnknownKind(t *testing.T) {
	db := openTestDB(t)
	_, err := db.RecordSession("sideways", "path", time.Now(), nil)
	assert.Error(t, err)
}
