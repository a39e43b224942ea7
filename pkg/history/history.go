// pkg/history/history.go - SQLite-backed record of past runs.
//
// Every backup or restore run is recorded locally so an operator can answer
// "when did this machine last back up, and did it work" without trawling
// the backup share.

package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/version"
)

//go:embed schema.sql
var schema string

// DefaultPath is where the run history database lives.
const DefaultPath = `C:\ProgramData\MelodyRecovery\history.db`

// Session is one recorded backup or restore run.
type Session struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	BackupPath string    `json:"backup_path"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// DB wraps the history database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordSession stores one run with its per-feature results.
func (db *DB) RecordSession(kind, backupPath string, startedAt time.Time, results []backup.Result) (int64, error) {
	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Success {
			succeeded++
		} else {
			failed++
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO sessions (kind, backup_path, started_at, finished_at, succeeded, failed, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		kind, backupPath,
		startedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		succeeded, failed, version.Version().Version,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, result := range results {
		_, err := tx.Exec(`
			INSERT INTO feature_results (session_id, feature, success, items, errors)
			VALUES (?, ?, ?, ?, ?)`,
			sessionID, result.Feature, boolToInt(result.Success),
			len(result.Items), strings.Join(result.Errors, "; "),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting result for %s: %w", result.Feature, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sessionID, nil
}

// RecentSessions returns the newest sessions, most recent first.
func (db *DB) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT id, kind, backup_path, started_at, finished_at, succeeded, failed
		FROM sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var started, finished string
		if err := rows.Scan(&s.ID, &s.Kind, &s.BackupPath, &started, &finished, &s.Succeeded, &s.Failed); err != nil {
			return nil, err
		}
		s.StartedAt, _ = time.Parse(time.RFC3339, started)
		s.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
