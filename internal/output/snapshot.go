// # internal/output/snapshot.go
package output

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// SnapshotStore persists per-entry extraction results across runs. It is
// what lets a later run answer "did this entry point's context change" and
// the report tooling show history without re-reading context files.
type SnapshotStore struct {
	db         *sql.DB
	projectKey string
	lookupStmt *sql.Stmt
}

func OpenSnapshotStore(path, projectKey string) (*SnapshotStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping snapshot store %q: %w", cleanPath, err)
	}
	if err := migrateSnapshotSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	lookupStmt, err := db.Prepare(`SELECT file_name, content_sha, direct_count, indirect_count
FROM snapshots
WHERE project_key = ? AND entry_name = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare snapshot lookup stmt: %w", err)
	}

	return &SnapshotStore{db: db, projectKey: key, lookupStmt: lookupStmt}, nil
}

func migrateSnapshotSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version == 0 {
		_, err := db.Exec(`
CREATE TABLE snapshots (
  project_key TEXT NOT NULL,
  entry_name TEXT NOT NULL,
  file_name TEXT NOT NULL,
  modules INTEGER NOT NULL DEFAULT 0,
  direct_count INTEGER NOT NULL DEFAULT 0,
  indirect_count INTEGER NOT NULL DEFAULT 0,
  content_sha TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (project_key, entry_name)
);
CREATE INDEX idx_snapshots_project_file ON snapshots(project_key, file_name);

PRAGMA user_version = 1;
`)
		if err != nil {
			return fmt.Errorf("create snapshot schema: %w", err)
		}
	}
	return nil
}

// Snapshot is the stored record for one entry point.
type Snapshot struct {
	Entry         string
	File          string
	ContentSHA    string
	DirectCount   int
	IndirectCount int
}

// Lookup returns the stored snapshot for the entry, or nil when none exists.
func (s *SnapshotStore) Lookup(entry string) (*Snapshot, error) {
	if s == nil || s.db == nil || s.lookupStmt == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	snap := Snapshot{Entry: entry}
	err := s.lookupStmt.QueryRow(s.projectKey, entry).
		Scan(&snap.File, &snap.ContentSHA, &snap.DirectCount, &snap.IndirectCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup snapshot for %q: %w", entry, err)
	}
	return &snap, nil
}

// RecordRun replaces the project's snapshots with the given run's results in
// one transaction, so a crashed run never leaves a half-updated table.
func (s *SnapshotStore) RecordRun(rows []EntryResult, contents map[string]string) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE project_key = ?`, s.projectKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear previous snapshots: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshots (
  project_key, entry_name, file_name, modules, direct_count, indirect_count, content_sha, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, row := range rows {
		if row.Skipped {
			continue
		}
		sha := ""
		if content, ok := contents[row.Entry]; ok {
			sum := sha256.Sum256([]byte(content))
			sha = hex.EncodeToString(sum[:])
		}
		if _, err := stmt.Exec(
			s.projectKey, row.Entry, row.File, row.Modules,
			row.DirectSize, row.IndirectSize, sha, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert snapshot row %q: %w", row.Entry, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookupStmt != nil {
		_ = s.lookupStmt.Close()
	}
	return s.db.Close()
}
