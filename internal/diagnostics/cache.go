// # internal/diagnostics/cache.go
package diagnostics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  ts_utc TEXT NOT NULL,
  source_count INTEGER NOT NULL,
  error_count INTEGER NOT NULL,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE TABLE IF NOT EXISTS errors (
  run_id TEXT NOT NULL REFERENCES runs(run_id),
  path TEXT NOT NULL,
  line INTEGER NOT NULL,
  code INTEGER NOT NULL,
  name TEXT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_errors_run ON errors(run_id);
CREATE INDEX IF NOT EXISTS idx_errors_path_line ON errors(path, line);
`,
	},
}

// Cache persists rendered diagnostics per analysis run. Only diagnostics are
// cached; the call graph itself is rebuilt every run.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open error cache: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// SaveRun stores one analysis run's diagnostics and returns its run id.
func (c *Cache) SaveRun(sourceCount int, errors []map[string]any) (string, error) {
	runID := uuid.NewString()
	tx, err := c.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, ts_utc, source_count, error_count) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), sourceCount, len(errors),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, e := range errors {
		payload, err := json.Marshal(e)
		if err != nil {
			return "", fmt.Errorf("marshal error payload: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO errors (run_id, path, line, code, name, payload) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, e["path"], e["line"], e["code"], e["name"], string(payload),
		); err != nil {
			return "", fmt.Errorf("insert error row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit cache transaction: %w", err)
	}
	return runID, nil
}

// LoadRun returns the stored payloads of one run.
func (c *Cache) LoadRun(runID string) ([]map[string]any, error) {
	rows, err := c.db.Query(`SELECT payload FROM errors WHERE run_id = ? ORDER BY path, line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan error row: %w", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			return nil, fmt.Errorf("decode error payload: %w", err)
		}
		out = append(out, decoded)
	}
	return out, rows.Err()
}
