// Package sqlite is the embedded backend used by the CLI and local development.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/convodoc/internal/infra/db/sqlstore"
)

var Dialect = sqlstore.Dialect{Name: "sqlite", Schema: schema}

// Connect opens path (or ":memory:") with WAL, foreign keys and a busy
// timeout. A single connection keeps writes serialized.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and migrates.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	s := sqlstore.New(db, Dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT '',
  message_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS messages (
  document_id TEXT NOT NULL REFERENCES documents(id),
  position INTEGER NOT NULL,
  role TEXT NOT NULL,
  content TEXT NOT NULL,
  topic TEXT NOT NULL DEFAULT '',
  sent_at DATETIME NULL,
  PRIMARY KEY (document_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  result_json TEXT NULL,
  created_at DATETIME NOT NULL,
  started_at DATETIME NULL,
  completed_at DATETIME NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs (created_at)`,
	`CREATE TABLE IF NOT EXISTS agents (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  enabled BOOLEAN NOT NULL DEFAULT 1,
  config_json TEXT NOT NULL DEFAULT '{}',
  last_run_at DATETIME NULL,
  created_at DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS run_logs (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  agent_id TEXT NOT NULL DEFAULT '',
  level TEXT NOT NULL,
  message TEXT NOT NULL,
  payload_json TEXT NULL,
  created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_run_logs_run ON run_logs (run_id, seq)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
  id TEXT PRIMARY KEY,
  run_id TEXT NOT NULL,
  format TEXT NOT NULL,
  content_type TEXT NOT NULL,
  content TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  UNIQUE (run_id, format)
)`,
}
