package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/convodoc/internal/infra/db/sqlstore"
)

// Dialect for MySQL 8 / MariaDB.
var Dialect = sqlstore.Dialect{Name: "mysql", Schema: schema}

// Connect opens a pool. parseTime and clientFoundRows are forced on so that
// DATETIME columns scan into time.Time and guarded updates report matched rows.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and migrates.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := Connect(ctx, dsn)
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
  id VARCHAR(64) PRIMARY KEY,
  title VARCHAR(255) NOT NULL,
  source VARCHAR(255) NOT NULL DEFAULT '',
  message_count INT NOT NULL DEFAULT 0,
  created_at DATETIME(6) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS messages (
  document_id VARCHAR(64) NOT NULL,
  position INT NOT NULL,
  role VARCHAR(64) NOT NULL,
  content LONGTEXT NOT NULL,
  topic VARCHAR(255) NOT NULL DEFAULT '',
  sent_at DATETIME(6) NULL,
  PRIMARY KEY (document_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS runs (
  id VARCHAR(64) PRIMARY KEY,
  document_id VARCHAR(64) NOT NULL,
  status VARCHAR(16) NOT NULL,
  error TEXT NOT NULL,
  result_json LONGTEXT NULL,
  created_at DATETIME(6) NOT NULL,
  started_at DATETIME(6) NULL,
  completed_at DATETIME(6) NULL,
  INDEX idx_runs_created (created_at)
)`,
	`CREATE TABLE IF NOT EXISTS agents (
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  type VARCHAR(32) NOT NULL,
  enabled BOOLEAN NOT NULL DEFAULT TRUE,
  config_json TEXT NOT NULL,
  last_run_at DATETIME(6) NULL,
  created_at DATETIME(6) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS run_logs (
  seq BIGINT AUTO_INCREMENT PRIMARY KEY,
  run_id VARCHAR(64) NOT NULL,
  agent_id VARCHAR(64) NOT NULL DEFAULT '',
  level VARCHAR(8) NOT NULL,
  message TEXT NOT NULL,
  payload_json TEXT NULL,
  created_at DATETIME(6) NOT NULL,
  INDEX idx_run_logs_run (run_id, seq)
)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
  id VARCHAR(64) PRIMARY KEY,
  run_id VARCHAR(64) NOT NULL,
  format VARCHAR(16) NOT NULL,
  content_type VARCHAR(64) NOT NULL,
  content LONGTEXT NOT NULL,
  url VARCHAR(1024) NOT NULL DEFAULT '',
  created_at DATETIME(6) NOT NULL,
  UNIQUE KEY uq_artifacts_run_format (run_id, format)
)`,
}
