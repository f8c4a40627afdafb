package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

const runColumns = `id, document_id, status, error, result_json, created_at, started_at, completed_at`

func (s *Store) CreateRun(ctx context.Context, r *runs.Run) error {
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO runs (id, document_id, status, error, created_at)
VALUES (?,?,?,?,?)`),
		string(r.ID), string(r.DocumentID), string(r.Status), r.Error, nowIfZero(r.CreatedAt))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*runs.Run, error) {
	var (
		r                  runs.Run
		result             sql.NullString
		started, completed sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.DocumentID, &r.Status, &r.Error, &result, &r.CreatedAt, &started, &completed); err != nil {
		return nil, err
	}
	r.StartedAt = timePtr(started)
	r.CompletedAt = timePtr(completed)
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &r.Result); err != nil {
			return nil, fmt.Errorf("decode run %s result: %w", r.ID, err)
		}
	}
	return &r, nil
}

func (s *Store) GetRun(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, s.q(`SELECT `+runColumns+` FROM runs WHERE id=?`), string(id)))
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func (s *Store) Latest(ctx context.Context, limit int) ([]*runs.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*runs.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sources lists the statuses from which to is reachable.
func sources(to runs.Status) []any {
	var out []any
	for _, from := range []runs.Status{runs.StatusPending, runs.StatusRunning, runs.StatusCompleted, runs.StatusFailed} {
		if runs.CanTransition(from, to) {
			out = append(out, string(from))
		}
	}
	return out
}

// transition runs a guarded UPDATE; set holds the SET clause and its args.
func (s *Store) transition(ctx context.Context, id runs.RunID, to runs.Status, set string, args ...any) error {
	from := sources(to)
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing moves to %s", runs.ErrInvalidTransition, to)
	}
	query := `UPDATE runs SET status=?` + set + ` WHERE id=? AND status IN (` + placeholders(len(from)) + `)`
	params := append([]any{string(to)}, args...)
	params = append(params, string(id))
	params = append(params, from...)

	res, err := s.db.ExecContext(ctx, s.q(query), params...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current runs.Status
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT status FROM runs WHERE id=?`), string(id)).Scan(&current); err != nil {
		return notFound(err)
	}
	return fmt.Errorf("%w: %s -> %s", runs.ErrInvalidTransition, current, to)
}

func (s *Store) UpdateRunStatus(ctx context.Context, id runs.RunID, status runs.Status) error {
	if status == runs.StatusRunning {
		return s.transition(ctx, id, status, `, started_at=?`, time.Now().UTC())
	}
	return s.transition(ctx, id, status, "")
}

func (s *Store) FailRun(ctx context.Context, id runs.RunID, reason string) error {
	return s.transition(ctx, id, runs.StatusFailed, `, error=?, result_json=NULL, completed_at=NULL`, reason)
}

func (s *Store) CompleteRun(ctx context.Context, id runs.RunID, result agents.Aggregate, at time.Time) error {
	if result == nil {
		result = agents.Aggregate{}
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return s.transition(ctx, id, runs.StatusCompleted, `, result_json=?, completed_at=?`, string(b), at)
}

var _ runs.Repository = (*Store)(nil)
