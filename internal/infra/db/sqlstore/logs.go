package sqlstore

import (
	"context"
	"database/sql"

	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
)

// AppendLog inserts e and sets e.Seq from the generated key.
func (s *Store) AppendLog(ctx context.Context, e *auditlog.Entry) error {
	e.CreatedAt = nowIfZero(e.CreatedAt)
	payload := nullString(string(e.Payload))
	const insert = `INSERT INTO run_logs (run_id, agent_id, level, message, payload_json, created_at) VALUES (?,?,?,?,?,?)`
	args := []any{e.RunID, e.AgentID, string(e.Level), e.Message, payload, e.CreatedAt}

	if s.dialect.Returning {
		return s.db.QueryRowContext(ctx, s.q(insert+` RETURNING seq`), args...).Scan(&e.Seq)
	}
	res, err := s.db.ExecContext(ctx, s.q(insert), args...)
	if err != nil {
		return err
	}
	e.Seq, err = res.LastInsertId()
	return err
}

func (s *Store) ListLogs(ctx context.Context, runID string, limit int) ([]*auditlog.Entry, error) {
	query := `SELECT seq, run_id, agent_id, level, message, payload_json, created_at FROM run_logs WHERE run_id=? ORDER BY seq`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*auditlog.Entry
	for rows.Next() {
		var (
			e       auditlog.Entry
			payload sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.RunID, &e.AgentID, &e.Level, &e.Message, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

var _ auditlog.Repository = (*Store)(nil)
