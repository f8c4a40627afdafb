package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
)

const agentColumns = `id, name, type, enabled, config_json, last_run_at, created_at`

func scanAgent(row rowScanner) (agents.Agent, error) {
	var (
		a       agents.Agent
		lastRun sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Enabled, &a.Config, &lastRun, &a.CreatedAt); err != nil {
		return a, err
	}
	a.LastRunAt = timePtr(lastRun)
	return a, nil
}

// SeedAgents inserts definitions whose id is not stored yet. Existing rows keep
// their enabled flag and config.
func (s *Store) SeedAgents(ctx context.Context, defs []agents.Agent) error {
	for _, a := range defs {
		var n int
		if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM agents WHERE id=?`), string(a.ID)).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO agents (id, name, type, enabled, config_json, created_at)
VALUES (?,?,?,?,?,?)`),
			string(a.ID), stringOrDash(a.Name), string(a.Type), a.Enabled, a.Config, nowIfZero(a.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	return s.listAgents(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY id`)
}

func (s *Store) GetEnabledAgents(ctx context.Context) ([]agents.Agent, error) {
	return s.listAgents(ctx, `SELECT `+agentColumns+` FROM agents WHERE enabled=? ORDER BY id`, true)
}

func (s *Store) listAgents(ctx context.Context, query string, args ...any) ([]agents.Agent, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []agents.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) getAgent(ctx context.Context, id agents.AgentID) (*agents.Agent, error) {
	a, err := scanAgent(s.db.QueryRowContext(ctx, s.q(`SELECT `+agentColumns+` FROM agents WHERE id=?`), string(id)))
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) UpdateAgent(ctx context.Context, id agents.AgentID, enabled *bool, cfg agents.Config) (*agents.Agent, error) {
	if _, err := s.getAgent(ctx, id); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	if enabled != nil {
		sets = append(sets, "enabled=?")
		args = append(args, *enabled)
	}
	if cfg != nil {
		sets = append(sets, "config_json=?")
		args = append(args, cfg)
	}
	if len(sets) > 0 {
		args = append(args, string(id))
		if _, err := s.db.ExecContext(ctx, s.q(`UPDATE agents SET `+strings.Join(sets, ", ")+` WHERE id=?`), args...); err != nil {
			return nil, err
		}
	}
	return s.getAgent(ctx, id)
}

func (s *Store) TouchAgentLastRun(ctx context.Context, id agents.AgentID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE agents SET last_run_at=? WHERE id=?`), at, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.getAgent(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

var _ agents.Repository = (*Store)(nil)
