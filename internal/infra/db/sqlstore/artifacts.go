package sqlstore

import (
	"context"

	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
)

const artifactColumns = `id, run_id, format, content_type, content, url, created_at`

func (s *Store) CreateArtifact(ctx context.Context, a *artifacts.Artifact) error {
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO artifacts (`+artifactColumns+`)
VALUES (?,?,?,?,?,?,?)`),
		string(a.ID), a.RunID, string(a.Format), a.ContentType, a.Content, a.URL, nowIfZero(a.CreatedAt))
	return err
}

func scanArtifact(row rowScanner) (*artifacts.Artifact, error) {
	var a artifacts.Artifact
	if err := row.Scan(&a.ID, &a.RunID, &a.Format, &a.ContentType, &a.Content, &a.URL, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]*artifacts.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT `+artifactColumns+` FROM artifacts WHERE run_id=? ORDER BY created_at, id`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*artifacts.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetArtifact(ctx context.Context, runID string, format artifacts.Format) (*artifacts.Artifact, error) {
	a, err := scanArtifact(s.db.QueryRowContext(ctx, s.q(`
SELECT `+artifactColumns+` FROM artifacts WHERE run_id=? AND format=?`), runID, string(format)))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

var _ artifacts.Repository = (*Store)(nil)
