package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// CreateDocument inserts the document and its messages in one transaction.
func (s *Store) CreateDocument(ctx context.Context, d *conversations.Document, msgs []conversations.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO documents (id, title, source, message_count, created_at)
VALUES (?,?,?,?,?)`),
		string(d.ID), stringOrDash(d.Title), d.Source, d.MessageCount, nowIfZero(d.CreatedAt)); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
INSERT INTO messages (document_id, position, role, content, topic, sent_at)
VALUES (?,?,?,?,?,?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, m := range msgs {
		if _, err := stmt.ExecContext(ctx, string(d.ID), i, m.Role, m.Content, m.Topic, nullTime(m.Timestamp)); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetDocument(ctx context.Context, id conversations.DocumentID) (*conversations.Document, error) {
	var d conversations.Document
	err := s.db.QueryRowContext(ctx, s.q(`
SELECT id, title, source, message_count, created_at FROM documents WHERE id=?`), string(id)).
		Scan(&d.ID, &d.Title, &d.Source, &d.MessageCount, &d.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *Store) GetMessagesByDocument(ctx context.Context, id conversations.DocumentID) ([]conversations.Message, error) {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT role, content, topic, sent_at FROM messages WHERE document_id=? ORDER BY position`), string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []conversations.Message{}
	for rows.Next() {
		var (
			m  conversations.Message
			ts sql.NullTime
		)
		if err := rows.Scan(&m.Role, &m.Content, &m.Topic, &ts); err != nil {
			return nil, err
		}
		m.Timestamp = timePtr(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListDocuments(ctx context.Context, limit int) ([]*conversations.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT id, title, source, message_count, created_at FROM documents
ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*conversations.Document
	for rows.Next() {
		var d conversations.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Source, &d.MessageCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

var _ conversations.Repository = (*Store)(nil)
