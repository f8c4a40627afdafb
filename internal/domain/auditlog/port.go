package auditlog

import "context"

// Repository persists audit entries. Entries are never updated or deleted.
type Repository interface {
	AppendLog(ctx context.Context, e *Entry) error
	ListLogs(ctx context.Context, runID string, limit int) ([]*Entry, error)
}
