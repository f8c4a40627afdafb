package runs

import (
	"context"
	"time"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
)

// Repository port (interface untuk persistence)
type Repository interface {
	CreateRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id RunID) (*Run, error)
	Latest(ctx context.Context, limit int) ([]*Run, error)
	// UpdateRunStatus moves the run to status. Moving to running stamps StartedAt.
	UpdateRunStatus(ctx context.Context, id RunID, status Status) error
	// FailRun moves the run to failed and records the reason. Result stays null.
	FailRun(ctx context.Context, id RunID, reason string) error
	// CompleteRun sets result, completed status and completion time in one write.
	CompleteRun(ctx context.Context, id RunID, result agents.Aggregate, at time.Time) error
}
