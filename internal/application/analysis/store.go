package analysis

import (
	"context"
	"time"

	"github.com/bryanwahyu/convodoc/internal/application/output"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

// Store is the persistence the orchestrator needs for one run.
type Store interface {
	GetRun(ctx context.Context, id runs.RunID) (*runs.Run, error)
	UpdateRunStatus(ctx context.Context, id runs.RunID, status runs.Status) error
	FailRun(ctx context.Context, id runs.RunID, reason string) error
	CompleteRun(ctx context.Context, id runs.RunID, result agents.Aggregate, at time.Time) error

	GetDocument(ctx context.Context, id conversations.DocumentID) (*conversations.Document, error)
	GetMessagesByDocument(ctx context.Context, id conversations.DocumentID) ([]conversations.Message, error)

	GetEnabledAgents(ctx context.Context) ([]agents.Agent, error)
	TouchAgentLastRun(ctx context.Context, id agents.AgentID, at time.Time) error

	AppendLog(ctx context.Context, e *auditlog.Entry) error
	CreateArtifact(ctx context.Context, a *artifacts.Artifact) error
}

// Output renders the aggregate into artifacts, persisting each as it is produced.
type Output interface {
	Generate(ctx context.Context, runID runs.RunID, agg agents.Aggregate, msgs []conversations.Message) (output.Report, error)
}
