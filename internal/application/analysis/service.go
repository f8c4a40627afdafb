package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/convodoc/internal/application"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

// Service implements use-cases untuk run & dokumen, aman dipakai concurrent
type Service struct {
	Runs         runs.Repository
	Documents    conversations.Repository
	AuditLog     auditlog.Repository
	Artifacts    artifacts.Repository
	Orchestrator *Orchestrator
	Clock        application.Clock
	Logger       *slog.Logger

	wg sync.WaitGroup
}

//
// ==== USE CASES ====
//

// ImportCommand untuk import satu conversation export
type ImportCommand struct {
	Title  string
	Source string
	Data   []byte
}

// Import parses a conversation export and stores it as a new document.
func (s *Service) Import(ctx context.Context, cmd ImportCommand) (*conversations.Document, error) {
	msgs, err := conversations.Parse(cmd.Data)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("import %q: %w", cmd.Title, runs.ErrEmptyInput)
	}
	title := cmd.Title
	if title == "" {
		title = "Untitled conversation"
	}
	doc := &conversations.Document{
		ID:           conversations.DocumentID(uuid.NewString()),
		Title:        title,
		Source:       cmd.Source,
		MessageCount: len(msgs),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Documents.CreateDocument(ctx, doc, msgs); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// RequestAnalysis creates a pending run for an existing document.
func (s *Service) RequestAnalysis(ctx context.Context, docID conversations.DocumentID) (*runs.Run, error) {
	if _, err := s.Documents.GetDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("document %s: %w", docID, err)
	}
	run := &runs.Run{
		ID:         runs.RunID(uuid.NewString()),
		DocumentID: docID,
		Status:     runs.StatusPending,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// Start → jalanin RunAnalysis di goroutine dengan context.Background()
// supaya gak kena context canceled waktu request HTTP selesai.
// done, if non-nil, receives the outcome.
func (s *Service) Start(id runs.RunID, done func(error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.Orchestrator.RunAnalysis(context.Background(), id)
		if err != nil {
			s.logger().Error("analysis run failed", "run_id", id, "error", err)
		}
		if done != nil {
			done(err)
		}
	}()
}

// Wait blocks until every run launched by Start has returned.
func (s *Service) Wait() { s.wg.Wait() }

// Run executes the pipeline synchronously.
func (s *Service) Run(ctx context.Context, id runs.RunID) error {
	return s.Orchestrator.RunAnalysis(ctx, id)
}

func (s *Service) Document(ctx context.Context, id conversations.DocumentID) (*conversations.Document, error) {
	return s.Documents.GetDocument(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, limit int) ([]*conversations.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Documents.ListDocuments(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	return s.Runs.GetRun(ctx, id)
}

func (s *Service) Latest(ctx context.Context, limit int) ([]*runs.Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Runs.Latest(ctx, limit)
}

// Logs returns the run's audit entries in append order.
func (s *Service) Logs(ctx context.Context, id runs.RunID, limit int) ([]*auditlog.Entry, error) {
	if _, err := s.Runs.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return s.AuditLog.ListLogs(ctx, string(id), limit)
}

func (s *Service) ListArtifacts(ctx context.Context, id runs.RunID) ([]*artifacts.Artifact, error) {
	if _, err := s.Runs.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return s.Artifacts.ListArtifacts(ctx, string(id))
}

func (s *Service) Artifact(ctx context.Context, id runs.RunID, format artifacts.Format) (*artifacts.Artifact, error) {
	return s.Artifacts.GetArtifact(ctx, string(id), format)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
