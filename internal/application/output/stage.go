package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bryanwahyu/convodoc/internal/application"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

// Sink persists rendered artifacts.
type Sink interface {
	CreateArtifact(ctx context.Context, a *artifacts.Artifact) error
}

// Report summarizes one output stage invocation.
type Report struct {
	Artifacts []*artifacts.Artifact
	Skipped   []SkippedFormat
}

// SkippedFormat is an optional format whose renderer failed.
type SkippedFormat struct {
	Format artifacts.Format
	Err    error
}

var extensions = map[artifacts.Format]string{
	artifacts.FormatMarkdown: "md",
	artifacts.FormatJSON:     "json",
	artifacts.FormatText:     "txt",
	artifacts.FormatHTML:     "html",
	artifacts.FormatLaTeX:    "tex",
	artifacts.FormatWiki:     "wiki",
}

// Extension is the file extension used for a format's report file.
func Extension(f artifacts.Format) string {
	if ext, ok := extensions[f]; ok {
		return ext
	}
	return string(f)
}

// Stage renders an aggregate in every configured format.
type Stage struct {
	sink      Sink
	blobs     artifacts.BlobStore
	renderers []Renderer
	clock     application.Clock
	logger    *slog.Logger
}

// NewStage uses Default renderers when none are given. blobs may be nil.
func NewStage(sink Sink, blobs artifacts.BlobStore, clock application.Clock, logger *slog.Logger, renderers ...Renderer) *Stage {
	if len(renderers) == 0 {
		renderers = Default()
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{sink: sink, blobs: blobs, renderers: renderers, clock: clock, logger: logger}
}

// Generate persists each artifact as soon as it is rendered. A failing core
// format aborts with ErrOutputGenerationFailed; optional formats are reported
// in Skipped.
func (s *Stage) Generate(ctx context.Context, runID runs.RunID, agg agents.Aggregate, msgs []conversations.Message) (Report, error) {
	var rep Report
	for _, r := range s.renderers {
		content, err := render(r, agg, msgs)
		if err != nil {
			if r.Format().Core() {
				return rep, fmt.Errorf("%w: %s: %w", runs.ErrOutputGenerationFailed, r.Format(), err)
			}
			rep.Skipped = append(rep.Skipped, SkippedFormat{Format: r.Format(), Err: err})
			continue
		}

		art := &artifacts.Artifact{
			ID:          artifacts.ArtifactID(uuid.NewString()),
			RunID:       string(runID),
			Format:      r.Format(),
			ContentType: r.ContentType(),
			Content:     content,
			CreatedAt:   s.clock.Now(),
		}
		art.URL = s.mirror(ctx, art)
		if err := s.sink.CreateArtifact(ctx, art); err != nil {
			return rep, fmt.Errorf("store %s artifact: %w", r.Format(), err)
		}
		rep.Artifacts = append(rep.Artifacts, art)
	}
	return rep, nil
}

// mirror uploads to object storage when configured. Upload errors only cost the URL.
func (s *Stage) mirror(ctx context.Context, art *artifacts.Artifact) string {
	if s.blobs == nil {
		return ""
	}
	key := fmt.Sprintf("runs/%s/report.%s", art.RunID, Extension(art.Format))
	url, err := s.blobs.PutObject(ctx, key, art.ContentType, []byte(art.Content))
	if err != nil {
		s.logger.WarnContext(ctx, "artifact mirror failed", "run_id", art.RunID, "format", art.Format, "error", err)
		return ""
	}
	return url
}

func render(r Renderer, agg agents.Aggregate, msgs []conversations.Message) (content string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer panic: %v", p)
		}
	}()
	content, err = r.Render(agg, msgs)
	if err == nil && content == "" {
		err = errors.New("empty output")
	}
	return content, err
}
