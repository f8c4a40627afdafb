package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bryanwahyu/convodoc/internal/application"
	appagents "github.com/bryanwahyu/convodoc/internal/application/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

const instrumentation = "github.com/bryanwahyu/convodoc/internal/application/analysis"

// Orchestrator executes one run: agents in fixed order, then the output stage.
type Orchestrator struct {
	store     Store
	analyzers appagents.Registry
	output    Output
	clock     application.Clock
	logger    *slog.Logger

	tracer    trace.Tracer
	runs      metric.Int64Counter
	fallbacks metric.Int64Counter
}

func NewOrchestrator(store Store, analyzers appagents.Registry, output Output, clock application.Clock, logger *slog.Logger) *Orchestrator {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter(instrumentation)
	runsCounter, _ := meter.Int64Counter("convodoc.runs",
		metric.WithDescription("Analysis runs by outcome"))
	fallbackCounter, _ := meter.Int64Counter("convodoc.agent.fallbacks",
		metric.WithDescription("AI-backed agents that fell back to heuristics"))

	return &Orchestrator{
		store:     store,
		analyzers: analyzers,
		output:    output,
		clock:     clock,
		logger:    logger,
		tracer:    otel.Tracer(instrumentation),
		runs:      runsCounter,
		fallbacks: fallbackCounter,
	}
}

// RunAnalysis drives run id from pending to a terminal status. On failure the
// run is marked failed and the cause is returned.
func (o *Orchestrator) RunAnalysis(ctx context.Context, id runs.RunID) (err error) {
	ctx, span := o.tracer.Start(ctx, "analysis.run", trace.WithAttributes(attribute.String("run.id", string(id))))
	defer func() {
		outcome := "completed"
		if err != nil {
			outcome = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if o.runs != nil {
			o.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		}
		span.End()
	}()

	run, err := o.store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("get run %s: %w", id, err)
	}
	if !run.Status.Resumable() {
		return fmt.Errorf("%w: run %s is %s", runs.ErrInvalidTransition, id, run.Status)
	}
	if run.Status == runs.StatusPending {
		if err := o.store.UpdateRunStatus(ctx, id, runs.StatusRunning); err != nil {
			return fmt.Errorf("start run %s: %w", id, err)
		}
	}

	t := &trail{store: o.store, runID: id, clock: o.clock, logger: o.logger}
	if err := t.info(ctx, "", "Analysis started", map[string]any{"documentId": run.DocumentID}); err != nil {
		return o.fail(ctx, t, err)
	}

	agg, produced, err := o.execute(ctx, run, t)
	if err != nil {
		return o.fail(ctx, t, err)
	}
	if err := o.store.CompleteRun(ctx, id, agg, o.clock.Now()); err != nil {
		return o.fail(ctx, t, fmt.Errorf("complete run: %w", err))
	}
	if err := t.info(ctx, "", "Analysis completed", map[string]any{
		"agents":    len(agg),
		"artifacts": produced,
	}); err != nil {
		o.logger.ErrorContext(ctx, "write completion log", "run_id", id, "error", err)
	}
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, run *runs.Run, t *trail) (agents.Aggregate, int, error) {
	if _, err := o.store.GetDocument(ctx, run.DocumentID); err != nil {
		return nil, 0, fmt.Errorf("load document %s: %w", run.DocumentID, err)
	}
	msgs, err := o.store.GetMessagesByDocument(ctx, run.DocumentID)
	if err != nil {
		return nil, 0, fmt.Errorf("load messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, 0, fmt.Errorf("document %s: %w", run.DocumentID, runs.ErrEmptyInput)
	}

	enabled, err := o.store.GetEnabledAgents(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load agents: %w", err)
	}
	slices.SortStableFunc(enabled, func(a, b agents.Agent) int {
		return agents.Rank(a.Type) - agents.Rank(b.Type)
	})

	agg := make(agents.Aggregate, len(enabled))
	for _, ag := range enabled {
		res, err := o.runAgent(ctx, t, ag, msgs)
		if err != nil {
			return nil, 0, err
		}
		agg[ag.Type] = res
	}

	report, err := o.output.Generate(ctx, run.ID, agg, msgs)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range report.Skipped {
		if err := t.warn(ctx, "", fmt.Sprintf("Skipped %s output: %v", s.Format, s.Err),
			map[string]any{"format": s.Format}); err != nil {
			return nil, 0, err
		}
	}
	return agg, len(report.Artifacts), nil
}

func (o *Orchestrator) runAgent(ctx context.Context, t *trail, ag agents.Agent, msgs []conversations.Message) (agents.Result, error) {
	ctx, span := o.tracer.Start(ctx, "analysis.agent", trace.WithAttributes(
		attribute.String("agent.id", string(ag.ID)),
		attribute.String("agent.type", string(ag.Type)),
	))
	defer span.End()

	agentID := string(ag.ID)
	if err := t.info(ctx, agentID, "Starting "+ag.Name, nil); err != nil {
		return nil, err
	}

	analyzer, ok := o.analyzers.For(ag.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no analyzer for type %q", runs.ErrAgentExecutionFailed, ag.Name, ag.Type)
	}
	res, err := invoke(ctx, analyzer, msgs, ag.Config)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s: %w", runs.ErrAgentExecutionFailed, ag.Name, err)
	}

	info := res.Info()
	if info.Fallback {
		if o.fallbacks != nil {
			o.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("agent.type", string(ag.Type))))
		}
		if err := t.warn(ctx, agentID, ag.Name+" fell back to heuristic analysis",
			map[string]any{"reason": info.FallbackReason}); err != nil {
			return nil, err
		}
	}

	if err := o.store.TouchAgentLastRun(ctx, ag.ID, o.clock.Now()); err != nil {
		return nil, fmt.Errorf("touch agent %s: %w", ag.ID, err)
	}

	payload := map[string]any{"messageCount": info.MessageCount}
	if info.AIProvider != "" {
		payload["aiProvider"] = info.AIProvider
		payload["aiModel"] = info.AIModel
	}
	if err := t.info(ctx, agentID, "Completed "+ag.Name, payload); err != nil {
		return nil, err
	}
	return res, nil
}

// invoke converts analyzer panics into errors.
func invoke(ctx context.Context, a appagents.Analyzer, msgs []conversations.Message, cfg agents.Config) (res agents.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	res, err = a.Analyze(ctx, msgs, cfg)
	if err == nil && res == nil {
		err = errors.New("analyzer returned no result")
	}
	return res, err
}

// fail marks the run failed and writes the error entry. The returned error is cause.
func (o *Orchestrator) fail(ctx context.Context, t *trail, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if err := o.store.FailRun(ctx, t.runID, cause.Error()); err != nil {
		o.logger.ErrorContext(ctx, "mark run failed", "run_id", t.runID, "error", err)
	}
	if err := t.write(ctx, auditlog.LevelError, "", "Analysis failed: "+cause.Error(),
		map[string]any{"error": cause.Error()}); err != nil {
		o.logger.ErrorContext(ctx, "write failure log", "run_id", t.runID, "error", err)
	}
	return cause
}
