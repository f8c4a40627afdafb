package analysis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bryanwahyu/convodoc/internal/application"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

// trail writes audit entries for one run and mirrors them to slog.
type trail struct {
	store  Store
	runID  runs.RunID
	clock  application.Clock
	logger *slog.Logger
}

func (t *trail) info(ctx context.Context, agentID, msg string, payload any) error {
	return t.write(ctx, auditlog.LevelInfo, agentID, msg, payload)
}

func (t *trail) warn(ctx context.Context, agentID, msg string, payload any) error {
	return t.write(ctx, auditlog.LevelWarn, agentID, msg, payload)
}

func (t *trail) write(ctx context.Context, level auditlog.Level, agentID, msg string, payload any) error {
	e := &auditlog.Entry{
		RunID:     string(t.runID),
		AgentID:   agentID,
		Level:     level,
		Message:   msg,
		CreatedAt: t.clock.Now(),
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		e.Payload = b
	}

	attrs := []any{"run_id", t.runID}
	if agentID != "" {
		attrs = append(attrs, "agent_id", agentID)
	}
	t.logger.Log(ctx, slogLevel(level), msg, attrs...)

	return t.store.AppendLog(ctx, e)
}

func slogLevel(l auditlog.Level) slog.Level {
	switch l {
	case auditlog.LevelWarn:
		return slog.LevelWarn
	case auditlog.LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
