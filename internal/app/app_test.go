package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/application/analysis"
	"github.com/bryanwahyu/convodoc/internal/config"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewRunsPipelineOnSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "convodoc.db")
	cfg.Output.Formats = []string{"html"}

	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.False(t, a.Gateway.Configured())
	assert.Contains(t, a.Checkers, "database")

	ctx := context.Background()
	list, err := a.Agents.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(agents.Order))

	doc, err := a.Analysis.Import(ctx, analysis.ImportCommand{
		Title: "demo",
		Data:  []byte("user: The report must include totals.\nassistant: Totals are added at the end."),
	})
	require.NoError(t, err)
	run, err := a.Analysis.RequestAnalysis(ctx, doc.ID)
	require.NoError(t, err)
	require.NoError(t, a.Analysis.Run(ctx, run.ID))

	got, err := a.Analysis.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, runs.StatusCompleted, got.Status)

	arts, err := a.Analysis.ListArtifacts(ctx, run.ID)
	require.NoError(t, err)
	// core formats are always rendered
	assert.Len(t, arts, 4)
}

func runFourMessages(t *testing.T, a *App) *runs.Run {
	t.Helper()
	ctx := context.Background()
	doc, err := a.Analysis.Import(ctx, analysis.ImportCommand{
		Title: "alternating",
		Data: []byte("user: The exporter must support CSV.\nassistant: Which delimiter?\n" +
			"user: Comma, and the docs are unclear.\nassistant: I will document it."),
	})
	require.NoError(t, err)
	run, err := a.Analysis.RequestAnalysis(ctx, doc.ID)
	require.NoError(t, err)
	require.NoError(t, a.Analysis.Run(ctx, run.ID))
	got, err := a.Analysis.Get(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, runs.StatusCompleted, got.Status)
	require.Len(t, got.Result, len(agents.Order))
	return got
}

func TestNewWithoutKeysMarksFallback(t *testing.T) {
	a, err := New(context.Background(), config.Default(), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	got := runFourMessages(t, a)
	for typ, res := range got.Result {
		assert.True(t, res.Info().Fallback, typ)
		assert.NotEmpty(t, res.Info().FallbackReason, typ)
	}

	logs, err := a.Analysis.Logs(context.Background(), got.ID, 0)
	require.NoError(t, err)
	warns := 0
	for _, e := range logs {
		if e.Level == auditlog.LevelWarn {
			warns++
		}
	}
	assert.Equal(t, len(agents.Order), warns)
}

func TestNewHeuristicOnly(t *testing.T) {
	cfg := config.Default()
	cfg.AI.HeuristicOnly = true
	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	got := runFourMessages(t, a)
	for typ, res := range got.Result {
		assert.False(t, res.Info().Fallback, typ)
	}
}

func TestNewConfiguresGatewayFromKeys(t *testing.T) {
	cfg := config.Default()
	cfg.AI.AnthropicKey = "test-key"

	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.True(t, a.Gateway.Configured())
	assert.Len(t, a.Gateway.Providers(""), 1)
	assert.Empty(t, a.Checkers)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	_, err := New(context.Background(), cfg, quiet())
	assert.Error(t, err)
}
