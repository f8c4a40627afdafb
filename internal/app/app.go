// Package app wires configuration into the services shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bryanwahyu/convodoc/internal/application"
	appagents "github.com/bryanwahyu/convodoc/internal/application/agents"
	"github.com/bryanwahyu/convodoc/internal/application/analysis"
	"github.com/bryanwahyu/convodoc/internal/application/output"
	"github.com/bryanwahyu/convodoc/internal/config"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/ai"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
	"github.com/bryanwahyu/convodoc/internal/infra/ai/gateway"
	"github.com/bryanwahyu/convodoc/internal/infra/ai/openai"
	"github.com/bryanwahyu/convodoc/internal/infra/db/memory"
	"github.com/bryanwahyu/convodoc/internal/infra/db/mysql"
	"github.com/bryanwahyu/convodoc/internal/infra/db/postgres"
	"github.com/bryanwahyu/convodoc/internal/infra/db/sqlite"
	"github.com/bryanwahyu/convodoc/internal/infra/storage"
	"github.com/bryanwahyu/convodoc/internal/middleware"
)

// Backend is everything a persistence adapter provides.
type Backend interface {
	analysis.Store
	runs.Repository
	conversations.Repository
	auditlog.Repository
	artifacts.Repository
	agents.Repository
}

type pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired services. Close releases the store.
type App struct {
	Config   *config.Config
	Store    Backend
	Gateway  *gateway.Gateway
	Analysis *analysis.Service
	Agents   *appagents.Service
	Checkers map[string]middleware.HealthChecker

	closers []func() error
}

// New opens the configured store, seeds the default agents and builds the
// pipeline. AI analyzers are used only when at least one provider key is set.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Checkers: map[string]middleware.HealthChecker{}}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	if p, ok := store.(pinger); ok {
		a.Checkers["database"] = middleware.NewSharedChecker(middleware.CheckFunc(p.Ping), 5*time.Second)
	}

	a.Agents = appagents.NewService(store)
	if err := a.Agents.Seed(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("seed agents: %w", err)
	}

	var blobs artifacts.BlobStore
	if cfg.Minio.Endpoint != "" {
		mc, err := storage.New(ctx, storage.Options{
			Endpoint:      cfg.Minio.Endpoint,
			Region:        cfg.Minio.Region,
			Bucket:        cfg.Minio.BucketName,
			AccessKey:     cfg.Minio.AccessKey,
			SecretKey:     cfg.Minio.SecretKey,
			UseSSL:        cfg.Minio.UseSSL,
			PresignExpiry: cfg.Minio.PresignExpiry,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		blobs = mc
		a.Checkers["minio"] = middleware.NewSharedChecker(middleware.CheckFunc(mc.Ping), 5*time.Second)
	}

	a.Gateway = gateway.New(logger, aiClients(cfg)...)
	registry := appagents.AIRegistry(a.Gateway, logger)
	switch {
	case cfg.AI.HeuristicOnly:
		registry = appagents.HeuristicRegistry()
		logger.Info("heuristic analyzers only, ai gateway bypassed")
	case a.Gateway.Configured():
		logger.Info("ai analyzers enabled", "providers", a.Gateway.Providers(""))
	default:
		// tanpa key: setiap agent fallback ke heuristik dan ditandai
		logger.Warn("no ai provider configured, results will be marked as fallback")
	}

	renderers, err := output.Select(cfg.Output.Formats)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	clock := application.SystemClock{}
	stage := output.NewStage(store, blobs, clock, logger, renderers...)
	a.Analysis = &analysis.Service{
		Runs:         store,
		Documents:    store,
		AuditLog:     store,
		Artifacts:    store,
		Orchestrator: analysis.NewOrchestrator(store, registry, stage, clock, logger),
		Clock:        clock,
		Logger:       logger,
	}
	return a, nil
}

// Close waits for background runs and closes the store.
func (a *App) Close() error {
	if a.Analysis != nil {
		a.Analysis.Wait()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config) (Backend, func() error, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memory.New(), nil, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		return s, s.Close, nil
	case config.DriverMySQL:
		s, err := mysql.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres open: %w", err)
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

func aiClients(cfg *config.Config) []ai.Client {
	var clients []ai.Client
	if cfg.AI.OpenAIKey != "" {
		clients = append(clients, openai.NewClient(openai.Options{
			Provider: ai.ProviderOpenAI,
			APIKey:   cfg.AI.OpenAIKey,
			Model:    cfg.AI.OpenAIModel,
			Timeout:  cfg.AI.Timeout,
		}))
	}
	if cfg.AI.AnthropicKey != "" {
		clients = append(clients, openai.NewClient(openai.Options{
			Provider: ai.ProviderAnthropic,
			APIKey:   cfg.AI.AnthropicKey,
			Model:    cfg.AI.AnthropicModel,
			Timeout:  cfg.AI.Timeout,
		}))
	}
	return clients
}
