package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/convodoc/internal/app"
	"github.com/bryanwahyu/convodoc/internal/config"
	"github.com/bryanwahyu/convodoc/internal/infra/httpserver"
	"github.com/bryanwahyu/convodoc/internal/logging"
	"github.com/bryanwahyu/convodoc/internal/middleware"
	"github.com/bryanwahyu/convodoc/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// .env opsional, production biasanya gak punya
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("logger init error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	otelShutdown, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName, version, cfg.Telemetry.Insecure)
	if err != nil {
		return err
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// Close nunggu run yang masih jalan di background
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close error", "error", err)
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
	defer limiter.Stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: httpserver.NewRouter(a.Analysis, a.Agents, httpserver.Options{
			Logger:         logger,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RateLimiter:    limiter,
			Checkers:       a.Checkers,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "version", version, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
