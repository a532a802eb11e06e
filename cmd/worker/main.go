// Command allot-worker relays assignment events from the outbox to RabbitMQ.
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

	"github.com/felixgeelhaar/allot/internal/app"
	"github.com/felixgeelhaar/allot/pkg/config"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.DefaultLogConfig()).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "allot-worker")
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting allot worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer container.Close()

	publisher, err := container.NewPublisher()
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("create event publisher: %w", err)
		}
		logger.Warn("RabbitMQ not available, events stay in the outbox", "error", err)
		return nil
	}
	defer publisher.Close()

	processor := container.NewOutboxProcessor(publisher)
	if cfg.OutboxProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			return fmt.Errorf("start outbox processor: %w", err)
		}
		defer processor.Stop()
	} else {
		logger.Info("outbox processor disabled")
	}

	go cleanupLoop(ctx, processor, cfg.OutboxCleanupInterval, logger)

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           newHealthRouter(processor, container.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	return nil
}

type cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

func cleanupLoop(ctx context.Context, c cleaner, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Cleanup(ctx); err != nil {
				logger.Error("outbox cleanup failed", "error", err)
			}
		}
	}
}
