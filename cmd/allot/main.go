package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/adapter/cli/assignment"
	"github.com/felixgeelhaar/allot/adapter/cli/mcp"
	"github.com/felixgeelhaar/allot/adapter/cli/project"
	"github.com/felixgeelhaar/allot/adapter/cli/resource"
	"github.com/felixgeelhaar/allot/adapter/cli/task"
	"github.com/felixgeelhaar/allot/internal/app"
	"github.com/felixgeelhaar/allot/pkg/config"
)

func main() {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logger := app.NewLogger(cfg, "allot")
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Help and flag errors still work without a database.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(assignment.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(project.Cmd)
	cli.AddCommand(resource.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
