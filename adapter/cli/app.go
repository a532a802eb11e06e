package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	internalApp "github.com/felixgeelhaar/allot/internal/app"
)

// ErrNotInitialized is returned by commands run without a database.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	Container *internalApp.Container

	BatchHandler            *commands.BatchHandler
	UpdateAssignmentHandler *commands.UpdateAssignmentHandler
	CompleteTaskHandler     *commands.CompleteTaskHandler
	DeleteHandler           *commands.DeleteHandler

	ResourceScheduleHandler *queries.ResourceScheduleHandler
	TaskAssignmentHandler   *queries.TaskAssignmentHandler

	FixtureLoader *fixtures.Loader
}

// NewApp creates a CLI application backed by the container.
func NewApp(container *internalApp.Container) *App {
	return &App{
		Container:               container,
		BatchHandler:            container.BatchHandler,
		UpdateAssignmentHandler: container.UpdateAssignmentHandler,
		CompleteTaskHandler:     container.CompleteTaskHandler,
		DeleteHandler:           container.DeleteHandler,
		ResourceScheduleHandler: container.ResourceScheduleHandler,
		TaskAssignmentHandler:   container.TaskAssignmentHandler,
		FixtureLoader:           container.FixtureLoader,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// PrintJSON writes v to the command output as indented JSON.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
