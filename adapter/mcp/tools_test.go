package mcp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	"github.com/felixgeelhaar/allot/internal/app"
	"github.com/felixgeelhaar/allot/pkg/config"
)

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	require.NoError(t, RegisterTools(srv, ToolDependencies{App: &cli.App{}}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{"plan.preview", "plan.assign", "assignment.update", "resource.schedule", "allot.health"} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterTools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterTools(nil, ToolDependencies{App: &cli.App{}}))
	assert.Error(t, RegisterTools(srv, ToolDependencies{}))
}

func TestBatchTool(t *testing.T) {
	ctx := context.Background()
	container, err := app.NewContainer(ctx, &config.Config{
		AppEnv:         "test",
		DatabaseDriver: "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "allot.db"),
		Today:          "2023-07-17",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer container.Close()

	scenario, err := fixtures.Scenario("sample")
	require.NoError(t, err)
	seed, err := container.FixtureLoader.Load(ctx, scenario)
	require.NoError(t, err)

	deps := ToolDependencies{App: cli.NewApp(container), Health: container.Health}
	preview := batchTool(deps, commands.ModePlan)
	assign := batchTool(deps, commands.ModeAssign)

	t.Run("preview a task", func(t *testing.T) {
		batch, err := preview(ctx, batchInput{Tasks: []taskItemInput{{TaskID: seed.Tasks["T7"]}}})
		require.NoError(t, err)
		require.Len(t, batch.Assignments, 1)
		assert.Equal(t, seed.Resources["R1"], batch.Assignments[0].ResourceID)
		assert.Equal(t, domain.MustParseDate("2023-07-26"), batch.Assignments[0].Start)
		assert.Equal(t, domain.MustParseDate("2023-07-28"), batch.Assignments[0].End)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := preview(ctx, batchInput{Tasks: []taskItemInput{{TaskID: seed.Tasks["T1"], StartDate: "07/18/2023"}}})
		assert.Error(t, err)
	})

	t.Run("assign with explicit slot then conflict", func(t *testing.T) {
		r1 := seed.Resources["R1"]
		batch, err := assign(ctx, batchInput{Tasks: []taskItemInput{{
			TaskID: seed.Tasks["T1"], ResourceID: r1, StartDate: "2023-07-18", EndDate: "2023-07-21",
		}}})
		require.NoError(t, err)
		assert.Equal(t, commands.StateCommitted, batch.State)

		_, err = assign(ctx, batchInput{Tasks: []taskItemInput{{
			TaskID: seed.Tasks["T3"], ResourceID: r1, StartDate: "2023-07-21", EndDate: "2023-07-24",
		}}})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("neither project nor tasks", func(t *testing.T) {
		_, err := preview(ctx, batchInput{})
		assert.ErrorIs(t, err, domain.ErrInputShape)
	})
}

func TestBatchTool_WithoutDatabase(t *testing.T) {
	_, err := batchTool(ToolDependencies{App: &cli.App{}}, commands.ModePlan)(context.Background(), batchInput{ProjectID: 1})
	assert.Error(t, err)
}
