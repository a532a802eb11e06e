package fixtures_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/persistence"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/allot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/migrations"
)

func newLoader(t *testing.T) (*fixtures.Loader, *persistence.TaskRepository, *persistence.AssignmentRepository) {
	t.Helper()
	ctx := context.Background()

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "allot.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)

	tasks := persistence.NewTaskRepository(conn)
	assignments := persistence.NewAssignmentRepository(conn)
	loader := fixtures.NewLoader(
		persistence.NewSkillRepository(conn),
		persistence.NewResourceRepository(conn),
		persistence.NewProjectRepository(conn),
		tasks,
		assignments,
		database.NewUnitOfWork(conn),
		nil,
	)
	return loader, tasks, assignments
}

func TestParse(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		f, err := fixtures.Parse(strings.NewReader(`
today: "2024-01-02"
resources:
  - name: Ada
    skills: [go]
    available_from: "2024-01-01"
`))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-02", f.Today)
		require.Len(t, f.Resources, 1)
		assert.Equal(t, []string{"go"}, f.Resources[0].Skills)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := fixtures.Parse(strings.NewReader("resources:\n  - name: Ada\n    wage: 10\n"))
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		f, err := fixtures.Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, f.Resources)
	})
}

func TestScenario(t *testing.T) {
	f, err := fixtures.Scenario("sample")
	require.NoError(t, err)
	assert.Equal(t, "2023-07-17", f.Today)
	assert.Len(t, f.Resources, 4)
	require.Len(t, f.Projects, 1)
	assert.Len(t, f.Projects[0].Tasks, 7)

	_, err = fixtures.Scenario("missing")
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	loader, tasks, _ := newLoader(t)

	f, err := fixtures.Scenario("sample")
	require.NoError(t, err)

	res, err := loader.Load(ctx, f)
	require.NoError(t, err)
	assert.True(t, res.Today.Equal(domain.MustParseDate("2023-07-17")))
	assert.Len(t, res.Skills, 4)
	assert.Len(t, res.Tasks, 7)

	unassigned, err := tasks.FindUnassignedByProject(ctx, res.Projects["Website relaunch"])
	require.NoError(t, err)
	require.Len(t, unassigned, 7)
	assert.Equal(t, "T7", unassigned[5].Name)
	assert.Equal(t, "T6", unassigned[6].Name)
}

func TestLoader_LoadAssignments(t *testing.T) {
	ctx := context.Background()
	loader, _, assignments := newLoader(t)

	f, err := fixtures.Parse(strings.NewReader(`
resources:
  - name: Ada
    available_from: "2023-01-01"
projects:
  - name: P
    tasks:
      - name: done
        estimation: 1
        completed: true
assignments:
  - task: done
    resource: Ada
    start: "2023-02-01"
    end: "2023-02-02"
    status: COMPLETED
`))
	require.NoError(t, err)

	res, err := loader.Load(ctx, f)
	require.NoError(t, err)

	a, err := assignments.FindByTask(ctx, res.Tasks["done"])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, a.Status)
}

func TestLoader_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	loader, tasks, _ := newLoader(t)

	f, err := fixtures.Parse(strings.NewReader(`
projects:
  - name: P
    tasks:
      - name: a
        estimation: 1
assignments:
  - task: a
    resource: nobody
    start: "2023-02-01"
    end: "2023-02-02"
`))
	require.NoError(t, err)

	_, err = loader.Load(ctx, f)
	require.Error(t, err)

	found, err := tasks.FindByIDs(ctx, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, found)
}
