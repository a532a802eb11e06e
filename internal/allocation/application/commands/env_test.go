package commands_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/fixtures"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/persistence"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/allot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
)

// env is a migrated SQLite database seeded with the sample scenario.
type env struct {
	conn        database.Connection
	seed        *fixtures.Result
	resources   *persistence.ResourceRepository
	projects    *persistence.ProjectRepository
	tasks       *persistence.TaskRepository
	assignments *persistence.AssignmentRepository
	outbox      *outbox.SQLRepository
	clock       domain.FixedClock

	batch    *commands.BatchHandler
	update   *commands.UpdateAssignmentHandler
	complete *commands.CompleteTaskHandler
	deletes  *commands.DeleteHandler
}

func newEnv(t *testing.T) *env {
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

	e := &env{
		conn:        conn,
		resources:   persistence.NewResourceRepository(conn),
		projects:    persistence.NewProjectRepository(conn),
		tasks:       persistence.NewTaskRepository(conn),
		assignments: persistence.NewAssignmentRepository(conn),
		outbox:      outbox.NewSQLRepository(conn),
	}
	uow := database.NewUnitOfWork(conn)

	scenario, err := fixtures.Scenario("sample")
	require.NoError(t, err)
	loader := fixtures.NewLoader(persistence.NewSkillRepository(conn), e.resources, e.projects, e.tasks, e.assignments, uow, nil)
	e.seed, err = loader.Load(ctx, scenario)
	require.NoError(t, err)
	e.clock = domain.FixedClock{Date: e.seed.Today}

	e.batch = commands.NewBatchHandler(e.resources, e.projects, e.tasks, e.assignments, e.outbox, uow, lock.NewLocalLocker(), e.clock, nil)
	e.update = commands.NewUpdateAssignmentHandler(e.resources, e.tasks, e.assignments, e.outbox, uow, e.clock)
	e.complete = commands.NewCompleteTaskHandler(e.tasks, e.assignments, e.outbox, uow, e.clock)
	e.deletes = commands.NewDeleteHandler(e.projects, e.tasks, e.assignments, e.outbox, uow)
	return e
}

func (e *env) project() int64 { return e.seed.Projects["Website relaunch"] }

func (e *env) task(name string) int64 { return e.seed.Tasks[name] }

func (e *env) resource(name string) int64 { return e.seed.Resources[name] }

func (e *env) countAssignments(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM assignment`).Scan(&n))
	return n
}

func (e *env) countOutbox(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM outbox_events`).Scan(&n))
	return n
}

func d(s string) domain.Date { return domain.MustParseDate(s) }
