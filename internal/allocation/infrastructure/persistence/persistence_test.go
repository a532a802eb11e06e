package persistence_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/allocation/infrastructure/persistence"
	"github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/allot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/migrations"
)

func d(s string) domain.Date { return domain.MustParseDate(s) }

type repos struct {
	conn        database.Connection
	skills      *persistence.SkillRepository
	resources   *persistence.ResourceRepository
	projects    *persistence.ProjectRepository
	tasks       *persistence.TaskRepository
	assignments *persistence.AssignmentRepository
}

func setup(t *testing.T) repos {
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

	return repos{
		conn:        conn,
		skills:      persistence.NewSkillRepository(conn),
		resources:   persistence.NewResourceRepository(conn),
		projects:    persistence.NewProjectRepository(conn),
		tasks:       persistence.NewTaskRepository(conn),
		assignments: persistence.NewAssignmentRepository(conn),
	}
}

func (r repos) project(t *testing.T) *domain.Project {
	t.Helper()
	p := &domain.Project{Name: "Apollo"}
	require.NoError(t, r.projects.Save(context.Background(), p))
	return p
}

func TestSkillRepository_Ensure(t *testing.T) {
	ctx := context.Background()
	r := setup(t)

	first, err := r.skills.Ensure(ctx, "go")
	require.NoError(t, err)
	again, err := r.skills.Ensure(ctx, " go ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = r.skills.Ensure(ctx, "sql")
	require.NoError(t, err)

	skills, err := r.skills.List(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "go", skills[0].Name)
	assert.Equal(t, "sql", skills[1].Name)

	_, err = r.skills.Ensure(ctx, "  ")
	assert.Error(t, err)
}

func TestResourceRepository(t *testing.T) {
	ctx := context.Background()
	r := setup(t)

	goSkill, err := r.skills.Ensure(ctx, "go")
	require.NoError(t, err)
	sqlSkill, err := r.skills.Ensure(ctx, "sql")
	require.NoError(t, err)

	bounded := &domain.Resource{
		Name:           "Ada",
		Skills:         domain.NewSkillSet(sqlSkill.ID, goSkill.ID),
		AvailableFrom:  d("2023-07-01"),
		AvailableUntil: d("2023-12-31"),
	}
	open := &domain.Resource{Name: "Linus", AvailableFrom: d("2023-01-01")}
	require.NoError(t, r.resources.Save(ctx, bounded))
	require.NoError(t, r.resources.Save(ctx, open))

	t.Run("find by id", func(t *testing.T) {
		found, err := r.resources.FindByID(ctx, bounded.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", found.Name)
		assert.Equal(t, domain.NewSkillSet(goSkill.ID, sqlSkill.ID), found.Skills)
		assert.True(t, found.AvailableFrom.Equal(d("2023-07-01")))
		assert.True(t, found.AvailableUntil.Equal(d("2023-12-31")))
	})

	t.Run("list by id without until", func(t *testing.T) {
		all, err := r.resources.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, bounded.ID, all[0].ID)
		assert.True(t, all[1].AvailableUntil.IsZero())
		assert.Empty(t, all[1].Skills)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.resources.FindByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("available from is required", func(t *testing.T) {
		assert.Error(t, r.resources.Save(ctx, &domain.Resource{Name: "Nobody"}))
	})

	t.Run("lock is a no-op on sqlite", func(t *testing.T) {
		assert.NoError(t, r.resources.Lock(ctx, []int64{bounded.ID, open.ID}))
	})
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	r := setup(t)

	p := &domain.Project{Name: "Apollo", Start: d("2023-07-01")}
	require.NoError(t, r.projects.Save(ctx, p))

	found, err := r.projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, found.Start.Equal(d("2023-07-01")))
	assert.True(t, found.End.IsZero())
	assert.True(t, found.Schedulable())

	found.Deleted = true
	require.NoError(t, r.projects.Update(ctx, found))

	found, err = r.projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, found.Schedulable())

	assert.ErrorIs(t, r.projects.Update(ctx, &domain.Project{ID: 404}), domain.ErrNotFound)
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	r := setup(t)
	p := r.project(t)

	goSkill, err := r.skills.Ensure(ctx, "go")
	require.NoError(t, err)

	late := &domain.Task{ProjectID: p.ID, Name: "late", Estimation: 2, Start: d("2023-08-01"), End: d("2023-08-10"), Skills: domain.NewSkillSet(goSkill.ID)}
	undated := &domain.Task{ProjectID: p.ID, Name: "undated", Estimation: 1}
	early := &domain.Task{ProjectID: p.ID, Name: "early", Estimation: 3, Start: d("2023-07-20"), End: d("2023-07-30")}
	done := &domain.Task{ProjectID: p.ID, Name: "done", Estimation: 1, Completed: true}
	gone := &domain.Task{ProjectID: p.ID, Name: "gone", Estimation: 1, Deleted: true}
	assigned := &domain.Task{ProjectID: p.ID, Name: "assigned", Estimation: 1}
	for _, task := range []*domain.Task{late, undated, early, done, gone, assigned} {
		require.NoError(t, r.tasks.Save(ctx, task))
	}

	res := &domain.Resource{Name: "Ada", AvailableFrom: d("2023-01-01")}
	require.NoError(t, r.resources.Save(ctx, res))
	a, err := domain.NewAssignment(assigned.ID, res.ID, d("2023-07-18"), d("2023-07-19"))
	require.NoError(t, err)
	require.NoError(t, r.assignments.Insert(ctx, a))

	t.Run("find by id loads skills and window", func(t *testing.T) {
		found, err := r.tasks.FindByID(ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.NewSkillSet(goSkill.ID), found.Skills)
		assert.Equal(t, 2, found.Estimation)
		assert.True(t, found.End.Equal(d("2023-08-10")))
	})

	t.Run("unassigned ordered with undated first", func(t *testing.T) {
		tasks, err := r.tasks.FindUnassignedByProject(ctx, p.ID)
		require.NoError(t, err)

		var names []string
		for _, task := range tasks {
			names = append(names, task.Name)
		}
		assert.Equal(t, []string{"undated", "early", "late"}, names)
	})

	t.Run("list by project skips deleted", func(t *testing.T) {
		tasks, err := r.tasks.ListByProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 5)
	})

	t.Run("find by ids ignores unknown", func(t *testing.T) {
		tasks, err := r.tasks.FindByIDs(ctx, []int64{early.ID, 999, late.ID})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, late.ID, tasks[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, early.Complete())
		require.NoError(t, r.tasks.Update(ctx, early))

		found, err := r.tasks.FindByID(ctx, early.ID)
		require.NoError(t, err)
		assert.True(t, found.Completed)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.tasks.FindByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAssignmentRepository(t *testing.T) {
	ctx := context.Background()
	r := setup(t)
	p := r.project(t)

	res := &domain.Resource{Name: "Ada", AvailableFrom: d("2023-01-01")}
	require.NoError(t, r.resources.Save(ctx, res))

	var tasks []*domain.Task
	for i := 0; i < 3; i++ {
		task := &domain.Task{ProjectID: p.ID, Name: "task", Estimation: 1}
		require.NoError(t, r.tasks.Save(ctx, task))
		tasks = append(tasks, task)
	}

	insert := func(task *domain.Task, start, end string) *domain.Assignment {
		a, err := domain.NewAssignment(task.ID, res.ID, d(start), d(end))
		require.NoError(t, err)
		require.NoError(t, r.assignments.Insert(ctx, a))
		return a
	}
	old := insert(tasks[0], "2023-06-01", "2023-06-05")
	current := insert(tasks[1], "2023-07-10", "2023-07-20")
	later := insert(tasks[2], "2023-08-01", "2023-08-02")

	t.Run("insert records creation event", func(t *testing.T) {
		assert.NotZero(t, current.ID)
		require.Len(t, current.DomainEvents(), 1)
		assert.Equal(t, domain.RoutingKeyAssignmentCreated, current.DomainEvents()[0].RoutingKey())
	})

	t.Run("one assignment per task", func(t *testing.T) {
		dup, err := domain.NewAssignment(tasks[0].ID, res.ID, d("2023-09-01"), d("2023-09-02"))
		require.NoError(t, err)
		err = r.assignments.Insert(ctx, dup)
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))
	})

	t.Run("active since", func(t *testing.T) {
		active, err := r.assignments.ListActiveSince(ctx, d("2023-07-15"))
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, current.ID, active[0].ID)
		assert.Equal(t, later.ID, active[1].ID)
	})

	t.Run("complete and filter by status", func(t *testing.T) {
		require.NoError(t, old.Complete(d("2023-07-17"), d("2023-06-04")))
		require.NoError(t, r.assignments.Update(ctx, old))

		found, err := r.assignments.FindByID(ctx, old.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, found.Status)
		assert.True(t, found.End.Equal(d("2023-06-04")))

		assigned, err := r.assignments.ListByResource(ctx, res.ID, domain.StatusAssigned)
		require.NoError(t, err)
		assert.Len(t, assigned, 2)

		all, err := r.assignments.ListByResource(ctx, res.ID, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, old.ID, all[0].ID)
	})

	t.Run("find by tasks", func(t *testing.T) {
		found, err := r.assignments.FindByTasks(ctx, []int64{tasks[0].ID, tasks[2].ID})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		byTask, err := r.assignments.FindByTask(ctx, tasks[1].ID)
		require.NoError(t, err)
		assert.Equal(t, current.ID, byTask.ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, r.assignments.Delete(ctx, later.ID))
		_, err := r.assignments.FindByTask(ctx, tasks[2].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, r.assignments.Delete(ctx, later.ID), domain.ErrNotFound)
	})
}

func TestRepositories_RollBackWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	r := setup(t)
	p := r.project(t)

	uow := database.NewUnitOfWork(r.conn)
	err := application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		task := &domain.Task{ProjectID: p.ID, Name: "temp", Estimation: 1}
		if err := r.tasks.Save(txCtx, task); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	tasks, err := r.tasks.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
