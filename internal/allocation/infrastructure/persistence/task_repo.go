package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

var taskColumns = `t.id, t.project_id, t.name, t.estimation, ` +
	dateColumn("t.start_date") + `, ` + dateColumn("t.end_date") + `, t.completed, t.deleted`

// TaskRepository implements domain.TaskRepository.
type TaskRepository struct{ store }

// NewTaskRepository creates a task repository.
func NewTaskRepository(conn database.Connection) *TaskRepository {
	return &TaskRepository{store{conn: conn}}
}

// Save inserts a task and its required skills, setting its id.
func (r *TaskRepository) Save(ctx context.Context, t *domain.Task) error {
	if t.Estimation < 0 {
		return fmt.Errorf("task %q: estimation must not be negative", t.Name)
	}
	exec := r.exec(ctx)
	err := exec.QueryRow(ctx,
		`INSERT INTO task (project_id, name, estimation, start_date, end_date, completed, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.ProjectID, t.Name, t.Estimation, dateParam(t.Start), dateParam(t.End), t.Completed, t.Deleted,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert task %q: %w", t.Name, err)
	}
	return insertSkillLinks(ctx, exec, "task_skill", "task_id", t.ID, t.Skills)
}

// FindByID loads a task, deleted or not.
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*domain.Task, error) {
	tasks, err := r.load(ctx, `SELECT `+taskColumns+` FROM task t WHERE t.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return &tasks[0], nil
}

// FindByIDs loads the tasks that exist among ids, ordered by id.
func (r *TaskRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.load(ctx,
		`SELECT `+taskColumns+` FROM task t WHERE t.id IN (`+database.Placeholders(len(ids))+`) ORDER BY t.id`,
		anyArgs(ids)...)
}

// FindUnassignedByProject returns the project's open tasks without an
// assignment, undated tasks first, then by start date and id.
func (r *TaskRepository) FindUnassignedByProject(ctx context.Context, projectID int64) ([]domain.Task, error) {
	return r.load(ctx, `SELECT `+taskColumns+` FROM task t
		WHERE t.project_id = ? AND t.completed = ? AND t.deleted = ?
		  AND NOT EXISTS (SELECT 1 FROM assignment a WHERE a.task_id = t.id)
		ORDER BY t.start_date ASC NULLS FIRST, t.id ASC`,
		projectID, false, false)
}

// ListByProject returns the project's tasks that are not deleted.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Task, error) {
	return r.load(ctx, `SELECT `+taskColumns+` FROM task t
		WHERE t.project_id = ? AND t.deleted = ?
		ORDER BY t.id`,
		projectID, false)
}

// Update writes the mutable task fields. Skills are not changed.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	result, err := r.exec(ctx).Exec(ctx,
		`UPDATE task SET name = ?, estimation = ?, start_date = ?, end_date = ?, completed = ?, deleted = ? WHERE id = ?`,
		t.Name, t.Estimation, dateParam(t.Start), dateParam(t.End), t.Completed, t.Deleted, t.ID)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return expectOne(result, "task", t.ID)
}

func (r *TaskRepository) load(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	exec := r.exec(ctx)
	tasks, err := scanTasks(ctx, exec, query, args...)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	links, err := skillLinks(ctx, exec, "task_skill", "task_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Skills = links[tasks[i].ID]
	}
	return tasks, nil
}

func scanTasks(ctx context.Context, exec database.Executor, query string, args ...any) ([]domain.Task, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t          domain.Task
			start, end sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Estimation, &start, &end, &t.Completed, &t.Deleted); err != nil {
			return nil, err
		}
		if t.Start, err = parseDate(start); err != nil {
			return nil, err
		}
		if t.End, err = parseDate(end); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
