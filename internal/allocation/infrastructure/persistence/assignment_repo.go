package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

var assignmentColumns = `id, task_id, resource_id, ` +
	dateColumn("start_date") + `, ` + dateColumn("end_date") + `, status`

// AssignmentRepository implements domain.AssignmentRepository.
type AssignmentRepository struct{ store }

// NewAssignmentRepository creates an assignment repository.
func NewAssignmentRepository(conn database.Connection) *AssignmentRepository {
	return &AssignmentRepository{store{conn: conn}}
}

// Insert stores a new assignment and records its creation event.
func (r *AssignmentRepository) Insert(ctx context.Context, a *domain.Assignment) error {
	var id int64
	err := r.exec(ctx).QueryRow(ctx,
		`INSERT INTO assignment (task_id, resource_id, start_date, end_date, status) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		a.TaskID, a.ResourceID, a.Start.String(), a.End.String(), a.Status.String(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert assignment for task %d: %w", a.TaskID, err)
	}
	a.Stored(id)
	return nil
}

// Update writes resource, dates and status.
func (r *AssignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	result, err := r.exec(ctx).Exec(ctx,
		`UPDATE assignment SET resource_id = ?, start_date = ?, end_date = ?, status = ? WHERE id = ?`,
		a.ResourceID, a.Start.String(), a.End.String(), a.Status.String(), a.ID)
	if err != nil {
		return fmt.Errorf("update assignment %d: %w", a.ID, err)
	}
	return expectOne(result, "assignment", a.ID)
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.exec(ctx).Exec(ctx, `DELETE FROM assignment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment %d: %w", id, err)
	}
	return expectOne(result, "assignment", id)
}

// FindByID loads one assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	found, err := r.query(ctx, `SELECT `+assignmentColumns+` FROM assignment WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("assignment %d: %w", id, domain.ErrNotFound)
	}
	return found[0], nil
}

// FindByTask returns the task's assignment or domain.ErrNotFound.
func (r *AssignmentRepository) FindByTask(ctx context.Context, taskID int64) (*domain.Assignment, error) {
	found, err := r.query(ctx, `SELECT `+assignmentColumns+` FROM assignment WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("assignment for task %d: %w", taskID, domain.ErrNotFound)
	}
	return found[0], nil
}

// FindByTasks returns the assignments of any status held by the tasks.
func (r *AssignmentRepository) FindByTasks(ctx context.Context, taskIDs []int64) ([]*domain.Assignment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	return r.query(ctx,
		`SELECT `+assignmentColumns+` FROM assignment WHERE task_id IN (`+database.Placeholders(len(taskIDs))+`) ORDER BY id`,
		anyArgs(taskIDs)...)
}

// ListActiveSince returns ASSIGNED assignments ending on or after from.
func (r *AssignmentRepository) ListActiveSince(ctx context.Context, from domain.Date) ([]*domain.Assignment, error) {
	return r.query(ctx, `SELECT `+assignmentColumns+` FROM assignment
		WHERE status = ? AND end_date >= ?
		ORDER BY resource_id, start_date, id`,
		domain.StatusAssigned.String(), from.String())
}

// ListByResource returns the resource's assignments by start date.
func (r *AssignmentRepository) ListByResource(ctx context.Context, resourceID int64, status domain.Status) ([]*domain.Assignment, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+assignmentColumns+` FROM assignment
			WHERE resource_id = ? ORDER BY start_date, id`, resourceID)
	}
	return r.query(ctx, `SELECT `+assignmentColumns+` FROM assignment
		WHERE resource_id = ? AND status = ? ORDER BY start_date, id`, resourceID, status.String())
}

func (r *AssignmentRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Assignment, error) {
	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		var (
			a                  domain.Assignment
			start, end, status string
		)
		if err := rows.Scan(&a.ID, &a.TaskID, &a.ResourceID, &start, &end, &status); err != nil {
			return nil, err
		}
		if a.Start, err = domain.ParseDate(start); err != nil {
			return nil, err
		}
		if a.End, err = domain.ParseDate(end); err != nil {
			return nil, err
		}
		if a.Status, err = domain.ParseStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
