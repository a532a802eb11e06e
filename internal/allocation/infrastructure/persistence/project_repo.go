package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

// ProjectRepository implements domain.ProjectRepository.
type ProjectRepository struct{ store }

// NewProjectRepository creates a project repository.
func NewProjectRepository(conn database.Connection) *ProjectRepository {
	return &ProjectRepository{store{conn: conn}}
}

// Save inserts a project, setting its id.
func (r *ProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	err := r.exec(ctx).QueryRow(ctx,
		`INSERT INTO project (name, start_date, end_date, completed, deleted) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		p.Name, dateParam(p.Start), dateParam(p.End), p.Completed, p.Deleted,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert project %q: %w", p.Name, err)
	}
	return nil
}

// FindByID loads a project, deleted or not.
func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	var (
		p          domain.Project
		start, end sql.NullString
	)
	err := r.exec(ctx).QueryRow(ctx,
		`SELECT id, name, `+dateColumn("start_date")+`, `+dateColumn("end_date")+`, completed, deleted FROM project WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &start, &end, &p.Completed, &p.Deleted)
	if err != nil {
		return nil, notFound("project", id, err)
	}
	if p.Start, err = parseDate(start); err != nil {
		return nil, err
	}
	if p.End, err = parseDate(end); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the mutable project fields.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	result, err := r.exec(ctx).Exec(ctx,
		`UPDATE project SET name = ?, start_date = ?, end_date = ?, completed = ?, deleted = ? WHERE id = ?`,
		p.Name, dateParam(p.Start), dateParam(p.End), p.Completed, p.Deleted, p.ID)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	return expectOne(result, "project", p.ID)
}
