package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

var resourceColumns = `id, name, ` + dateColumn("available_from") + `, ` + dateColumn("available_until")

// ResourceRepository implements domain.ResourceRepository.
type ResourceRepository struct{ store }

// NewResourceRepository creates a resource repository.
func NewResourceRepository(conn database.Connection) *ResourceRepository {
	return &ResourceRepository{store{conn: conn}}
}

// Save inserts a resource and its skills, setting its id.
func (r *ResourceRepository) Save(ctx context.Context, resource *domain.Resource) error {
	if resource.AvailableFrom.IsZero() {
		return fmt.Errorf("resource %q: available_from is required", resource.Name)
	}
	exec := r.exec(ctx)
	err := exec.QueryRow(ctx,
		`INSERT INTO resource (name, available_from, available_until) VALUES (?, ?, ?) RETURNING id`,
		resource.Name, dateParam(resource.AvailableFrom), dateParam(resource.AvailableUntil),
	).Scan(&resource.ID)
	if err != nil {
		return fmt.Errorf("insert resource %q: %w", resource.Name, err)
	}
	return insertSkillLinks(ctx, exec, "resource_skill", "resource_id", resource.ID, resource.Skills)
}

// FindByID loads one resource.
func (r *ResourceRepository) FindByID(ctx context.Context, id int64) (*domain.Resource, error) {
	exec := r.exec(ctx)
	resource, err := scanResource(exec.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resource WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("resource", id, err)
	}
	links, err := skillLinks(ctx, exec, "resource_skill", "resource_id", []int64{id})
	if err != nil {
		return nil, err
	}
	resource.Skills = links[id]
	return &resource, nil
}

// List returns every resource ordered by id.
func (r *ResourceRepository) List(ctx context.Context) ([]domain.Resource, error) {
	exec := r.exec(ctx)
	resources, err := r.query(ctx, exec, `SELECT `+resourceColumns+` FROM resource ORDER BY id`)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(resources))
	for i, res := range resources {
		ids[i] = res.ID
	}
	links, err := skillLinks(ctx, exec, "resource_skill", "resource_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		resources[i].Skills = links[resources[i].ID]
	}
	return resources, nil
}

// Lock takes FOR UPDATE row locks in id order. SQLite has no row locks and
// already serialises writers on its single connection, so it is a no-op there.
func (r *ResourceRepository) Lock(ctx context.Context, ids []int64) error {
	if len(ids) == 0 || r.conn.Driver() != database.DriverPostgres {
		return nil
	}
	rows, err := r.exec(ctx).Query(ctx,
		`SELECT id FROM resource WHERE id IN (`+database.Placeholders(len(ids))+`) ORDER BY id FOR UPDATE`,
		anyArgs(ids)...)
	if err != nil {
		return fmt.Errorf("lock resources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (r *ResourceRepository) query(ctx context.Context, exec database.Executor, query string, args ...any) ([]domain.Resource, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func scanResource(row database.Row) (domain.Resource, error) {
	var (
		res         domain.Resource
		from, until sql.NullString
	)
	if err := row.Scan(&res.ID, &res.Name, &from, &until); err != nil {
		return domain.Resource{}, err
	}
	var err error
	if res.AvailableFrom, err = parseDate(from); err != nil {
		return domain.Resource{}, err
	}
	if res.AvailableUntil, err = parseDate(until); err != nil {
		return domain.Resource{}, err
	}
	return res, nil
}
