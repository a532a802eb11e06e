package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

// SkillRepository implements domain.SkillRepository.
type SkillRepository struct{ store }

// NewSkillRepository creates a skill repository.
func NewSkillRepository(conn database.Connection) *SkillRepository {
	return &SkillRepository{store{conn: conn}}
}

// Ensure returns the named skill, inserting it on first use.
func (r *SkillRepository) Ensure(ctx context.Context, name string) (*domain.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errEmptySkillName
	}

	exec := r.exec(ctx)
	skill := &domain.Skill{Name: name}
	err := exec.QueryRow(ctx, `SELECT id FROM skill WHERE name = ?`, name).Scan(&skill.ID)
	if err == nil {
		return skill, nil
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("find skill %q: %w", name, err)
	}

	if err := exec.QueryRow(ctx, `INSERT INTO skill (name) VALUES (?) RETURNING id`, name).Scan(&skill.ID); err != nil {
		return nil, fmt.Errorf("insert skill %q: %w", name, err)
	}
	return skill, nil
}

// List returns all skills by id.
func (r *SkillRepository) List(ctx context.Context) ([]domain.Skill, error) {
	rows, err := r.exec(ctx).Query(ctx, `SELECT id, name FROM skill ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}
