// Package persistence implements the allocation repositories in SQL that runs
// unchanged on SQLite and PostgreSQL.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

// Dates are stored as DATE on PostgreSQL and TEXT on SQLite. Selecting them
// through CAST(... AS TEXT) yields YYYY-MM-DD on both.
func dateColumn(col string) string {
	return "CAST(" + col + " AS TEXT)"
}

type store struct {
	conn database.Connection
}

func (s store) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, s.conn)
}

// dateParam binds an optional date: the zero Date becomes NULL.
func dateParam(d domain.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func parseDate(s sql.NullString) (domain.Date, error) {
	if !s.Valid || s.String == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(s.String)
}

func notFound(kind string, id int64, err error) error {
	if database.IsNoRows(err) {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return fmt.Errorf("find %s %d: %w", kind, id, err)
}

func anyArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// skillLinks reads (owner, skill) pairs from a link table for the owners.
// Rows are drained before returning so the caller can issue more queries on
// a single connection.
func skillLinks(ctx context.Context, exec database.Executor, table, ownerCol string, owners []int64) (map[int64]domain.SkillSet, error) {
	links := make(map[int64]domain.SkillSet, len(owners))
	if len(owners) == 0 {
		return links, nil
	}

	query := fmt.Sprintf(`SELECT %s, skill_id FROM %s WHERE %s IN (%s) ORDER BY %s, skill_id`,
		ownerCol, table, ownerCol, database.Placeholders(len(owners)), ownerCol)
	rows, err := exec.Query(ctx, query, anyArgs(owners)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var owner, skill int64
		if err := rows.Scan(&owner, &skill); err != nil {
			return nil, err
		}
		links[owner] = append(links[owner], skill)
	}
	return links, rows.Err()
}

func insertSkillLinks(ctx context.Context, exec database.Executor, table, ownerCol string, owner int64, skills domain.SkillSet) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, skill_id) VALUES (?, ?)`, table, ownerCol)
	for _, skill := range skills {
		if _, err := exec.Exec(ctx, query, owner, skill); err != nil {
			return fmt.Errorf("link skill %d to %s %d: %w", skill, table, owner, err)
		}
	}
	return nil
}

func expectOne(result database.Result, kind string, id int64) error {
	if err := database.AffectedOne(result); err != nil {
		return notFound(kind, id, err)
	}
	return nil
}

var errEmptySkillName = errors.New("skill name is empty")
