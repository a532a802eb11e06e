package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDriver(t *testing.T) {
	tests := map[string]Driver{
		"":                                      DriverSQLite,
		"postgres://allot:secret@db:5432/allot": DriverPostgres,
		"postgresql://db/allot?sslmode=disable": DriverPostgres,
		"POSTGRES://db/allot":                   DriverPostgres,
		"sqlite:///var/lib/allot/allot.db":      DriverSQLite,
		"file:allot.db?cache=shared":            DriverSQLite,
		"/home/planner/.allot/allot.db":         DriverSQLite,
		"./allot.sqlite":                        DriverSQLite,
		"allot.SQLITE3":                         DriverSQLite,
		"host=db user=allot dbname=allot":       DriverPostgres,
		"mysql://db/allot":                      DriverPostgres,
	}

	for url, want := range tests {
		assert.Equal(t, want, DetectDriver(url), "url %q", url)
	}
}

func TestDriver(t *testing.T) {
	assert.Equal(t, "sqlite", DriverSQLite.String())
	assert.True(t, DriverPostgres.IsValid())
	assert.True(t, DriverSQLite.IsValid())
	assert.False(t, Driver("auto").IsValid())
	assert.False(t, Driver("").IsValid())
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: `SELECT id FROM resource ORDER BY id`,
			want:  `SELECT id FROM resource ORDER BY id`,
		},
		{
			name:  "numbered in order",
			query: `SELECT id FROM assignment WHERE resource_id = ? AND end_date >= ?`,
			want:  `SELECT id FROM assignment WHERE resource_id = $1 AND end_date >= $2`,
		},
		{
			name:  "literal question mark kept",
			query: `UPDATE task SET name = 'why?' WHERE id = ?`,
			want:  `UPDATE task SET name = 'why?' WHERE id = $1`,
		},
		{
			name:  "ten or more",
			query: "VALUES (" + Placeholders(10) + ")",
			want:  "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(DriverPostgres, tt.query))
			assert.Equal(t, tt.query, Rebind(DriverSQLite, tt.query))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Empty(t, Placeholders(0))
	assert.Empty(t, Placeholders(-2))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
}
