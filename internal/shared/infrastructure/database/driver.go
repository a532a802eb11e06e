// Package database abstracts the two stores allot runs on: a local SQLite
// file and a shared PostgreSQL server. Queries are written once with `?`
// placeholders; the PostgreSQL driver rebinds them.
package database

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// IsValid reports whether d is a backend allot ships.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// DetectDriver picks the backend for a DATABASE_URL. No URL means local
// SQLite; sqlite and file URLs or database file names are SQLite; anything
// else is treated as a PostgreSQL DSN.
func DetectDriver(url string) Driver {
	if url == "" {
		return DriverSQLite
	}

	scheme, _, found := strings.Cut(url, ":")
	if found {
		switch strings.ToLower(scheme) {
		case "postgres", "postgresql":
			return DriverPostgres
		case "sqlite", "file":
			return DriverSQLite
		}
	}

	switch strings.ToLower(filepath.Ext(url)) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite
	}
	return DriverPostgres
}

// Rebind converts `?` placeholders to `$1`, `$2`, ... for PostgreSQL and
// returns query unchanged for SQLite. Question marks inside single-quoted
// literals are kept.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	out := make([]byte, 0, len(query)+16)
	n, quoted := 0, false
	for i := range len(query) {
		switch c := query[i]; {
		case c == '\'':
			quoted = !quoted
			out = append(out, c)
		case c == '?' && !quoted:
			n++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(n), 10)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// Placeholders returns "?, ?, ..." with n entries for IN lists.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return "?" + strings.Repeat(", ?", n-1)
}
