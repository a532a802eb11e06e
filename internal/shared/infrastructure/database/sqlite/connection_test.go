package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/shared/application"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()

	conn, err := NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "allot.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE skill (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_ThroughFactory(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "nested", "allot.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	result, err := conn.Exec(ctx, `INSERT INTO skill (id, name) VALUES (?, ?)`, 1, "go")
	require.NoError(t, err)

	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var name string
	require.NoError(t, conn.QueryRow(ctx, `SELECT name FROM skill WHERE id = ?`, 1).Scan(&name))
	assert.Equal(t, "go", name)

	_, err = conn.Exec(ctx, `INSERT INTO skill (id, name) VALUES (?, ?)`, 2, "sql")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT name FROM skill ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"go", "sql"}, names)

	err = conn.QueryRow(ctx, `SELECT name FROM skill WHERE id = ?`, 99).Scan(&name)
	assert.True(t, database.IsNoRows(err))

	_, err = conn.Exec(ctx, `INSERT INTO skill (id, name) VALUES (?, ?)`, 3, "go")
	assert.True(t, database.IsUniqueViolation(err))

	_, err = conn.Exec(ctx, `INSERT INTO skill (id) VALUES (?)`, 4)
	require.Error(t, err)
	assert.False(t, database.IsUniqueViolation(err))
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	err := application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		_, err := database.ExecutorFromContext(txCtx, conn).
			Exec(txCtx, `INSERT INTO skill (id, name) VALUES (?, ?)`, 1, "go")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		_, err := database.ExecutorFromContext(txCtx, conn).
			Exec(txCtx, `INSERT INTO skill (id, name) VALUES (?, ?)`, 2, "sql")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM skill`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUnitOfWork_NestedJoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	outer, err := uow.Begin(ctx)
	require.NoError(t, err)

	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(inner, conn).
		Exec(inner, `INSERT INTO skill (id, name) VALUES (?, ?)`, 1, "go")
	require.NoError(t, err)
	require.NoError(t, uow.Commit(inner))

	require.NoError(t, uow.Rollback(outer))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM skill`).Scan(&count))
	assert.Equal(t, 0, count)
}
