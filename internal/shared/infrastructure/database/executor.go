package database

import "context"

// Row is the single-row result shared by *sql.Row and pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is satisfied by *sql.Rows directly and by a thin pgx adapter.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports how many rows a write touched. Inserts that need the new id
// use RETURNING, which both backends support.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs `?` parameterised SQL. Repositories depend on it and never on
// a concrete driver, so the same query text serves SQLite and PostgreSQL.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor bound to one database transaction.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a pooled handle to the allocation store.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Driver() Driver
	Close() error
}

// AffectedOne returns ErrNoRows when a write that targets one row by key
// matched nothing.
func AffectedOne(result Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}
