package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	commits   int
	rollbacks int
}

func (t *fakeTx) Exec(context.Context, string, ...any) (Result, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) Row         { return nil }
func (t *fakeTx) Query(context.Context, string, ...any) (Rows, error)  { return nil, nil }
func (t *fakeTx) Commit(context.Context) error                         { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error                       { t.rollbacks++; return nil }

type fakeConn struct {
	fakeTx
	begun []*fakeTx
	err   error
}

func (c *fakeConn) BeginTx(context.Context) (Transaction, error) {
	if c.err != nil {
		return nil, c.err
	}
	tx := &fakeTx{}
	c.begun = append(c.begun, tx)
	return tx, nil
}
func (c *fakeConn) Ping(context.Context) error { return nil }
func (c *fakeConn) Driver() Driver             { return DriverSQLite }
func (c *fakeConn) Close() error               { return nil }

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestUnitOfWork_OwnerFinishesOnce(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	assert.False(t, InTransaction(ctx))
	assert.Same(t, conn, ExecutorFromContext(ctx, conn))

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.Len(t, conn.begun, 1)
	assert.True(t, InTransaction(txCtx))
	assert.Same(t, conn.begun[0], ExecutorFromContext(txCtx, conn))

	require.NoError(t, uow.Commit(txCtx))
	require.NoError(t, uow.Rollback(txCtx))
	assert.Equal(t, 1, conn.begun[0].commits)
	assert.Equal(t, 0, conn.begun[0].rollbacks)
}

func TestUnitOfWork_JoinedUnitLeavesOutcomeToOwner(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	outer, err := uow.Begin(ctx)
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	require.Len(t, conn.begun, 1, "nested begin must not open a second transaction")

	require.NoError(t, uow.Rollback(inner))
	assert.Equal(t, 0, conn.begun[0].rollbacks)

	require.NoError(t, uow.Commit(outer))
	assert.Equal(t, 1, conn.begun[0].commits)
}

func TestUnitOfWork_Errors(t *testing.T) {
	ctx := context.Background()

	uow := NewUnitOfWork(&fakeConn{err: errors.New("pool exhausted")})
	_, err := uow.Begin(ctx)
	assert.EqualError(t, err, "pool exhausted")

	assert.ErrorIs(t, uow.Commit(ctx), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(ctx), ErrNoTransaction)
}

func TestAffectedOne(t *testing.T) {
	assert.NoError(t, AffectedOne(fakeResult(1)))
	assert.ErrorIs(t, AffectedOne(fakeResult(0)), ErrNoRows)
	assert.True(t, IsNoRows(AffectedOne(fakeResult(0))))
}
