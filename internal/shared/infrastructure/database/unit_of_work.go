package database

import (
	"context"
	"sync"
)

type scopeKey struct{}

// txScope is the transaction carried by a context. Only the unit that opened
// it may finish it; nested units join it and leave the outcome to the owner.
type txScope struct {
	tx   Transaction
	once sync.Once
	err  error
}

func (s *txScope) finish(ctx context.Context, commit bool) error {
	s.once.Do(func() {
		if commit {
			s.err = s.tx.Commit(ctx)
			return
		}
		s.err = s.tx.Rollback(ctx)
	})
	return s.err
}

type scopeRef struct {
	scope *txScope
	owner bool
}

func scopeFrom(ctx context.Context) (scopeRef, bool) {
	ref, ok := ctx.Value(scopeKey{}).(scopeRef)
	return ref, ok && ref.scope != nil
}

// InTransaction reports whether ctx carries an open unit of work.
func InTransaction(ctx context.Context) bool {
	_, ok := scopeFrom(ctx)
	return ok
}

// ExecutorFromContext returns the transaction of the surrounding unit of work,
// or conn when there is none.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if ref, ok := scopeFrom(ctx); ok {
		return ref.scope.tx
	}
	return conn
}

// UnitOfWork opens transactions on a Connection and implements
// application.UnitOfWork.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork returns a unit of work over conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin joins the transaction already in ctx or opens a new one.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if ref, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, scopeKey{}, scopeRef{scope: ref.scope}), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, scopeKey{}, scopeRef{scope: &txScope{tx: tx}, owner: true}), nil
}

// Commit commits when ctx owns the transaction. A joined unit commits nothing.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, true)
}

// Rollback rolls back when ctx owns the transaction.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, false)
}

func (u *UnitOfWork) finish(ctx context.Context, commit bool) error {
	ref, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !ref.owner {
		return nil
	}
	return ref.scope.finish(ctx, commit)
}
