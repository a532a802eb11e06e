package application

import (
	"context"
	"errors"
)

// UnitOfWork groups repository writes into one atomic transaction. Begin
// returns the context the repositories must use to join it.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn in a unit of work and commits when it returns nil.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	_, err := InUnitOfWork(ctx, uow, func(txCtx context.Context) (struct{}, error) {
		return struct{}{}, fn(txCtx)
	})
	return err
}

// InUnitOfWork runs fn in a unit of work and returns its result once the
// work is committed. An error from fn, or a panic, rolls everything back; a
// failed rollback is joined to fn's error.
func InUnitOfWork[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return zero, err
	}

	committed := false
	defer func() {
		if !committed {
			if r := recover(); r != nil {
				_ = uow.Rollback(txCtx)
				panic(r)
			}
		}
	}()

	result, err := fn(txCtx)
	if err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return zero, err
	}

	committed = true
	if err := uow.Commit(txCtx); err != nil {
		return zero, err
	}
	return result, nil
}
