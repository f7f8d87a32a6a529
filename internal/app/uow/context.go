package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}

// Begin returns the unit already bound to ctx, or starts one from factory. The
// returned Scope only commits or rolls back units that Begin started itself.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, *Scope, error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, &Scope{unit: unit}, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = ContextWithUnitOfWork(execCtx, unit)
	return unit, execCtx, &Scope{unit: unit, owned: true}, nil
}

// Scope tracks whether the caller owns the unit and still has to end it.
type Scope struct {
	unit      UnitOfWork
	owned     bool
	committed bool
}

// Commit commits units the scope owns; borrowed units are left to their owner.
func (s *Scope) Commit(ctx context.Context) error {
	if !s.owned || s.committed {
		return nil
	}
	if err := s.unit.Commit(ctx); err != nil {
		return err
	}
	s.committed = true
	return nil
}

// End rolls back an owned unit that was not committed.
func (s *Scope) End(ctx context.Context) {
	if s == nil || !s.owned || s.committed {
		return
	}
	_ = s.unit.Rollback(ctx)
}
