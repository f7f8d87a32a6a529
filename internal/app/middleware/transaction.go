package middleware

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"hotelops/internal/app/commands"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// A command that loses a write race to another transaction is run again from
// scratch on a fresh unit, at most conflictAttempts times in total.
var (
	conflictAttempts  = 8
	conflictBaseDelay = 5 * time.Millisecond
	conflictMaxDelay  = 200 * time.Millisecond
)

// Transaction runs every command inside one unit of work. The unit commits
// only when the handler succeeds; any error rolls it back. When the unit was
// opened here and the run fails with uow.ErrConcurrentUpdate, the command is
// retried so the loser re-reads committed state and reports the real outcome.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			attempts := conflictAttempts
			if _, nested := uow.FromContext(ctx); nested {
				attempts = 1
			}
			var err error
			for attempt := 1; ; attempt++ {
				var res any
				res, err = runInUnit(ctx, factory, opts, next, cmd)
				if err == nil || !errors.Is(err, uow.ErrConcurrentUpdate) || attempt >= attempts {
					return res, err
				}
				select {
				case <-ctx.Done():
					return nil, err
				case <-time.After(conflictDelay(attempt)):
				}
			}
		})
	}
}

func runInUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, next commands.Bus, cmd commands.Command) (any, error) {
	_, execCtx, scope, err := uow.Begin(ctx, factory, opts)
	if err != nil {
		return nil, err
	}
	defer scope.End(execCtx)

	res, err := next.Dispatch(execCtx, cmd)
	if err != nil {
		return nil, err
	}
	if err := scope.Commit(execCtx); err != nil {
		return nil, err
	}
	return res, nil
}

func conflictDelay(attempt int) time.Duration {
	d := conflictBaseDelay << (attempt - 1)
	if d < 0 || d > conflictMaxDelay {
		d = conflictMaxDelay
	}
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d/2+1)
}

// ReadOnlyQueries gives every query a read-only unit of work.
func ReadOnlyQueries(factory uow.UoWFactory) QueryMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			_, execCtx, scope, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
			if err != nil {
				return nil, err
			}
			defer scope.End(execCtx)
			return next.Ask(execCtx, q)
		})
	}
}
