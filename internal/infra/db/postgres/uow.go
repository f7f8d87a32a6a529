package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
)

// Factory opens one pgx transaction per unit of work. Writers serialize on
// row locks taken with SELECT ... FOR UPDATE.
type Factory struct {
	Pool *pgxpool.Pool
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Pool == nil {
		return nil, errors.New("postgres: unit of work factory missing pool")
	}
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := f.Pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, uow.Storage("begin", err)
	}
	return &Unit{tx: tx}, nil
}

type Unit struct {
	tx   pgx.Tx
	done bool
}

func (u *Unit) Inventory() inventory.View         { return unitInventory{tx: u.tx} }
func (u *Unit) Reservations() reservations.Ledger { return unitLedger{tx: u.tx} }
func (u *Unit) Guests() uow.GuestDirectory        { return unitGuests{tx: u.tx} }
func (u *Unit) Outbox() appoutbox.Outbox          { return unitOutbox{tx: u.tx} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(ctx); err != nil {
		if isWriteRace(err) {
			return fmt.Errorf("%w: %v", uow.ErrConcurrentUpdate, err)
		}
		return uow.Storage("commit", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return uow.Storage("rollback", err)
	}
	return nil
}

type unitGuests struct{ tx pgx.Tx }

func (g unitGuests) Exists(ctx context.Context, id reservations.GuestID) (bool, error) {
	var ok bool
	if err := g.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM guests WHERE id = $1)`, int64(id)).Scan(&ok); err != nil {
		return false, uow.Storage("guest exists", err)
	}
	return ok, nil
}

var _ uow.UoWFactory = Factory{}
