package uow

import (
	"context"

	"hotelops/internal/app/outbox"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
)

// GuestDirectory answers whether a guest profile exists. Profile CRUD lives elsewhere.
type GuestDirectory interface {
	Exists(ctx context.Context, id reservations.GuestID) (bool, error)
}

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Inventory() inventory.View
	Reservations() reservations.Ledger
	Guests() GuestDirectory
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
