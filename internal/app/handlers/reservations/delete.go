package reservations

import (
	"context"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/commands"
	"hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	domainres "hotelops/internal/domain/reservations"
)

const deleteReservationKey = "reservations.delete"

type DeleteReservationCommand struct {
	ID domainres.ID `validate:"required"`
}

func (c DeleteReservationCommand) Key() string { return deleteReservationKey }

// DeleteReservationResult echoes the removed reservation number.
type DeleteReservationResult struct {
	ReservationNumber string `json:"reservation_number"`
}

type DeleteReservationHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
	Encoder    outbox.EventEncoder
}

func (h *DeleteReservationHandler) Handle(ctx context.Context, cmd DeleteReservationCommand) (DeleteReservationResult, error) {
	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return DeleteReservationResult{}, err
	}
	defer scope.End(ctx)

	r, err := unit.Reservations().ByID(ctx, cmd.ID)
	if err != nil {
		return DeleteReservationResult{}, err
	}
	if err := unit.Reservations().Delete(ctx, r.ID); err != nil {
		return DeleteReservationResult{}, err
	}
	r.Record(domainres.Deleted{ReservationID: r.ID, Number: r.Number, At: clock.OrSystem(h.Clock).Now()})
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, r); err != nil {
		return DeleteReservationResult{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return DeleteReservationResult{}, err
	}
	return DeleteReservationResult{ReservationNumber: string(r.Number)}, nil
}

var _ commands.Handler[DeleteReservationCommand, DeleteReservationResult] = (*DeleteReservationHandler)(nil)
