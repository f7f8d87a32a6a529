package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/commands"
	"hotelops/internal/app/dto"
	"hotelops/internal/app/middleware"
	"hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/pricing"
	domainres "hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const admitReservationKey = "reservations.admit"

type AdmitReservationCommand struct {
	GuestID         domainres.GuestID    `validate:"gt=0"`
	RoomTypeID      inventory.RoomTypeID `validate:"gt=0"`
	RoomID          *inventory.RoomID    `validate:"omitempty,gt=0"`
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int `validate:"lte=10"`
	Children        int `validate:"lte=10"`
	Status          domainres.Status
	SpecialRequests string `validate:"max=1000"`
	Notes           string `validate:"max=1000"`
	IdempotencyKeyV string
}

func (c AdmitReservationCommand) Key() string { return admitReservationKey }

func (c AdmitReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c AdmitReservationCommand) ResultPrototype() any { return &dto.AdmissionResult{} }

// AdmitReservationHandler is the only way a reservation enters the ledger.
type AdmitReservationHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
	Encoder    outbox.EventEncoder
}

func (h *AdmitReservationHandler) Handle(ctx context.Context, cmd AdmitReservationCommand) (*dto.AdmissionResult, error) {
	now := clock.OrSystem(h.Clock).Now()

	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	if dr.CheckIn.Before(daterange.Day(now)) {
		return nil, domainres.ErrCheckInInPast
	}
	if err := domainres.ValidateOccupancy(cmd.Adults, cmd.Children); err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = domainres.StatusConfirmed
	}
	if !domainres.InitialStatus(status) {
		return nil, domainres.ErrInvalidTransition
	}

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer scope.End(ctx)

	if err := ensureGuest(ctx, unit, cmd.GuestID); err != nil {
		return nil, err
	}
	rt, err := unit.Inventory().RoomType(ctx, cmd.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if cmd.RoomID != nil {
		if _, err := resolveRoom(ctx, unit, *cmd.RoomID, rt.ID); err != nil {
			return nil, err
		}
	}
	if err := domainres.CheckCapacity(cmd.Adults, cmd.Children, rt); err != nil {
		return nil, err
	}
	total, err := pricing.Quote(rt, dr)
	if err != nil {
		return nil, err
	}

	reservation, err := domainres.NewReservation(domainres.CreateParams{
		ID:              domainres.ID(uuid.NewString()),
		Number:          domainres.NewNumber(uuid.New()),
		GuestID:         cmd.GuestID,
		RoomID:          cmd.RoomID,
		RoomTypeID:      rt.ID,
		Range:           dr,
		Adults:          cmd.Adults,
		Children:        cmd.Children,
		Status:          status,
		Total:           total,
		SpecialRequests: cmd.SpecialRequests,
		Notes:           cmd.Notes,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := enforceSchedule(ctx, unit, reservation); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Insert(ctx, reservation); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, reservation); err != nil {
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	return dto.MapAdmissionResult(reservation), nil
}

var _ commands.Handler[AdmitReservationCommand, *dto.AdmissionResult] = (*AdmitReservationHandler)(nil)
var _ middleware.IdempotentCommand = AdmitReservationCommand{}
