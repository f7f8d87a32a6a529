package reservations

import (
	"context"
	"strings"
	"time"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/commands"
	"hotelops/internal/app/dto"
	"hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/pricing"
	domainres "hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const amendReservationKey = "reservations.amend"

// AmendReservationCommand is a patch: nil fields are left untouched.
type AmendReservationCommand struct {
	ID              domainres.ID          `validate:"required"`
	GuestID         *domainres.GuestID    `validate:"omitempty,gt=0"`
	RoomTypeID      *inventory.RoomTypeID `validate:"omitempty,gt=0"`
	RoomID          *inventory.RoomID     `validate:"omitempty,gt=0"`
	ClearRoom       bool
	CheckIn         *time.Time
	CheckOut        *time.Time
	Adults          *int `validate:"omitempty,lte=10"`
	Children        *int `validate:"omitempty,lte=10"`
	Status          *domainres.Status
	SpecialRequests *string `validate:"omitempty,max=1000"`
	Notes           *string `validate:"omitempty,max=1000"`
}

func (c AmendReservationCommand) Key() string { return amendReservationKey }

// touchesOnlyText reports whether the patch edits nothing but free text,
// which is the only change a finished reservation still accepts.
func (c AmendReservationCommand) touchesOnlyText() bool {
	return c.GuestID == nil && c.RoomTypeID == nil && c.RoomID == nil && !c.ClearRoom &&
		c.CheckIn == nil && c.CheckOut == nil && c.Adults == nil && c.Children == nil &&
		c.Status == nil
}

type AmendReservationHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
	Encoder    outbox.EventEncoder
}

func (h *AmendReservationHandler) Handle(ctx context.Context, cmd AmendReservationCommand) (dto.ReservationView, error) {
	now := clock.OrSystem(h.Clock).Now()

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return dto.ReservationView{}, err
	}
	defer scope.End(ctx)

	r, err := unit.Reservations().ByID(ctx, cmd.ID)
	if err != nil {
		return dto.ReservationView{}, err
	}
	if r.Status.Terminal() && !cmd.touchesOnlyText() {
		return dto.ReservationView{}, domainres.ErrInvalidTransition
	}

	var (
		amended      bool
		typeChanged  bool
		roomChanged  bool
		datesChanged bool
		occChanged   bool
	)
	if cmd.SpecialRequests != nil {
		r.SpecialRequests = strings.TrimSpace(*cmd.SpecialRequests)
		amended = true
	}
	if cmd.Notes != nil {
		r.Notes = strings.TrimSpace(*cmd.Notes)
		amended = true
	}
	if cmd.GuestID != nil && *cmd.GuestID != r.GuestID {
		if err := ensureGuest(ctx, unit, *cmd.GuestID); err != nil {
			return dto.ReservationView{}, err
		}
		r.GuestID = *cmd.GuestID
		amended = true
	}
	if cmd.RoomTypeID != nil && *cmd.RoomTypeID != r.RoomTypeID {
		r.RoomTypeID = *cmd.RoomTypeID
		typeChanged = true
	}
	if cmd.ClearRoom && r.RoomID != nil {
		r.RoomID = nil
		roomChanged = true
	}
	if cmd.RoomID != nil && (r.RoomID == nil || *r.RoomID != *cmd.RoomID) {
		id := *cmd.RoomID
		r.RoomID = &id
		roomChanged = true
	}
	if cmd.CheckIn != nil || cmd.CheckOut != nil {
		in, out := r.Range.CheckIn, r.Range.CheckOut
		if cmd.CheckIn != nil {
			in = *cmd.CheckIn
		}
		if cmd.CheckOut != nil {
			out = *cmd.CheckOut
		}
		dr, err := daterange.New(in, out)
		if err != nil {
			return dto.ReservationView{}, err
		}
		if !dr.CheckIn.Equal(r.Range.CheckIn) || !dr.CheckOut.Equal(r.Range.CheckOut) {
			r.Range = dr
			datesChanged = true
		}
	}
	if cmd.Adults != nil || cmd.Children != nil {
		adults, children := r.Adults, r.Children
		if cmd.Adults != nil {
			adults = *cmd.Adults
		}
		if cmd.Children != nil {
			children = *cmd.Children
		}
		if err := domainres.ValidateOccupancy(adults, children); err != nil {
			return dto.ReservationView{}, err
		}
		occChanged = adults != r.Adults || children != r.Children
		r.Adults, r.Children = adults, children
	}

	var rt inventory.RoomType
	if typeChanged || roomChanged || datesChanged || occChanged {
		rt, err = unit.Inventory().RoomType(ctx, r.RoomTypeID)
		if err != nil {
			return dto.ReservationView{}, err
		}
		if r.RoomID != nil && (typeChanged || roomChanged) {
			if _, err := resolveRoom(ctx, unit, *r.RoomID, rt.ID); err != nil {
				return dto.ReservationView{}, err
			}
		}
		if err := domainres.CheckCapacity(r.Adults, r.Children, rt); err != nil {
			return dto.ReservationView{}, err
		}
	}

	activating := false
	if cmd.Status != nil {
		wasActive := r.Active()
		if err := r.TransitionTo(*cmd.Status, now); err != nil {
			return dto.ReservationView{}, err
		}
		activating = !wasActive && r.Active()
	}

	if typeChanged || roomChanged || datesChanged || occChanged || activating {
		if err := enforceSchedule(ctx, unit, r); err != nil {
			return dto.ReservationView{}, err
		}
	}
	if datesChanged || typeChanged {
		total, err := pricing.Quote(rt, r.Range)
		if err != nil {
			return dto.ReservationView{}, err
		}
		r.Total = total
	}
	if amended || typeChanged || roomChanged || datesChanged || occChanged {
		r.UpdatedAt = now.UTC()
		r.Record(domainres.Amended{
			ReservationID: r.ID,
			Number:        r.Number,
			RoomID:        r.RoomID,
			RoomTypeID:    r.RoomTypeID,
			Range:         r.Range,
			Total:         r.Total,
			At:            r.UpdatedAt,
		})
	}

	if err := unit.Reservations().Update(ctx, r); err != nil {
		return dto.ReservationView{}, err
	}
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, r); err != nil {
		return dto.ReservationView{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return dto.ReservationView{}, err
	}
	return dto.MapReservation(r), nil
}

var _ commands.Handler[AmendReservationCommand, dto.ReservationView] = (*AmendReservationHandler)(nil)
