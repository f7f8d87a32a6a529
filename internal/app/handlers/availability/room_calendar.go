package availability

import (
	"context"
	"sort"
	"time"

	"hotelops/internal/app/dto"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/daterange"
)

const roomCalendarKey = "availability.room_calendar"

type GetRoomCalendarQuery struct {
	RoomID inventory.RoomID `validate:"gt=0"`
	From   time.Time
	To     time.Time
}

func (q GetRoomCalendarQuery) Key() string { return roomCalendarKey }

// GetRoomCalendarHandler shows which nights of a window a room is held.
type GetRoomCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRoomCalendarHandler) Handle(ctx context.Context, q GetRoomCalendarQuery) (dto.RoomCalendar, error) {
	window, err := daterange.New(q.From, q.To)
	if err != nil {
		return dto.RoomCalendar{}, err
	}

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.RoomCalendar{}, err
	}
	defer scope.End(ctx)

	room, err := unit.Inventory().Room(ctx, q.RoomID)
	if err != nil {
		return dto.RoomCalendar{}, err
	}
	held, err := unit.Reservations().ActiveForRoom(ctx, room.ID, window)
	if err != nil {
		return dto.RoomCalendar{}, err
	}
	sort.Slice(held, func(i, j int) bool {
		return held[i].Range.CheckIn.Before(held[j].Range.CheckIn)
	})

	out := dto.RoomCalendar{
		RoomID:     int64(room.ID),
		RoomNumber: room.Number,
		Status:     string(room.Status),
		From:       window.CheckIn.Format(daterange.DateLayout),
		To:         window.CheckOut.Format(daterange.DateLayout),
		Blocks:     make([]dto.CalendarBlock, 0, len(held)),
		UpdatedAt:  room.UpdatedAt,
	}
	booked := 0
	for _, r := range held {
		clamped, ok := r.Range.Clamp(window)
		if !ok || !r.Active() {
			continue
		}
		booked += clamped.Nights()
		out.Blocks = append(out.Blocks, dto.MapCalendarBlock(r))
	}
	out.FreeNights = window.Nights() - booked
	return out, nil
}

var _ queries.Handler[GetRoomCalendarQuery, dto.RoomCalendar] = (*GetRoomCalendarHandler)(nil)
