package inventory

import (
	"context"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/commands"
	"hotelops/internal/app/uow"
	domaininv "hotelops/internal/domain/inventory"
)

const updateRoomStatusKey = "inventory.room_status"

// UpdateRoomStatusCommand carries a housekeeping status change.
type UpdateRoomStatusCommand struct {
	RoomID domaininv.RoomID     `validate:"gt=0"`
	Status domaininv.RoomStatus `validate:"required"`
}

func (c UpdateRoomStatusCommand) Key() string { return updateRoomStatusKey }

type UpdateRoomStatusResult struct {
	RoomID     int64  `json:"room_id"`
	RoomNumber string `json:"room_number"`
	Previous   string `json:"previous"`
	Status     string `json:"status"`
}

type UpdateRoomStatusHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
}

// Handle applies the change under the room type guard, since taking a room out
// of order shrinks what admission may sell for that type.
func (h *UpdateRoomStatusHandler) Handle(ctx context.Context, cmd UpdateRoomStatusCommand) (UpdateRoomStatusResult, error) {
	status, err := domaininv.ParseRoomStatus(string(cmd.Status))
	if err != nil {
		return UpdateRoomStatusResult{}, err
	}

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return UpdateRoomStatusResult{}, err
	}
	defer scope.End(ctx)

	room, err := unit.Inventory().Room(ctx, cmd.RoomID)
	if err != nil {
		return UpdateRoomStatusResult{}, err
	}
	if err := unit.Reservations().LockRoomType(ctx, room.TypeID); err != nil {
		return UpdateRoomStatusResult{}, err
	}
	if room.Status != status {
		if err := unit.Inventory().SetRoomStatus(ctx, room.ID, status, clock.OrSystem(h.Clock).Now()); err != nil {
			return UpdateRoomStatusResult{}, err
		}
	}
	if err := scope.Commit(ctx); err != nil {
		return UpdateRoomStatusResult{}, err
	}
	return UpdateRoomStatusResult{
		RoomID:     int64(room.ID),
		RoomNumber: room.Number,
		Previous:   string(room.Status),
		Status:     string(status),
	}, nil
}

var _ commands.Handler[UpdateRoomStatusCommand, UpdateRoomStatusResult] = (*UpdateRoomStatusHandler)(nil)
