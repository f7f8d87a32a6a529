package reservations

import (
	"context"
	"fmt"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	domainres "hotelops/internal/domain/reservations"
)

// enforceSchedule takes the room type and room guards, then re-reads the
// ledger and rejects r if it would double-book its room or oversell its type.
// The caller must write r inside the same unit of work.
func enforceSchedule(ctx context.Context, unit uow.UnitOfWork, r *domainres.Reservation) error {
	ledger := unit.Reservations()
	if err := ledger.LockRoomType(ctx, r.RoomTypeID); err != nil {
		return err
	}
	if r.RoomID != nil {
		if err := ledger.LockRoom(ctx, *r.RoomID); err != nil {
			return err
		}
	}
	if !r.Active() {
		return nil
	}

	if r.RoomID != nil {
		held, err := ledger.ActiveForRoom(ctx, *r.RoomID, r.Range)
		if err != nil {
			return err
		}
		for _, other := range held {
			if r.ConflictsWith(other) {
				return fmt.Errorf("%w: room already held by %s for %s", domainres.ErrScheduleConflict, other.Number, other.Range)
			}
		}
	}

	rooms, err := unit.Inventory().Rooms(ctx, inventory.RoomFilter{TypeID: &r.RoomTypeID})
	if err != nil {
		return err
	}
	held, err := ledger.ActiveForRoomType(ctx, r.RoomTypeID, r.Range)
	if err != nil {
		return err
	}
	if !domainres.HasTypeCapacity(held, r.Range, r.ID, inventory.CountSellable(rooms)) {
		return fmt.Errorf("%w: room type fully booked for %s", domainres.ErrScheduleConflict, r.Range)
	}
	return nil
}

func ensureGuest(ctx context.Context, unit uow.UnitOfWork, id domainres.GuestID) error {
	ok, err := unit.Guests().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: guest %d", domainres.ErrNotFound, id)
	}
	return nil
}

// resolveRoom loads the assigned room and checks it belongs to the type.
func resolveRoom(ctx context.Context, unit uow.UnitOfWork, id inventory.RoomID, typeID inventory.RoomTypeID) (inventory.Room, error) {
	room, err := unit.Inventory().Room(ctx, id)
	if err != nil {
		return inventory.Room{}, err
	}
	if room.TypeID != typeID {
		return inventory.Room{}, fmt.Errorf("%w: room %s is not of type %d", domainres.ErrRoomTypeMismatch, room.Number, typeID)
	}
	return room, nil
}
