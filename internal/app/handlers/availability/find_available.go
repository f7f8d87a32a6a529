package availability

import (
	"context"
	"sort"
	"time"

	"hotelops/internal/app/dto"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const findAvailableKey = "availability.find"

type FindAvailableQuery struct {
	CheckIn    time.Time
	CheckOut   time.Time
	PartySize  int
	RoomTypeID *inventory.RoomTypeID
}

func (q FindAvailableQuery) Key() string { return findAvailableKey }

// FindAvailableHandler lists the rooms that can be sold for a stay. The answer
// is a point-in-time read; admission re-checks everything under lock.
type FindAvailableHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *FindAvailableHandler) Handle(ctx context.Context, q FindAvailableQuery) (dto.AvailableRoomCollection, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.AvailableRoomCollection{}, err
	}
	if q.PartySize < 1 {
		return dto.AvailableRoomCollection{}, reservations.ErrInvalidOccupancy
	}

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.AvailableRoomCollection{}, err
	}
	defer scope.End(ctx)

	rooms, err := FindAvailable(ctx, unit, dr, q.PartySize, q.RoomTypeID)
	if err != nil {
		return dto.AvailableRoomCollection{}, err
	}
	out := dto.AvailableRoomCollection{
		CheckIn:  dr.CheckIn.Format(daterange.DateLayout),
		CheckOut: dr.CheckOut.Format(daterange.DateLayout),
		Nights:   dr.Nights(),
		Items:    make([]dto.AvailableRoom, 0, len(rooms)),
	}
	for _, c := range rooms {
		out.Items = append(out.Items, dto.MapAvailableRoom(c.Room, c.Type))
	}
	return out, nil
}

// Candidate is a free room together with its type.
type Candidate struct {
	Room inventory.Room
	Type inventory.RoomType
}

// FindAvailable runs the resolver against an open unit of work.
func FindAvailable(ctx context.Context, unit uow.UnitOfWork, dr daterange.DateRange, partySize int, typeID *inventory.RoomTypeID) ([]Candidate, error) {
	inv := unit.Inventory()
	ledger := unit.Reservations()

	if typeID != nil {
		if _, err := inv.RoomType(ctx, *typeID); err != nil {
			return nil, err
		}
	}
	rooms, err := inv.Rooms(ctx, inventory.RoomFilter{
		TypeID:   typeID,
		Statuses: []inventory.RoomStatus{inventory.RoomAvailable},
	})
	if err != nil {
		return nil, err
	}

	types := make(map[inventory.RoomTypeID]inventory.RoomType)
	soldOut := make(map[inventory.RoomTypeID]bool)
	out := make([]Candidate, 0, len(rooms))
	for _, room := range rooms {
		rt, seen := types[room.TypeID]
		if !seen {
			rt, err = inv.RoomType(ctx, room.TypeID)
			if err != nil {
				return nil, err
			}
			types[room.TypeID] = rt
			full, err := typeFull(ctx, inv, ledger, room.TypeID, dr)
			if err != nil {
				return nil, err
			}
			soldOut[room.TypeID] = full
		}
		if !rt.Fits(partySize) || soldOut[room.TypeID] {
			continue
		}
		busy, err := roomBusy(ctx, ledger, room.ID, dr)
		if err != nil {
			return nil, err
		}
		if busy {
			continue
		}
		out = append(out, Candidate{Room: room, Type: rt})
	}
	sortCandidates(out)
	return out, nil
}

func roomBusy(ctx context.Context, ledger reservations.Ledger, roomID inventory.RoomID, dr daterange.DateRange) (bool, error) {
	held, err := ledger.ActiveForRoom(ctx, roomID, dr)
	if err != nil {
		return false, err
	}
	for _, r := range held {
		if r.Active() && r.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

// typeFull reports whether every sellable room of the type is already spoken
// for on some night of dr, counting reservations without a room.
func typeFull(ctx context.Context, inv inventory.View, ledger reservations.Ledger, typeID inventory.RoomTypeID, dr daterange.DateRange) (bool, error) {
	all, err := inv.Rooms(ctx, inventory.RoomFilter{TypeID: &typeID})
	if err != nil {
		return false, err
	}
	held, err := ledger.ActiveForRoomType(ctx, typeID, dr)
	if err != nil {
		return false, err
	}
	return !reservations.HasTypeCapacity(held, dr, "", inventory.CountSellable(all)), nil
}

func sortCandidates(items []Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return inventory.LessNumber(items[i].Room.Number, items[j].Room.Number)
	})
}

var _ queries.Handler[FindAvailableQuery, dto.AvailableRoomCollection] = (*FindAvailableHandler)(nil)
