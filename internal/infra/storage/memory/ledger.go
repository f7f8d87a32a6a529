package memory

import (
	"context"
	"fmt"
	"sort"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

type unitLedger struct{ u *Unit }

// lookup returns the reservation as this unit sees it: staged writes first,
// then committed state. The result is never shared with the store.
func (l unitLedger) lookup(id reservations.ID) (*reservations.Reservation, bool) {
	if w, staged := l.u.writes[id]; staged {
		if w == nil {
			return nil, false
		}
		return w.Clone(), true
	}
	s := l.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// visible lists every reservation the unit can see that satisfies keep.
func (l unitLedger) visible(keep func(*reservations.Reservation) bool) []*reservations.Reservation {
	s := l.u.store
	s.mu.RLock()
	out := make([]*reservations.Reservation, 0)
	for id, r := range s.reservations {
		if _, staged := l.u.writes[id]; staged {
			continue
		}
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	for _, w := range l.u.writes {
		if w != nil && keep(w) {
			out = append(out, w.Clone())
		}
	}
	return out
}

func (l unitLedger) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	r, ok := l.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, id)
	}
	return r, nil
}

func (l unitLedger) ByNumber(ctx context.Context, number reservations.Number) (*reservations.Reservation, error) {
	found := l.visible(func(r *reservations.Reservation) bool { return r.Number == number })
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, number)
	}
	return found[0], nil
}

func (l unitLedger) List(ctx context.Context, filter reservations.ListFilter) ([]*reservations.Reservation, error) {
	out := l.visible(filter.Matches)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].Range.CheckIn.After(out[j].Range.CheckIn)
		}
		return out[i].Number < out[j].Number
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (l unitLedger) ActiveForRoom(ctx context.Context, roomID inventory.RoomID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	return l.visible(func(r *reservations.Reservation) bool {
		return r.Active() && r.RoomID != nil && *r.RoomID == roomID && r.Range.Overlaps(within)
	}), nil
}

func (l unitLedger) ActiveForRoomType(ctx context.Context, typeID inventory.RoomTypeID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	return l.visible(func(r *reservations.Reservation) bool {
		return r.Active() && r.RoomTypeID == typeID && r.Range.Overlaps(within)
	}), nil
}

func (l unitLedger) Insert(ctx context.Context, r *reservations.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	if _, exists := l.lookup(r.ID); exists {
		return fmt.Errorf("%w: reservation %s already exists", uow.ErrConcurrentUpdate, r.ID)
	}
	r.Version = 1
	l.u.writes[r.ID] = r.Clone()
	if _, seen := l.u.expected[r.ID]; !seen {
		l.u.expected[r.ID] = insertedHere
	}
	return nil
}

func (l unitLedger) Update(ctx context.Context, r *reservations.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	cur, ok := l.lookup(r.ID)
	if !ok {
		return fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, r.ID)
	}
	if cur.Version != r.Version {
		return fmt.Errorf("%w: reservation %s is at version %d", uow.ErrConcurrentUpdate, r.ID, cur.Version)
	}
	if _, seen := l.u.expected[r.ID]; !seen {
		l.u.expected[r.ID] = cur.Version
	}
	r.Version++
	l.u.writes[r.ID] = r.Clone()
	return nil
}

func (l unitLedger) Delete(ctx context.Context, id reservations.ID) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	cur, ok := l.lookup(id)
	if !ok {
		return fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, id)
	}
	if want, seen := l.u.expected[id]; seen && want == insertedHere {
		delete(l.u.writes, id)
		delete(l.u.expected, id)
		return nil
	}
	if _, seen := l.u.expected[id]; !seen {
		l.u.expected[id] = cur.Version
	}
	l.u.writes[id] = nil
	return nil
}

func (l unitLedger) LockRoom(ctx context.Context, roomID inventory.RoomID) error {
	return l.u.lock(ctx, roomKey(roomID))
}

func (l unitLedger) LockRoomType(ctx context.Context, typeID inventory.RoomTypeID) error {
	return l.u.lock(ctx, typeKey(typeID))
}
