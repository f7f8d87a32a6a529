package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotelops/internal/domain/inventory"
)

type unitInventory struct{ u *Unit }

func (v unitInventory) room(r inventory.Room) inventory.Room {
	if ch, ok := v.u.statuses[r.ID]; ok {
		r.Status = ch.status
		r.UpdatedAt = ch.at
	}
	return r
}

func (v unitInventory) Rooms(ctx context.Context, filter inventory.RoomFilter) ([]inventory.Room, error) {
	s := v.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		r = v.room(r)
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	inventory.SortByNumber(out)
	return out, nil
}

func (v unitInventory) Room(ctx context.Context, id inventory.RoomID) (inventory.Room, error) {
	s := v.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return inventory.Room{}, fmt.Errorf("%w: %d", inventory.ErrRoomNotFound, id)
	}
	return v.room(r), nil
}

func (v unitInventory) RoomType(ctx context.Context, id inventory.RoomTypeID) (inventory.RoomType, error) {
	s := v.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.types[id]
	if !ok {
		return inventory.RoomType{}, fmt.Errorf("%w: %d", inventory.ErrRoomTypeNotFound, id)
	}
	return rt, nil
}

func (v unitInventory) RoomTypes(ctx context.Context) ([]inventory.RoomType, error) {
	s := v.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.RoomType, 0, len(s.types))
	for _, rt := range s.types {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v unitInventory) SetRoomStatus(ctx context.Context, id inventory.RoomID, status inventory.RoomStatus, at time.Time) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	if _, err := v.Room(ctx, id); err != nil {
		return err
	}
	v.u.statuses[id] = statusChange{status: status, at: at.UTC()}
	return nil
}
