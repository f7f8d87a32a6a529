package memory

import (
	"errors"
	"sync"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/infra/fixtures"
)

// ErrReadOnly is returned when a read-only unit of work attempts a write or lock.
var ErrReadOnly = errors.New("memory: unit of work is read-only")

// Store holds the committed state shared by every unit of work.
type Store struct {
	mu           sync.RWMutex
	types        map[inventory.RoomTypeID]inventory.RoomType
	rooms        map[inventory.RoomID]inventory.Room
	guests       map[reservations.GuestID]struct{}
	reservations map[reservations.ID]*reservations.Reservation

	locks  *keyedLocks
	outbox *Outbox
}

func NewStore() *Store {
	return &Store{
		types:        make(map[inventory.RoomTypeID]inventory.RoomType),
		rooms:        make(map[inventory.RoomID]inventory.Room),
		guests:       make(map[reservations.GuestID]struct{}),
		reservations: make(map[reservations.ID]*reservations.Reservation),
		locks:        newKeyedLocks(),
		outbox:       NewOutbox(),
	}
}

// Seed loads room types, rooms and guests, replacing entries with equal ids.
func (s *Store) Seed(inv fixtures.Inventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range inv.RoomTypes {
		s.types[rt.ID] = rt
	}
	for _, r := range inv.Rooms {
		s.rooms[r.ID] = r
	}
	for _, g := range inv.GuestIDs {
		s.guests[reservations.GuestID(g)] = struct{}{}
	}
}

// Outbox exposes the committed event log for the relay worker.
func (s *Store) Outbox() *Outbox {
	return s.outbox
}
