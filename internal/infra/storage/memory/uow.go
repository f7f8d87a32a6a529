package memory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
)

// Factory opens units of work over a shared Store.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, fmt.Errorf("memory: unit of work factory missing store")
	}
	return &Unit{
		store:    f.Store,
		readOnly: opts.ReadOnly,
		heldSet:  make(map[string]bool),
		writes:   make(map[reservations.ID]*reservations.Reservation),
		expected: make(map[reservations.ID]int64),
		statuses: make(map[inventory.RoomID]statusChange),
	}, nil
}

type statusChange struct {
	status inventory.RoomStatus
	at     time.Time
}

// insertedHere marks a reservation with no committed version to check against.
const insertedHere int64 = -1

// Unit stages every write and applies it to the Store on Commit. Room and
// room type guards stay held until the unit ends.
type Unit struct {
	store    *Store
	readOnly bool
	done     bool

	held    []string
	heldSet map[string]bool

	writes   map[reservations.ID]*reservations.Reservation // nil value stages a delete
	expected map[reservations.ID]int64
	statuses map[inventory.RoomID]statusChange
	events   []appoutbox.EventRecord
}

func (u *Unit) Inventory() inventory.View         { return unitInventory{u: u} }
func (u *Unit) Reservations() reservations.Ledger { return unitLedger{u: u} }
func (u *Unit) Guests() uow.GuestDirectory        { return unitGuests{u: u} }
func (u *Unit) Outbox() appoutbox.Outbox          { return unitOutbox{u: u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	defer u.end()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, want := range u.expected {
		cur, exists := s.reservations[id]
		switch {
		case want == insertedHere && exists:
			return fmt.Errorf("%w: reservation %s already exists", uow.ErrConcurrentUpdate, id)
		case want != insertedHere && (!exists || cur.Version != want):
			return fmt.Errorf("%w: reservation %s changed", uow.ErrConcurrentUpdate, id)
		}
	}
	for id, r := range u.writes {
		if r == nil {
			continue
		}
		for otherID, other := range s.reservations {
			if otherID != id && other.Number == r.Number {
				return fmt.Errorf("memory: duplicate reservation number %s", r.Number)
			}
		}
	}

	for id, r := range u.writes {
		if r == nil {
			delete(s.reservations, id)
			continue
		}
		s.reservations[id] = r
	}
	for id, ch := range u.statuses {
		if room, ok := s.rooms[id]; ok {
			room.Status = ch.status
			room.UpdatedAt = ch.at
			s.rooms[id] = room
		}
	}
	s.outbox.append(u.events...)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.end()
	return nil
}

func (u *Unit) end() {
	u.done = true
	for i := len(u.held) - 1; i >= 0; i-- {
		u.store.locks.Unlock(u.held[i])
	}
	u.held = nil
	u.writes = nil
	u.expected = nil
	u.statuses = nil
	u.events = nil
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnly
	}
	if u.done {
		return fmt.Errorf("memory: unit of work already finished")
	}
	return nil
}

// lock is reentrant within the unit.
func (u *Unit) lock(ctx context.Context, key string) error {
	if err := u.writable(); err != nil {
		return err
	}
	if u.heldSet[key] {
		return nil
	}
	if err := u.store.locks.Lock(ctx, key); err != nil {
		return err
	}
	u.heldSet[key] = true
	u.held = append(u.held, key)
	return nil
}

type unitGuests struct{ u *Unit }

func (g unitGuests) Exists(ctx context.Context, id reservations.GuestID) (bool, error) {
	g.u.store.mu.RLock()
	defer g.u.store.mu.RUnlock()
	_, ok := g.u.store.guests[id]
	return ok, nil
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.events = append(o.u.events, record)
	return nil
}

func roomKey(id inventory.RoomID) string { return "room:" + strconv.FormatInt(int64(id), 10) }

func typeKey(id inventory.RoomTypeID) string { return "type:" + strconv.FormatInt(int64(id), 10) }
