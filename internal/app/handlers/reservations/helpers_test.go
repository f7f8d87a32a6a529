package reservations

import (
	"context"
	"testing"
	"time"

	"hotelops/internal/app/clock"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/infra/fixtures"
	"hotelops/internal/infra/storage/memory"
)

var today = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type harness struct {
	store *memory.Store
	admit *AdmitReservationHandler
	amend *AmendReservationHandler
	del   *DeleteReservationHandler
	get   *GetReservationHandler
	list  *ListReservationsHandler
}

// newHarness seeds a small hotel: rooms 101 and 102 are Standard Double
// (type 2, 129.99, two guests) and 201 is a Deluxe Suite (type 3).
func newHarness(t *testing.T) *harness {
	t.Helper()
	inv, err := fixtures.Hotel{
		RoomTypes: []fixtures.RoomType{
			{ID: 2, Name: "Standard Double", BasePrice: "129.99", MaxOccupancy: 2},
			{ID: 3, Name: "Deluxe Suite", BasePrice: "249.99", MaxOccupancy: 4},
		},
		Rooms: []fixtures.Room{
			{ID: 1, Number: "101", RoomTypeID: 2, Floor: "1"},
			{ID: 2, Number: "102", RoomTypeID: 2, Floor: "1"},
			{ID: 3, Number: "201", RoomTypeID: 3, Floor: "2"},
		},
		Guests: []fixtures.Guest{{ID: 1}, {ID: 2}},
	}.Build("USD")
	if err != nil {
		t.Fatalf("build fixtures: %v", err)
	}
	store := memory.NewStore()
	store.Seed(inv)
	factory := memory.Factory{Store: store}
	clk := clock.NewFixed(today)
	return &harness{
		store: store,
		admit: &AdmitReservationHandler{UoWFactory: factory, Clock: clk},
		amend: &AmendReservationHandler{UoWFactory: factory, Clock: clk},
		del:   &DeleteReservationHandler{UoWFactory: factory, Clock: clk},
		get:   &GetReservationHandler{UoWFactory: factory},
		list:  &ListReservationsHandler{UoWFactory: factory},
	}
}

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func room(id inventory.RoomID) *inventory.RoomID { return &id }

func (h *harness) admitRoom(t *testing.T, roomID inventory.RoomID, in, out string) (AdmitReservationCommand, error) {
	t.Helper()
	cmd := AdmitReservationCommand{
		GuestID:    1,
		RoomTypeID: 2,
		RoomID:     room(roomID),
		CheckIn:    date(t, in),
		CheckOut:   date(t, out),
		Adults:     2,
	}
	_, err := h.admit.Handle(context.Background(), cmd)
	return cmd, err
}

func ptrDate(t *testing.T, raw string) *time.Time {
	t.Helper()
	d := date(t, raw)
	return &d
}

func inventoryTypeID(id int64) inventory.RoomTypeID { return inventory.RoomTypeID(id) }
