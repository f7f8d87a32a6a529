package availability

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
	"hotelops/internal/infra/fixtures"
	"hotelops/internal/infra/storage/memory"
)

func seed(t *testing.T) uow.UoWFactory {
	t.Helper()
	inv, err := fixtures.Hotel{
		RoomTypes: []fixtures.RoomType{
			{ID: 1, Name: "Standard Single", BasePrice: "89.99", MaxOccupancy: 1},
			{ID: 2, Name: "Standard Double", BasePrice: "129.99", MaxOccupancy: 2},
			{ID: 3, Name: "Deluxe Suite", BasePrice: "249.99", MaxOccupancy: 4},
		},
		Rooms: []fixtures.Room{
			{ID: 1, Number: "101", RoomTypeID: 2, Floor: "1"},
			{ID: 2, Number: "99", RoomTypeID: 2, Floor: "0"},
			{ID: 3, Number: "201", RoomTypeID: 3, Floor: "2"},
			{ID: 4, Number: "202", RoomTypeID: 3, Floor: "2", Status: "maintenance"},
			{ID: 5, Number: "102", RoomTypeID: 1, Floor: "1"},
		},
		Guests: []fixtures.Guest{{ID: 1}},
	}.Build("USD")
	if err != nil {
		t.Fatalf("build fixtures: %v", err)
	}
	store := memory.NewStore()
	store.Seed(inv)
	return memory.Factory{Store: store}
}

func book(t *testing.T, factory uow.UoWFactory, id string, roomID *inventory.RoomID, typeID inventory.RoomTypeID, in, out string, status reservations.Status) {
	t.Helper()
	ctx := context.Background()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r, err := reservations.NewReservation(reservations.CreateParams{
		ID: reservations.ID(id), Number: reservations.Number("RES-" + id), GuestID: 1,
		RoomID: roomID, RoomTypeID: typeID, Range: dr, Adults: 1, Status: status,
		Total: money.Must(0, "USD"), CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("new reservation: %v", err)
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := unit.Reservations().Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func roomID(id inventory.RoomID) *inventory.RoomID { return &id }

func find(t *testing.T, h *FindAvailableHandler, in, out string, party int, typeID *inventory.RoomTypeID) []string {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := h.Handle(context.Background(), FindAvailableQuery{CheckIn: dr.CheckIn, CheckOut: dr.CheckOut, PartySize: party, RoomTypeID: typeID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	rooms := make([]string, 0, len(got.Items))
	for _, item := range got.Items {
		rooms = append(rooms, item.RoomNumber)
	}
	return rooms
}

func TestFindAvailableFiltersAndOrders(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}

	if got := find(t, h, "2024-06-01", "2024-06-03", 1, nil); !reflect.DeepEqual(got, []string{"99", "101", "102", "201"}) {
		t.Fatalf("unexpected rooms %v", got)
	}
	if got := find(t, h, "2024-06-01", "2024-06-03", 2, nil); !reflect.DeepEqual(got, []string{"99", "101", "201"}) {
		t.Fatalf("expected single room to drop for a party of two, got %v", got)
	}
	suite := inventory.RoomTypeID(3)
	if got := find(t, h, "2024-06-01", "2024-06-03", 3, &suite); !reflect.DeepEqual(got, []string{"201"}) {
		t.Fatalf("expected only the available suite, got %v", got)
	}
}

func TestFindAvailableDisjointStays(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}
	double := inventory.RoomTypeID(2)

	book(t, factory, "a", roomID(1), 2, "2024-06-01", "2024-06-05", reservations.StatusConfirmed)
	book(t, factory, "b", roomID(1), 2, "2024-06-05", "2024-06-10", reservations.StatusCheckedIn)

	if got := find(t, h, "2024-06-02", "2024-06-04", 1, &double); !reflect.DeepEqual(got, []string{"99"}) {
		t.Fatalf("expected 101 hidden during stay a, got %v", got)
	}
	if got := find(t, h, "2024-06-06", "2024-06-08", 1, &double); !reflect.DeepEqual(got, []string{"99"}) {
		t.Fatalf("expected 101 hidden during stay b, got %v", got)
	}
	if got := find(t, h, "2024-06-10", "2024-06-12", 1, &double); !reflect.DeepEqual(got, []string{"99", "101"}) {
		t.Fatalf("expected 101 free from the last check-out, got %v", got)
	}
	if got := find(t, h, "2024-05-28", "2024-06-01", 1, &double); !reflect.DeepEqual(got, []string{"99", "101"}) {
		t.Fatalf("expected 101 free up to the first check-in, got %v", got)
	}
}

func TestFindAvailableIgnoresInactiveAndHidesFullTypes(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}
	double := inventory.RoomTypeID(2)

	book(t, factory, "p", roomID(1), 2, "2024-06-01", "2024-06-05", reservations.StatusPending)
	if got := find(t, h, "2024-06-02", "2024-06-03", 1, &double); !reflect.DeepEqual(got, []string{"99", "101"}) {
		t.Fatalf("pending stays should not hold rooms, got %v", got)
	}

	book(t, factory, "u1", nil, 2, "2024-06-02", "2024-06-04", reservations.StatusConfirmed)
	book(t, factory, "u2", nil, 2, "2024-06-03", "2024-06-04", reservations.StatusConfirmed)
	if got := find(t, h, "2024-06-03", "2024-06-05", 1, &double); len(got) != 0 {
		t.Fatalf("expected fully committed type to be hidden, got %v", got)
	}
	if got := find(t, h, "2024-06-04", "2024-06-05", 1, &double); !reflect.DeepEqual(got, []string{"99", "101"}) {
		t.Fatalf("expected rooms back once unassigned stays end, got %v", got)
	}
}

func TestFindAvailableIsIdempotent(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}
	book(t, factory, "a", roomID(3), 3, "2024-06-01", "2024-06-05", reservations.StatusConfirmed)

	first := find(t, h, "2024-06-01", "2024-06-10", 1, nil)
	second := find(t, h, "2024-06-01", "2024-06-10", 1, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical answers, got %v and %v", first, second)
	}
}

func TestFindAvailableSeesStatusChanges(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}
	ctx := context.Background()

	unit, _ := factory.Begin(ctx, uow.TxOptions{})
	if err := unit.Inventory().SetRoomStatus(ctx, 1, inventory.RoomOutOfOrder, time.Now()); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := find(t, h, "2024-06-01", "2024-06-02", 1, nil); !reflect.DeepEqual(got, []string{"99", "102", "201"}) {
		t.Fatalf("expected out of order room to disappear, got %v", got)
	}
}

func TestFindAvailableRejectsBadInput(t *testing.T) {
	factory := seed(t)
	h := &FindAvailableHandler{UoWFactory: factory}
	ctx := context.Background()
	in := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	if _, err := h.Handle(ctx, FindAvailableQuery{CheckIn: in, CheckOut: in, PartySize: 1}); !errors.Is(err, daterange.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := h.Handle(ctx, FindAvailableQuery{CheckIn: in, CheckOut: in.AddDate(0, 0, 1), PartySize: 0}); !errors.Is(err, reservations.ErrInvalidOccupancy) {
		t.Fatalf("expected ErrInvalidOccupancy, got %v", err)
	}
	missing := inventory.RoomTypeID(42)
	if _, err := h.Handle(ctx, FindAvailableQuery{CheckIn: in, CheckOut: in.AddDate(0, 0, 1), PartySize: 1, RoomTypeID: &missing}); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomCalendar(t *testing.T) {
	factory := seed(t)
	book(t, factory, "a", roomID(1), 2, "2024-06-01", "2024-06-05", reservations.StatusConfirmed)
	book(t, factory, "b", roomID(1), 2, "2024-06-08", "2024-06-12", reservations.StatusConfirmed)
	book(t, factory, "c", roomID(1), 2, "2024-06-05", "2024-06-07", reservations.StatusCancelled)

	h := &GetRoomCalendarHandler{UoWFactory: factory}
	cal, err := h.Handle(context.Background(), GetRoomCalendarQuery{
		RoomID: 1,
		From:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(cal.Blocks) != 2 || cal.Blocks[0].ReservationNumber != "RES-a" {
		t.Fatalf("unexpected blocks %+v", cal.Blocks)
	}
	// 7 nights in the window, 2 held by a and 2 by b.
	if cal.FreeNights != 3 {
		t.Fatalf("expected 3 free nights, got %d", cal.FreeNights)
	}
	if _, err := h.Handle(context.Background(), GetRoomCalendarQuery{
		RoomID: 77,
		From:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	}); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
