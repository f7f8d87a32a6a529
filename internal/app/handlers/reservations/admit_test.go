package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hotelops/internal/domain/inventory"
	domainres "hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

func TestAdmitEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.admit.Handle(ctx, AdmitReservationCommand{
		GuestID:    1,
		RoomTypeID: 2,
		RoomID:     room(1),
		CheckIn:    date(t, "2024-07-01"),
		CheckOut:   date(t, "2024-07-04"),
		Adults:     2,
	})
	if err != nil {
		t.Fatalf("expected admission, got %v", err)
	}
	if res.TotalAmount.Amount != "389.97" || res.TotalAmount.Minor != 38997 {
		t.Fatalf("expected total 389.97, got %+v", res.TotalAmount)
	}
	if res.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %s", res.Status)
	}
	if len(res.ReservationNumber) != len("RES-")+12 {
		t.Fatalf("unexpected reservation number %q", res.ReservationNumber)
	}

	_, err = h.admitRoom(t, 1, "2024-07-03", "2024-07-06")
	if !errors.Is(err, domainres.ErrScheduleConflict) {
		t.Fatalf("expected ErrScheduleConflict, got %v", err)
	}

	if n := len(h.store.Outbox().Pending()); n != 1 {
		t.Fatalf("expected one outbox record for the admitted stay, got %d", n)
	}
}

func TestAdmitBackToBack(t *testing.T) {
	h := newHarness(t)
	if _, err := h.admitRoom(t, 1, "2024-06-01", "2024-06-05"); err != nil {
		t.Fatalf("first stay: %v", err)
	}
	if _, err := h.admitRoom(t, 1, "2024-06-05", "2024-06-10"); err != nil {
		t.Fatalf("back-to-back stay should not conflict: %v", err)
	}
}

func TestAdmitRejections(t *testing.T) {
	base := AdmitReservationCommand{
		GuestID:    1,
		RoomTypeID: 2,
		RoomID:     room(1),
		Adults:     2,
	}
	cases := []struct {
		name   string
		mutate func(t *testing.T, c *AdmitReservationCommand)
		want   error
	}{
		{"capacity", func(t *testing.T, c *AdmitReservationCommand) { c.Children = 1 }, domainres.ErrCapacityExceeded},
		{"zero adults", func(t *testing.T, c *AdmitReservationCommand) { c.Adults = 0 }, domainres.ErrInvalidOccupancy},
		{"negative children", func(t *testing.T, c *AdmitReservationCommand) { c.Children = -1 }, domainres.ErrInvalidOccupancy},
		{"inverted dates", func(t *testing.T, c *AdmitReservationCommand) {
			c.CheckIn, c.CheckOut = date(t, "2024-07-04"), date(t, "2024-07-01")
		}, daterange.ErrInvalidRange},
		{"same day", func(t *testing.T, c *AdmitReservationCommand) { c.CheckOut = c.CheckIn }, daterange.ErrInvalidRange},
		{"past check-in", func(t *testing.T, c *AdmitReservationCommand) {
			c.CheckIn, c.CheckOut = date(t, "2024-05-30"), date(t, "2024-06-02")
		}, domainres.ErrCheckInInPast},
		{"unknown guest", func(t *testing.T, c *AdmitReservationCommand) { c.GuestID = 99 }, domainres.ErrNotFound},
		{"unknown type", func(t *testing.T, c *AdmitReservationCommand) { c.RoomTypeID = 99; c.RoomID = nil }, inventory.ErrNotFound},
		{"unknown room", func(t *testing.T, c *AdmitReservationCommand) { c.RoomID = room(99) }, inventory.ErrNotFound},
		{"room of other type", func(t *testing.T, c *AdmitReservationCommand) { c.RoomID = room(3) }, domainres.ErrRoomTypeMismatch},
		{"terminal status", func(t *testing.T, c *AdmitReservationCommand) { c.Status = domainres.StatusCancelled }, domainres.ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			cmd := base
			cmd.CheckIn, cmd.CheckOut = date(t, "2024-07-01"), date(t, "2024-07-04")
			tc.mutate(t, &cmd)
			if _, err := h.admit.Handle(context.Background(), cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			list, err := h.list.Handle(context.Background(), ListReservationsQuery{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list.Items) != 0 {
				t.Fatalf("rejected admission left %d reservations behind", len(list.Items))
			}
		})
	}
}

func TestConcurrentAdmitExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	const callers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := []string{"2024-07-01", "2024-07-02", "2024-07-03"}[i%3]
			_, err := h.admit.Handle(context.Background(), AdmitReservationCommand{
				GuestID:    1,
				RoomTypeID: 2,
				RoomID:     room(1),
				CheckIn:    date(t, in),
				CheckOut:   date(t, "2024-07-05"),
				Adults:     1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainres.ErrScheduleConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if successes != 1 || conflicts != callers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", callers-1, successes, conflicts)
	}
}

func TestAdmitEnforcesTypeCapacity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	unassigned := AdmitReservationCommand{
		GuestID:    2,
		RoomTypeID: 2,
		CheckIn:    date(t, "2024-08-01"),
		CheckOut:   date(t, "2024-08-03"),
		Adults:     1,
	}
	for i := 0; i < 2; i++ {
		if _, err := h.admit.Handle(ctx, unassigned); err != nil {
			t.Fatalf("unassigned stay %d: %v", i, err)
		}
	}
	if _, err := h.admit.Handle(ctx, unassigned); !errors.Is(err, domainres.ErrScheduleConflict) {
		t.Fatalf("expected type oversell to be rejected, got %v", err)
	}
	if _, err := h.admitRoom(t, 2, "2024-08-02", "2024-08-04"); !errors.Is(err, domainres.ErrScheduleConflict) {
		t.Fatalf("expected assigned stay to be rejected while type is full, got %v", err)
	}
	if _, err := h.admitRoom(t, 2, "2024-08-03", "2024-08-04"); err != nil {
		t.Fatalf("expected stay after the busy nights to fit, got %v", err)
	}

	pending := unassigned
	pending.Status = domainres.StatusPending
	if _, err := h.admit.Handle(ctx, pending); err != nil {
		t.Fatalf("pending stays hold nothing and should be admitted: %v", err)
	}
}
