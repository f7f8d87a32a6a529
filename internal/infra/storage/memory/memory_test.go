package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelops/internal/app/middleware"
	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
	"hotelops/internal/infra/fixtures"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	inv, err := fixtures.Default().Build("USD")
	if err != nil {
		t.Fatalf("build fixtures: %v", err)
	}
	s := NewStore()
	s.Seed(inv)
	return s
}

func sampleReservation(t *testing.T, id string, room inventory.RoomID, in, out string) *reservations.Reservation {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}
	r, err := reservations.NewReservation(reservations.CreateParams{
		ID:         reservations.ID(id),
		Number:     reservations.Number("RES-" + id),
		GuestID:    1,
		RoomID:     &room,
		RoomTypeID: 2,
		Range:      dr,
		Adults:     2,
		Total:      money.Must(38997, "USD"),
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("new reservation: %v", err)
	}
	return r
}

func begin(t *testing.T, s *Store, readOnly bool) uow.UnitOfWork {
	t.Helper()
	unit, err := Factory{Store: s}.Begin(context.Background(), uow.TxOptions{ReadOnly: readOnly})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return unit
}

func TestStagedWritesApplyOnCommit(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	writer := begin(t, s, false)
	r := sampleReservation(t, "a", 4, "2024-07-01", "2024-07-04")
	if err := writer.Reservations().Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := writer.Reservations().ByID(ctx, "a"); err != nil {
		t.Fatalf("expected staged insert visible to its own unit, got %v", err)
	}

	reader := begin(t, s, true)
	if _, err := reader.Reservations().ByID(ctx, "a"); !errors.Is(err, reservations.ErrNotFound) {
		t.Fatalf("expected uncommitted insert to be invisible, got %v", err)
	}
	_ = reader.Rollback(ctx)

	if err := writer.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	reader = begin(t, s, true)
	defer reader.Rollback(ctx)
	got, err := reader.Reservations().ByNumber(ctx, "RES-a")
	if err != nil {
		t.Fatalf("by number: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestRollbackDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	unit := begin(t, s, false)
	if err := unit.Reservations().Insert(ctx, sampleReservation(t, "a", 4, "2024-07-01", "2024-07-04")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := unit.Inventory().SetRoomStatus(ctx, 4, inventory.RoomMaintenance, time.Now()); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "reservation.admitted", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("outbox add: %v", err)
	}
	if err := unit.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	check := begin(t, s, true)
	defer check.Rollback(ctx)
	items, _ := check.Reservations().List(ctx, reservations.ListFilter{})
	if len(items) != 0 {
		t.Fatalf("expected empty ledger, got %d", len(items))
	}
	room, _ := check.Inventory().Room(ctx, 4)
	if room.Status != inventory.RoomAvailable {
		t.Fatalf("expected room status untouched, got %s", room.Status)
	}
	if n := len(s.Outbox().Pending()); n != 0 {
		t.Fatalf("expected no outbox records, got %d", n)
	}
}

func TestUpdateDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	seed := begin(t, s, false)
	_ = seed.Reservations().Insert(ctx, sampleReservation(t, "a", 4, "2024-07-01", "2024-07-04"))
	if err := seed.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	first := begin(t, s, false)
	second := begin(t, s, false)
	r1, _ := first.Reservations().ByID(ctx, "a")
	r2, _ := second.Reservations().ByID(ctx, "a")

	r1.Notes = "late arrival"
	if err := first.Reservations().Update(ctx, r1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := first.Commit(ctx); err != nil {
		t.Fatalf("commit first: %v", err)
	}

	r2.Notes = "early arrival"
	if err := second.Reservations().Update(ctx, r2); err != nil {
		t.Fatalf("staging update: %v", err)
	}
	if err := second.Commit(ctx); !errors.Is(err, uow.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
}

func TestRoomLockBlocksUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	holder := begin(t, s, false)
	if err := holder.Reservations().LockRoom(ctx, 4); err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Reentrant within the same unit.
	if err := holder.Reservations().LockRoom(ctx, 4); err != nil {
		t.Fatalf("relock: %v", err)
	}

	waiter := begin(t, s, false)
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := waiter.Reservations().LockRoom(short, 4); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected lock wait to time out, got %v", err)
	}
	if err := waiter.Reservations().LockRoom(ctx, 5); err != nil {
		t.Fatalf("expected other room to be free, got %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- waiter.Reservations().LockRoom(ctx, 4) }()
	if err := holder.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected lock after release, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("lock was not released on commit")
	}
	_ = waiter.Rollback(ctx)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	unit := begin(t, s, true)
	defer unit.Rollback(ctx)

	if err := unit.Reservations().Insert(ctx, sampleReservation(t, "a", 4, "2024-07-01", "2024-07-04")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := unit.Reservations().LockRoomType(ctx, 2); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly for lock, got %v", err)
	}
}

func TestActiveQueries(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	unit := begin(t, s, false)
	defer unit.Rollback(ctx)
	ledger := unit.Reservations()

	_ = ledger.Insert(ctx, sampleReservation(t, "a", 4, "2024-06-01", "2024-06-05"))
	cancelled := sampleReservation(t, "b", 4, "2024-06-05", "2024-06-08")
	_ = cancelled.TransitionTo(reservations.StatusCancelled, time.Now())
	_ = ledger.Insert(ctx, cancelled)
	_ = ledger.Insert(ctx, sampleReservation(t, "c", 5, "2024-06-03", "2024-06-06"))

	window, _ := daterange.Parse("2024-06-05", "2024-06-07")
	held, _ := ledger.ActiveForRoom(ctx, 4, window)
	if len(held) != 0 {
		t.Fatalf("expected back-to-back and cancelled stays to be ignored, got %d", len(held))
	}
	byType, _ := ledger.ActiveForRoomType(ctx, 2, window)
	if len(byType) != 1 || byType[0].ID != "c" {
		t.Fatalf("expected only c for the type, got %v", byType)
	}
	list, _ := ledger.List(ctx, reservations.ListFilter{Limit: 2})
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected newest check-in first, got %v", list)
	}
}

func TestOutboxClaimCycle(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	box.append(appoutbox.EventRecord{ID: "e1", Name: "reservation.admitted"}, appoutbox.EventRecord{ID: "e2", Name: "reservation.amended"})

	msg, err := box.Claim(ctx, "w1")
	if err != nil || msg == nil || msg.ID != "e1" {
		t.Fatalf("expected e1, got %v %v", msg, err)
	}
	if err := box.MarkFailed(ctx, "e1", time.Now().Add(time.Hour), "broker down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	msg, _ = box.Claim(ctx, "w1")
	if msg == nil || msg.ID != "e2" {
		t.Fatalf("expected e2 while e1 backs off, got %v", msg)
	}
	if err := box.MarkSent(ctx, "e2"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if msg, _ := box.Claim(ctx, "w1"); msg != nil {
		t.Fatalf("expected nothing due, got %v", msg)
	}
	if pending := box.Pending(); len(pending) != 1 || pending[0].Attempts != 1 {
		t.Fatalf("unexpected pending %v", pending)
	}
}

func TestIdempotencyClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	claim := middleware.IdempotencyRecord{Key: "k1", Command: "reservations.admit", OccurredAt: time.Now().UTC()}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, claimed, err := store.Claim(ctx, claim)
			if err != nil || !claimed {
				return
			}
			mu.Lock()
			winner++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if winner != 1 {
		t.Fatalf("expected exactly one claim, got %d", winner)
	}

	existing, claimed, _ := store.Claim(ctx, claim)
	if claimed || !existing.Pending || existing.Command != "reservations.admit" {
		t.Fatalf("expected pending claim to hold the key, got %+v claimed=%v", existing, claimed)
	}

	if err := store.Release(ctx, "k1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, claimed, _ := store.Claim(ctx, claim); !claimed {
		t.Fatalf("expected key free after release")
	}
	if err := store.Save(ctx, middleware.IdempotencyRecord{Key: "k1", Command: "reservations.admit", Payload: []byte(`{}`), OccurredAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = store.Release(ctx, "k1")
	existing, claimed, _ = store.Claim(ctx, claim)
	if claimed || existing.Pending || string(existing.Payload) != `{}` {
		t.Fatalf("expected stored result to survive release, got %+v claimed=%v", existing, claimed)
	}
}

func TestIdempotencyStaleClaimCanBeTaken(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	stale := middleware.IdempotencyRecord{Key: "k1", Command: "reservations.admit", OccurredAt: time.Now().Add(-2 * middleware.IdempotencyClaimTTL)}
	if _, claimed, _ := store.Claim(ctx, stale); !claimed {
		t.Fatalf("first claim should win")
	}
	fresh := middleware.IdempotencyRecord{Key: "k1", Command: "reservations.admit", OccurredAt: time.Now().UTC()}
	if _, claimed, _ := store.Claim(ctx, fresh); !claimed {
		t.Fatalf("expected an expired claim to be taken over")
	}
}
