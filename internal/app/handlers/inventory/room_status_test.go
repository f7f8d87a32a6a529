package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/uow"
	domaininv "hotelops/internal/domain/inventory"
	"hotelops/internal/infra/fixtures"
	"hotelops/internal/infra/storage/memory"
)

func TestUpdateRoomStatus(t *testing.T) {
	ctx := context.Background()
	inv, err := fixtures.Default().Build("USD")
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	store := memory.NewStore()
	store.Seed(inv)
	factory := memory.Factory{Store: store}
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h := &UpdateRoomStatusHandler{UoWFactory: factory, Clock: clock.NewFixed(at)}

	res, err := h.Handle(ctx, UpdateRoomStatusCommand{RoomID: 1, Status: "Out_Of_Order"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Previous != "available" || res.Status != "out_of_order" || res.RoomNumber != "101" {
		t.Fatalf("unexpected result %+v", res)
	}

	unit, _ := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	defer unit.Rollback(ctx)
	room, _ := unit.Inventory().Room(ctx, 1)
	if room.Status != domaininv.RoomOutOfOrder || !room.UpdatedAt.Equal(at) {
		t.Fatalf("expected committed status change, got %+v", room)
	}

	if _, err := h.Handle(ctx, UpdateRoomStatusCommand{RoomID: 1, Status: "haunted"}); !errors.Is(err, domaininv.ErrInvalidRoomStatus) {
		t.Fatalf("expected ErrInvalidRoomStatus, got %v", err)
	}
	if _, err := h.Handle(ctx, UpdateRoomStatusCommand{RoomID: 999, Status: "available"}); !errors.Is(err, domaininv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
