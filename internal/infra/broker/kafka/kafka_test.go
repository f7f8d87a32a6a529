package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"hotelops/internal/app/commands"
	inventoryapp "hotelops/internal/app/handlers/inventory"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/infra/inbox"
)

func TestProducerPublish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(sp)
	defer p.Close()

	ctx := context.Background()
	if err := p.Publish(ctx, "reservation.events.v1", "r-1", []byte(`{"id":"1"}`), map[string]string{"content-type": "application/json"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(ctx, "reservation.events.v1", "r-1", []byte(`{}`), nil); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := p.Publish(cancelled, "t", "k", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

type statusRecorder struct {
	calls []inventoryapp.UpdateRoomStatusCommand
	err   error
}

func (r *statusRecorder) bus() commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[inventoryapp.UpdateRoomStatusCommand, inventoryapp.UpdateRoomStatusResult](bus, inventoryapp.UpdateRoomStatusCommand{}.Key(),
		commands.HandlerFunc[inventoryapp.UpdateRoomStatusCommand, inventoryapp.UpdateRoomStatusResult](
			func(_ context.Context, cmd inventoryapp.UpdateRoomStatusCommand) (inventoryapp.UpdateRoomStatusResult, error) {
				r.calls = append(r.calls, cmd)
				if r.err != nil {
					return inventoryapp.UpdateRoomStatusResult{}, r.err
				}
				return inventoryapp.UpdateRoomStatusResult{RoomID: int64(cmd.RoomID), Status: string(cmd.Status)}, nil
			}))
	return bus
}

func message(offset int64, body string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "housekeeping.events.v1", Offset: offset, Value: []byte(body)}
}

func TestHousekeepingHandlerDeduplicates(t *testing.T) {
	rec := &statusRecorder{}
	h := &HousekeepingHandler{Bus: rec.bus(), Inbox: inbox.NewMemory()}
	ctx := context.Background()

	body := `{"event_id":"hk-1","room_id":101,"status":"cleaning"}`
	if err := h.Handle(ctx, message(1, body)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := h.Handle(ctx, message(2, body)); err != nil {
		t.Fatalf("handle duplicate: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(rec.calls))
	}
	if rec.calls[0].RoomID != 101 || rec.calls[0].Status != inventory.RoomStatus("cleaning") {
		t.Fatalf("unexpected command %+v", rec.calls[0])
	}
}

func TestHousekeepingHandlerSkipsBadEvents(t *testing.T) {
	rec := &statusRecorder{err: inventory.ErrRoomNotFound}
	h := &HousekeepingHandler{Bus: rec.bus(), Inbox: inbox.NewMemory()}
	ctx := context.Background()

	if err := h.Handle(ctx, message(1, `not json`)); err != nil {
		t.Fatalf("expected malformed event to be skipped, got %v", err)
	}
	if err := h.Handle(ctx, message(2, `{"room_id":999,"status":"cleaning"}`)); err != nil {
		t.Fatalf("expected unknown room to be skipped, got %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(rec.calls))
	}
}

func TestHousekeepingHandlerRetriesTransientFailures(t *testing.T) {
	rec := &statusRecorder{err: uow.ErrConcurrentUpdate}
	h := &HousekeepingHandler{Bus: rec.bus(), Inbox: inbox.NewMemory()}
	ctx := context.Background()
	body := `{"event_id":"hk-2","room_id":101,"status":"maintenance"}`

	if err := h.Handle(ctx, message(1, body)); !errors.Is(err, uow.ErrConcurrentUpdate) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	rec.err = nil
	if err := h.Handle(ctx, message(1, body)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected redelivery to dispatch again, got %d calls", len(rec.calls))
	}
}
