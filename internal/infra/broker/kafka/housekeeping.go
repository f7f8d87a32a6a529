package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"hotelops/internal/app/commands"
	inventoryapp "hotelops/internal/app/handlers/inventory"
	"hotelops/internal/app/middleware"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/infra/inbox"
)

// HousekeepingEvent is what the housekeeping system publishes when a room
// changes state.
type HousekeepingEvent struct {
	EventID string `json:"event_id"`
	RoomID  int64  `json:"room_id"`
	Status  string `json:"status"`
}

// HousekeepingHandler turns housekeeping events into room status commands.
// Malformed or rejected events are logged and skipped; anything else is
// returned so the delivery is retried.
type HousekeepingHandler struct {
	Bus    commands.Bus
	Inbox  inbox.Inbox
	Logger *slog.Logger
}

func (h *HousekeepingHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev HousekeepingEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger().WarnContext(ctx, "skipping malformed housekeeping event", "offset", msg.Offset, "error", err)
		return nil
	}
	if ev.EventID == "" {
		ev.EventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, ev.EventID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().DebugContext(ctx, "duplicate housekeeping event", "event_id", ev.EventID)
			return nil
		}
	}

	res, err := commands.Dispatch[inventoryapp.UpdateRoomStatusCommand, inventoryapp.UpdateRoomStatusResult](ctx, h.Bus, inventoryapp.UpdateRoomStatusCommand{
		RoomID: inventory.RoomID(ev.RoomID),
		Status: inventory.RoomStatus(ev.Status),
	})
	switch {
	case err == nil:
		h.logger().InfoContext(ctx, "room status updated", "event_id", ev.EventID, "room", res.RoomNumber, "from", res.Previous, "to", res.Status)
		return nil
	case permanent(err):
		h.logger().WarnContext(ctx, "skipping rejected housekeeping event", "event_id", ev.EventID, "room_id", ev.RoomID, "status", ev.Status, "error", err)
		return nil
	default:
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, ev.EventID); ferr != nil {
				return errors.Join(err, ferr)
			}
		}
		return err
	}
}

func permanent(err error) bool {
	var verr *middleware.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, inventory.ErrNotFound) ||
		errors.Is(err, inventory.ErrInvalidRoomStatus)
}

func (h *HousekeepingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*HousekeepingHandler)(nil)
