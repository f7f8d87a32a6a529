package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/infra/outbox"
)

type outboxEntry struct {
	msg       outbox.Message
	state     string
	next      time.Time
	claimedBy string
	claimedAt time.Time
	lastError string
}

// Outbox keeps committed event records until the relay marks them sent.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: func() time.Time { return time.Now().UTC() }}
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range records {
		o.entries = append(o.entries, &outboxEntry{
			msg: outbox.Message{
				ID:         rec.ID,
				Name:       rec.Name,
				Payload:    rec.Payload,
				OccurredAt: rec.OccurredAt,
				Aggregate:  rec.Aggregate,
				Headers:    rec.Headers,
			},
			state: outbox.StateNew,
			next:  now,
		})
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*outbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.entries {
		due := (e.state == outbox.StateNew || e.state == outbox.StateFailed) && !e.next.After(now)
		stale := e.state == outbox.StateClaimed && now.Sub(e.claimedAt) > outbox.ClaimTTL
		if !due && !stale {
			continue
		}
		e.state = outbox.StateClaimed
		e.claimedBy = workerID
		e.claimedAt = now
		msg := e.msg
		return &msg, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.msg.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("memory: outbox message %s not found", id)
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.msg.ID == id {
			e.state = outbox.StateFailed
			e.next = next
			e.lastError = errMsg
			e.msg.Attempts++
			return nil
		}
	}
	return fmt.Errorf("memory: outbox message %s not found", id)
}

// Pending returns the messages not yet sent, oldest first.
func (o *Outbox) Pending() []outbox.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]outbox.Message, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.msg)
	}
	return out
}

var _ outbox.Store = (*Outbox)(nil)
