package outbox

import (
	"context"
	"errors"
	"time"
)

// Message is a committed outbox row waiting to be relayed.
type Message struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Store is the relay side of an outbox. Every storage driver provides one.
type Store interface {
	// Claim leases the oldest due message to workerID, or returns nil when
	// nothing is due.
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Producer publishes a message to the broker.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// ClaimTTL is how long a claim is honoured before another worker may retake it.
const ClaimTTL = time.Minute

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
