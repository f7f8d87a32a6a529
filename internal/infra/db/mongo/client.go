package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

const (
	roomTypesCollection    = "room_types"
	roomsCollection        = "rooms"
	guestsCollection       = "guests"
	reservationsCollection = "reservations"
	outboxCollection       = "app_outbox"
	idempotencyCollection  = "app_idempotency"
)

type Client struct {
	DB *mongo.Database
}

// New connects to uri. Transactions need a replica set, so a standalone
// server fails at the first Begin rather than here.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// isWriteConflict reports errors a retried transaction may clear: write
// conflicts between concurrent sessions and anything labelled transient.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(112) || se.HasErrorLabel(driver.TransientTransactionError)
	}
	return false
}
