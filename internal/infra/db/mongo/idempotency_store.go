package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelops/internal/app/middleware"
)

// IdempotencyStore keeps claims and command results; a TTL index on expires_at
// removes them (see EnsureIndexes). The _id unique index makes Claim exclusive.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewIdempotencyStore(db *mongo.Database, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{col: db.Collection(idempotencyCollection), ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	// The TTL monitor runs once a minute; do not serve what it has yet to reap.
	if !doc.ExpiresAt.IsZero() && time.Now().After(doc.ExpiresAt) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	now := time.Now().UTC()
	doc := idempotencyDocument{
		ID:         rec.Key,
		Command:    rec.Command,
		Payload:    []byte{},
		Pending:    true,
		OccurredAt: rec.OccurredAt.UTC(),
		ExpiresAt:  now.Add(middleware.IdempotencyClaimTTL),
	}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return middleware.IdempotencyRecord{}, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return middleware.IdempotencyRecord{}, false, err
	}
	// Take over a record the TTL monitor has not reaped yet.
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.Key, "expires_at": bson.M{"$lte": now}}, doc)
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	if res.MatchedCount == 1 {
		return middleware.IdempotencyRecord{}, true, nil
	}
	existing, _, err := s.Get(ctx, rec.Key)
	return existing, false, err
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "pending": true})
	return err
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		ID:         rec.Key,
		Command:    rec.Command,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt.UTC(),
	}
	if s.ttl > 0 {
		doc.ExpiresAt = rec.OccurredAt.Add(s.ttl).UTC()
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	ID         string    `bson:"_id"`
	Command    string    `bson:"command"`
	Payload    []byte    `bson:"payload"`
	Pending    bool      `bson:"pending"`
	OccurredAt time.Time `bson:"occurred_at"`
	ExpiresAt  time.Time `bson:"expires_at,omitempty"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: d.ID, Command: d.Command, Payload: d.Payload, Pending: d.Pending, OccurredAt: d.OccurredAt.UTC()}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
