package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelops/internal/infra/fixtures"
)

// EnsureIndexes creates the unique and lookup indexes the driver relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		roomsCollection: {
			{Keys: bson.D{{Key: "room_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "room_type_id", Value: 1}}},
		},
		reservationsCollection: {
			{Keys: bson.D{{Key: "reservation_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "check_in", Value: 1}}},
			{Keys: bson.D{{Key: "room_type_id", Value: 1}, {Key: "check_in", Value: 1}}},
		},
		outboxCollection: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
		idempotencyCollection: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Seed inserts missing room types, rooms and guests; existing documents keep
// their state.
func Seed(ctx context.Context, db *mongo.Database, inv fixtures.Inventory) error {
	upsert := options.Update().SetUpsert(true)
	for _, rt := range inv.RoomTypes {
		doc := newRoomTypeDocument(rt)
		if _, err := db.Collection(roomTypesCollection).UpdateByID(ctx, doc.ID, bson.M{"$setOnInsert": doc}, upsert); err != nil {
			return fmt.Errorf("seed room type %d: %w", doc.ID, err)
		}
	}
	for _, r := range inv.Rooms {
		doc := newRoomDocument(r)
		if _, err := db.Collection(roomsCollection).UpdateByID(ctx, doc.ID, bson.M{"$setOnInsert": doc}, upsert); err != nil {
			return fmt.Errorf("seed room %s: %w", doc.Number, err)
		}
	}
	for _, id := range inv.GuestIDs {
		if _, err := db.Collection(guestsCollection).UpdateByID(ctx, id, bson.M{"$setOnInsert": bson.M{"_id": id}}, upsert); err != nil {
			return fmt.Errorf("seed guest %d: %w", id, err)
		}
	}
	return nil
}
