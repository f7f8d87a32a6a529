package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelops/internal/domain/inventory"
)

type unitInventory struct{ u *Unit }

func (v unitInventory) Rooms(ctx context.Context, filter inventory.RoomFilter) ([]inventory.Room, error) {
	q := bson.M{}
	if filter.TypeID != nil {
		q["room_type_id"] = int64(*filter.TypeID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q["status"] = bson.M{"$in": statuses}
	}
	ctx = v.u.sc(ctx)
	cur, err := v.u.col(roomsCollection).Find(ctx, q)
	if err != nil {
		return nil, storage("list rooms", err)
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storage("list rooms", err)
	}
	out := make([]inventory.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	inventory.SortByNumber(out)
	return out, nil
}

func (v unitInventory) Room(ctx context.Context, id inventory.RoomID) (inventory.Room, error) {
	var doc roomDocument
	err := v.u.col(roomsCollection).FindOne(v.u.sc(ctx), bson.M{"_id": int64(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return inventory.Room{}, fmt.Errorf("%w: %d", inventory.ErrRoomNotFound, id)
	}
	if err != nil {
		return inventory.Room{}, storage("get room", err)
	}
	return doc.toDomain(), nil
}

func (v unitInventory) RoomType(ctx context.Context, id inventory.RoomTypeID) (inventory.RoomType, error) {
	var doc roomTypeDocument
	err := v.u.col(roomTypesCollection).FindOne(v.u.sc(ctx), bson.M{"_id": int64(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return inventory.RoomType{}, fmt.Errorf("%w: %d", inventory.ErrRoomTypeNotFound, id)
	}
	if err != nil {
		return inventory.RoomType{}, storage("get room type", err)
	}
	return doc.toDomain()
}

func (v unitInventory) RoomTypes(ctx context.Context) ([]inventory.RoomType, error) {
	ctx = v.u.sc(ctx)
	cur, err := v.u.col(roomTypesCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storage("list room types", err)
	}
	var docs []roomTypeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storage("list room types", err)
	}
	out := make([]inventory.RoomType, 0, len(docs))
	for _, d := range docs {
		rt, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

func (v unitInventory) SetRoomStatus(ctx context.Context, id inventory.RoomID, status inventory.RoomStatus, at time.Time) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	res, err := v.u.col(roomsCollection).UpdateByID(v.u.sc(ctx), int64(id), bson.M{
		"$set": bson.M{"status": string(status), "updated_at": at.UTC()},
	})
	if err != nil {
		return storage("set room status", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", inventory.ErrRoomNotFound, id)
	}
	return nil
}
