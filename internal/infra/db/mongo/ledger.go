package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

type unitLedger struct{ u *Unit }

func activeStatuses() []string {
	out := make([]string, 0, 2)
	for _, s := range reservations.ActiveStatuses() {
		out = append(out, string(s))
	}
	return out
}

func (l unitLedger) one(ctx context.Context, op, ref string, filter bson.M) (*reservations.Reservation, error) {
	var doc reservationDocument
	err := l.u.col(reservationsCollection).FindOne(l.u.sc(ctx), filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, ref)
	}
	if err != nil {
		return nil, storage(op, err)
	}
	return doc.toDomain()
}

func (l unitLedger) many(ctx context.Context, op string, filter bson.M, opts ...*options.FindOptions) ([]*reservations.Reservation, error) {
	ctx = l.u.sc(ctx)
	cur, err := l.u.col(reservationsCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, storage(op, err)
	}
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storage(op, err)
	}
	out := make([]*reservations.Reservation, 0, len(docs))
	for _, d := range docs {
		r, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (l unitLedger) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	return l.one(ctx, "get reservation", string(id), bson.M{"_id": string(id)})
}

func (l unitLedger) ByNumber(ctx context.Context, number reservations.Number) (*reservations.Reservation, error) {
	return l.one(ctx, "get reservation by number", string(number), bson.M{"reservation_number": string(number)})
}

func (l unitLedger) List(ctx context.Context, filter reservations.ListFilter) ([]*reservations.Reservation, error) {
	q := bson.M{}
	if filter.Status != nil {
		q["status"] = string(*filter.Status)
	}
	if !filter.DateFrom.IsZero() {
		q["check_in"] = bson.M{"$gte": daterange.Day(filter.DateFrom)}
	}
	if !filter.DateTo.IsZero() {
		q["check_out"] = bson.M{"$lte": daterange.Day(filter.DateTo)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: -1}, {Key: "reservation_number", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return l.many(ctx, "list reservations", q, opts)
}

func overlapping(within daterange.DateRange) bson.M {
	return bson.M{
		"status":    bson.M{"$in": activeStatuses()},
		"check_in":  bson.M{"$lt": within.CheckOut},
		"check_out": bson.M{"$gt": within.CheckIn},
	}
}

func (l unitLedger) ActiveForRoom(ctx context.Context, roomID inventory.RoomID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	q := overlapping(within)
	q["room_id"] = int64(roomID)
	return l.many(ctx, "active reservations for room", q)
}

func (l unitLedger) ActiveForRoomType(ctx context.Context, typeID inventory.RoomTypeID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	q := overlapping(within)
	q["room_type_id"] = int64(typeID)
	return l.many(ctx, "active reservations for room type", q)
}

func (l unitLedger) Insert(ctx context.Context, r *reservations.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	doc := newReservationDocument(r)
	doc.Version = 1
	if _, err := l.u.col(reservationsCollection).InsertOne(l.u.sc(ctx), doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: reservation %s already exists", uow.ErrConcurrentUpdate, r.ID)
		}
		return storage("insert reservation", err)
	}
	r.Version = 1
	return nil
}

// Update replaces the document only while its version still equals r.Version.
func (l unitLedger) Update(ctx context.Context, r *reservations.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	doc := newReservationDocument(r)
	doc.Version = r.Version + 1
	res, err := l.u.col(reservationsCollection).ReplaceOne(l.u.sc(ctx), bson.M{"_id": doc.ID, "version": r.Version}, doc)
	if err != nil {
		return storage("update reservation", err)
	}
	if res.MatchedCount == 0 {
		if _, err := l.ByID(ctx, r.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: reservation %s", uow.ErrConcurrentUpdate, r.ID)
	}
	r.Version = doc.Version
	return nil
}

func (l unitLedger) Delete(ctx context.Context, id reservations.ID) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	res, err := l.u.col(reservationsCollection).DeleteOne(l.u.sc(ctx), bson.M{"_id": string(id)})
	if err != nil {
		return storage("delete reservation", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, id)
	}
	return nil
}

func (l unitLedger) LockRoom(ctx context.Context, roomID inventory.RoomID) error {
	return l.bump(ctx, roomsCollection, int64(roomID), inventory.ErrRoomNotFound)
}

func (l unitLedger) LockRoomType(ctx context.Context, typeID inventory.RoomTypeID) error {
	return l.bump(ctx, roomTypesCollection, int64(typeID), inventory.ErrRoomTypeNotFound)
}

// bump writes lock_seq so the document joins this transaction's write set.
func (l unitLedger) bump(ctx context.Context, collection string, id int64, notFound error) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	res, err := l.u.col(collection).UpdateByID(l.u.sc(ctx), id, bson.M{"$inc": bson.M{"lock_seq": 1}})
	if err != nil {
		return storage("lock", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", notFound, id)
	}
	return nil
}
