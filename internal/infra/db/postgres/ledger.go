package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
)

type unitLedger struct{ tx pgx.Tx }

const reservationColumns = `id, reservation_number, guest_id, room_id, room_type_id, check_in, check_out,
adults, children, status, total_minor, currency, special_requests, notes,
checked_in_at, checked_out_at, created_at, updated_at, version`

const activeStatuses = `('confirmed', 'checked_in')`

func scanReservation(row pgx.CollectableRow) (*reservations.Reservation, error) {
	var (
		r                 reservations.Reservation
		id, number        string
		guestID, typeID   int64
		roomID            *int64
		checkIn, checkOut time.Time
		status, currency  string
		totalMinor        int64
	)
	err := row.Scan(&id, &number, &guestID, &roomID, &typeID, &checkIn, &checkOut,
		&r.Adults, &r.Children, &status, &totalMinor, &currency, &r.SpecialRequests, &r.Notes,
		&r.CheckedInAt, &r.CheckedOutAt, &r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return nil, err
	}
	total, err := money.New(totalMinor, currency)
	if err != nil {
		return nil, fmt.Errorf("reservation %s total: %w", id, err)
	}
	r.ID = reservations.ID(id)
	r.Number = reservations.Number(number)
	r.GuestID = reservations.GuestID(guestID)
	if roomID != nil {
		rid := inventory.RoomID(*roomID)
		r.RoomID = &rid
	}
	r.RoomTypeID = inventory.RoomTypeID(typeID)
	r.Range = daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	r.Status = reservations.Status(status)
	r.Total = total
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func (l unitLedger) one(ctx context.Context, op, where string, arg any) (*reservations.Reservation, error) {
	rows, err := l.tx.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE `+where, arg)
	if err != nil {
		return nil, uow.Storage(op, err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanReservation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: reservation %v", reservations.ErrNotFound, arg)
	}
	if err != nil {
		return nil, uow.Storage(op, err)
	}
	return r, nil
}

func (l unitLedger) many(ctx context.Context, op, query string, args ...any) ([]*reservations.Reservation, error) {
	rows, err := l.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, uow.Storage(op, err)
	}
	out, err := pgx.CollectRows(rows, scanReservation)
	if err != nil {
		return nil, uow.Storage(op, err)
	}
	return out, nil
}

func (l unitLedger) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	return l.one(ctx, "get reservation", `id = $1`, string(id))
}

func (l unitLedger) ByNumber(ctx context.Context, number reservations.Number) (*reservations.Reservation, error) {
	return l.one(ctx, "get reservation by number", `reservation_number = $1`, string(number))
}

func (l unitLedger) List(ctx context.Context, filter reservations.ListFilter) ([]*reservations.Reservation, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	var from, to *time.Time
	if !filter.DateFrom.IsZero() {
		d := daterange.Day(filter.DateFrom)
		from = &d
	}
	if !filter.DateTo.IsZero() {
		d := daterange.Day(filter.DateTo)
		to = &d
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	return l.many(ctx, "list reservations", `
SELECT `+reservationColumns+` FROM reservations
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::date IS NULL OR check_in >= $2)
  AND ($3::date IS NULL OR check_out <= $3)
ORDER BY check_in DESC, reservation_number
LIMIT $4`, status, from, to, limit)
}

func (l unitLedger) ActiveForRoom(ctx context.Context, roomID inventory.RoomID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	return l.many(ctx, "active reservations for room", `
SELECT `+reservationColumns+` FROM reservations
WHERE room_id = $1 AND status IN `+activeStatuses+`
  AND check_in < $3 AND $2 < check_out`, int64(roomID), within.CheckIn, within.CheckOut)
}

func (l unitLedger) ActiveForRoomType(ctx context.Context, typeID inventory.RoomTypeID, within daterange.DateRange) ([]*reservations.Reservation, error) {
	return l.many(ctx, "active reservations for room type", `
SELECT `+reservationColumns+` FROM reservations
WHERE room_type_id = $1 AND status IN `+activeStatuses+`
  AND check_in < $3 AND $2 < check_out`, int64(typeID), within.CheckIn, within.CheckOut)
}

func roomArg(id *inventory.RoomID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func (l unitLedger) Insert(ctx context.Context, r *reservations.Reservation) error {
	_, err := l.tx.Exec(ctx, `
INSERT INTO reservations (`+reservationColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1)`,
		string(r.ID), string(r.Number), int64(r.GuestID), roomArg(r.RoomID), int64(r.RoomTypeID),
		r.Range.CheckIn, r.Range.CheckOut, r.Adults, r.Children, string(r.Status),
		r.Total.Amount, r.Total.Currency, r.SpecialRequests, r.Notes,
		r.CheckedInAt, r.CheckedOutAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reservation %s already exists", uow.ErrConcurrentUpdate, r.ID)
		}
		return uow.Storage("insert reservation", err)
	}
	r.Version = 1
	return nil
}

// Update writes r only if the stored version still matches r.Version.
func (l unitLedger) Update(ctx context.Context, r *reservations.Reservation) error {
	tag, err := l.tx.Exec(ctx, `
UPDATE reservations SET
	guest_id = $3, room_id = $4, room_type_id = $5, check_in = $6, check_out = $7,
	adults = $8, children = $9, status = $10, total_minor = $11, currency = $12,
	special_requests = $13, notes = $14, checked_in_at = $15, checked_out_at = $16,
	updated_at = $17, version = version + 1
WHERE id = $1 AND version = $2`,
		string(r.ID), r.Version, int64(r.GuestID), roomArg(r.RoomID), int64(r.RoomTypeID),
		r.Range.CheckIn, r.Range.CheckOut, r.Adults, r.Children, string(r.Status),
		r.Total.Amount, r.Total.Currency, r.SpecialRequests, r.Notes,
		r.CheckedInAt, r.CheckedOutAt, r.UpdatedAt)
	if err != nil {
		return uow.Storage("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := l.ByID(ctx, r.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: reservation %s", uow.ErrConcurrentUpdate, r.ID)
	}
	r.Version++
	return nil
}

func (l unitLedger) Delete(ctx context.Context, id reservations.ID) error {
	tag, err := l.tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, string(id))
	if err != nil {
		return uow.Storage("delete reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: reservation %s", reservations.ErrNotFound, id)
	}
	return nil
}

// LockRoom and LockRoomType hold the row lock until the transaction ends.
func (l unitLedger) LockRoom(ctx context.Context, roomID inventory.RoomID) error {
	return l.lockRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, int64(roomID), inventory.ErrRoomNotFound)
}

func (l unitLedger) LockRoomType(ctx context.Context, typeID inventory.RoomTypeID) error {
	return l.lockRow(ctx, `SELECT id FROM room_types WHERE id = $1 FOR UPDATE`, int64(typeID), inventory.ErrRoomTypeNotFound)
}

func (l unitLedger) lockRow(ctx context.Context, query string, id int64, notFound error) error {
	var got int64
	err := l.tx.QueryRow(ctx, query, id).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", notFound, id)
	}
	if err != nil {
		return uow.Storage("lock", err)
	}
	return nil
}
