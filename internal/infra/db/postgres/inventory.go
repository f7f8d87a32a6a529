package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/money"
)

type unitInventory struct{ tx pgx.Tx }

const roomColumns = `id, room_number, room_type_id, floor, status, notes, updated_at`

func scanRoom(row pgx.CollectableRow) (inventory.Room, error) {
	var (
		r      inventory.Room
		id     int64
		typeID int64
		status string
	)
	if err := row.Scan(&id, &r.Number, &typeID, &r.Floor, &status, &r.Notes, &r.UpdatedAt); err != nil {
		return inventory.Room{}, err
	}
	r.ID = inventory.RoomID(id)
	r.TypeID = inventory.RoomTypeID(typeID)
	r.Status = inventory.RoomStatus(status)
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func scanRoomType(row pgx.CollectableRow) (inventory.RoomType, error) {
	var (
		rt       inventory.RoomType
		id       int64
		minor    int64
		currency string
	)
	if err := row.Scan(&id, &rt.Name, &rt.Description, &minor, &currency, &rt.MaxOccupancy, &rt.Amenities); err != nil {
		return inventory.RoomType{}, err
	}
	price, err := money.New(minor, currency)
	if err != nil {
		return inventory.RoomType{}, fmt.Errorf("room type %d price: %w", id, err)
	}
	rt.ID = inventory.RoomTypeID(id)
	rt.BasePrice = price
	return rt, nil
}

func (v unitInventory) Rooms(ctx context.Context, filter inventory.RoomFilter) ([]inventory.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE ($1::bigint IS NULL OR room_type_id = $1)`
	args := []any{nil}
	if filter.TypeID != nil {
		args[0] = int64(*filter.TypeID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query += ` AND status = ANY($2)`
		args = append(args, statuses)
	}
	rows, err := v.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, uow.Storage("list rooms", err)
	}
	out, err := pgx.CollectRows(rows, scanRoom)
	if err != nil {
		return nil, uow.Storage("list rooms", err)
	}
	inventory.SortByNumber(out)
	return out, nil
}

func (v unitInventory) Room(ctx context.Context, id inventory.RoomID) (inventory.Room, error) {
	rows, err := v.tx.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, int64(id))
	if err != nil {
		return inventory.Room{}, uow.Storage("get room", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanRoom)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Room{}, fmt.Errorf("%w: %d", inventory.ErrRoomNotFound, id)
	}
	if err != nil {
		return inventory.Room{}, uow.Storage("get room", err)
	}
	return r, nil
}

const roomTypeColumns = `id, name, description, base_price_minor, currency, max_occupancy, amenities`

func (v unitInventory) RoomType(ctx context.Context, id inventory.RoomTypeID) (inventory.RoomType, error) {
	rows, err := v.tx.Query(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = $1`, int64(id))
	if err != nil {
		return inventory.RoomType{}, uow.Storage("get room type", err)
	}
	rt, err := pgx.CollectExactlyOneRow(rows, scanRoomType)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.RoomType{}, fmt.Errorf("%w: %d", inventory.ErrRoomTypeNotFound, id)
	}
	if err != nil {
		return inventory.RoomType{}, uow.Storage("get room type", err)
	}
	return rt, nil
}

func (v unitInventory) RoomTypes(ctx context.Context) ([]inventory.RoomType, error) {
	rows, err := v.tx.Query(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY id`)
	if err != nil {
		return nil, uow.Storage("list room types", err)
	}
	out, err := pgx.CollectRows(rows, scanRoomType)
	if err != nil {
		return nil, uow.Storage("list room types", err)
	}
	return out, nil
}

func (v unitInventory) SetRoomStatus(ctx context.Context, id inventory.RoomID, status inventory.RoomStatus, at time.Time) error {
	tag, err := v.tx.Exec(ctx, `UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1`, int64(id), string(status), at.UTC())
	if err != nil {
		return uow.Storage("set room status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", inventory.ErrRoomNotFound, id)
	}
	return nil
}
