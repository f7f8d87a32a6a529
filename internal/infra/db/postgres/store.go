package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/infra/fixtures"
)

// Connect opens a pool and checks the server answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Seed inserts room types, rooms and guests that are not there yet. Existing
// rows keep their current state, room status included.
func Seed(ctx context.Context, pool *pgxpool.Pool, inv fixtures.Inventory) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rt := range inv.RoomTypes {
			amenities := rt.Amenities
			if amenities == nil {
				amenities = []string{}
			}
			batch.Queue(`
INSERT INTO room_types (id, name, description, base_price_minor, currency, max_occupancy, amenities)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`,
				int64(rt.ID), rt.Name, rt.Description, rt.BasePrice.Amount, rt.BasePrice.Currency, rt.MaxOccupancy, amenities)
		}
		for _, r := range inv.Rooms {
			status := r.Status
			if status == "" {
				status = inventory.RoomAvailable
			}
			batch.Queue(`
INSERT INTO rooms (id, room_number, room_type_id, floor, status, notes, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (id) DO NOTHING`,
				int64(r.ID), r.Number, int64(r.TypeID), r.Floor, string(status), r.Notes)
		}
		for _, g := range inv.GuestIDs {
			batch.Queue(`INSERT INTO guests (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, g)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed inventory: %w", err)
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isWriteRace reports serialization failures and deadlocks, both of which the
// caller may retry.
func isWriteRace(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
