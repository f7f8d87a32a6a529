package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hotelops/internal/app/middleware"
)

// IdempotencyStore keeps claims and command results in idempotency_keys.
// Expired rows are ignored on read and may be claimed again.
type IdempotencyStore struct {
	Pool *pgxpool.Pool
	TTL  time.Duration
}

func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{Pool: pool, TTL: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	rec := middleware.IdempotencyRecord{Key: key}
	err := s.Pool.QueryRow(ctx, `
SELECT command, payload, pending, occurred_at FROM idempotency_keys
WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`, key,
	).Scan(&rec.Command, &rec.Payload, &rec.Pending, &rec.OccurredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("get idempotency key: %w", err)
	}
	return rec, true, nil
}

// Claim inserts a pending row, or takes over one that has expired. The
// conflict clause makes the check and the write one statement.
func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	var key string
	err := s.Pool.QueryRow(ctx, `
INSERT INTO idempotency_keys (key, command, payload, pending, occurred_at, expires_at)
VALUES ($1, $2, ''::bytea, TRUE, $3, NOW() + make_interval(secs => $4))
ON CONFLICT (key) DO UPDATE SET
	command = EXCLUDED.command, payload = EXCLUDED.payload, pending = TRUE,
	occurred_at = EXCLUDED.occurred_at, expires_at = EXCLUDED.expires_at
WHERE idempotency_keys.expires_at IS NOT NULL AND idempotency_keys.expires_at <= NOW()
RETURNING key`,
		rec.Key, rec.Command, rec.OccurredAt.UTC(), middleware.IdempotencyClaimTTL.Seconds(),
	).Scan(&key)
	if err == nil {
		return middleware.IdempotencyRecord{}, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	existing, _, err := s.Get(ctx, rec.Key)
	return existing, false, err
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	var expires *time.Time
	if s.TTL > 0 {
		t := rec.OccurredAt.Add(s.TTL).UTC()
		expires = &t
	}
	payload := rec.Payload
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO idempotency_keys (key, command, payload, pending, occurred_at, expires_at)
VALUES ($1, $2, $3, FALSE, $4, $5)
ON CONFLICT (key) DO UPDATE SET
	command = EXCLUDED.command, payload = EXCLUDED.payload, pending = FALSE,
	occurred_at = EXCLUDED.occurred_at, expires_at = EXCLUDED.expires_at`,
		rec.Key, rec.Command, payload, rec.OccurredAt.UTC(), expires)
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND pending`, key); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
