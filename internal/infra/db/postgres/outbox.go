package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/infra/outbox"
)

// unitOutbox writes records in the caller's transaction so they commit or
// vanish together with the reservation change.
type unitOutbox struct{ tx pgx.Tx }

func (o unitOutbox) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	headers := rec.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	_, err := o.tx.Exec(ctx, `
INSERT INTO outbox (id, name, aggregate, payload, headers, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Name, rec.Aggregate, rec.Payload, headers, rec.OccurredAt.UTC())
	if err != nil {
		return uow.Storage("outbox add", err)
	}
	return nil
}

// OutboxStore is the relay side of the outbox table.
type OutboxStore struct {
	Pool *pgxpool.Pool
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{Pool: pool}
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.Message, error) {
	var msg outbox.Message
	err := s.Pool.QueryRow(ctx, `
UPDATE outbox SET state = $1, claimed_by = $2, claimed_at = NOW()
WHERE id = (
	SELECT id FROM outbox
	WHERE (state IN ($3, $4) AND next_attempt_at <= NOW())
	   OR (state = $1 AND claimed_at < NOW() - make_interval(secs => $5))
	ORDER BY created_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, name, payload, occurred_at, aggregate, headers, attempts`,
		outbox.StateClaimed, workerID, outbox.StateNew, outbox.StateFailed, outbox.ClaimTTL.Seconds(),
	).Scan(&msg.ID, &msg.Name, &msg.Payload, &msg.OccurredAt, &msg.Aggregate, &msg.Headers, &msg.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim outbox message: %w", err)
	}
	return &msg, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE outbox SET state = $2, sent_at = NOW(), last_error = NULL WHERE id = $1`, id, outbox.StateSent)
	if err != nil {
		return fmt.Errorf("mark outbox message sent: %w", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE outbox SET state = $2, attempts = attempts + 1, next_attempt_at = $3, last_error = $4
WHERE id = $1`, id, outbox.StateFailed, next.UTC(), errMsg)
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", err)
	}
	return nil
}

var _ outbox.Store = (*OutboxStore)(nil)
