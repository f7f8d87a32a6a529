package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hotelops/internal/infra/inbox"
)

// InboxStore records consumed event ids; a repeated id affects no rows.
type InboxStore struct {
	Pool     *pgxpool.Pool
	Consumer string
}

func (s *InboxStore) Seen(ctx context.Context, eventID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
INSERT INTO inbox (event_id, consumer) VALUES ($1, $2)
ON CONFLICT (event_id, consumer) DO NOTHING`, eventID, s.Consumer)
	if err != nil {
		return false, fmt.Errorf("record inbox event: %w", err)
	}
	return tag.RowsAffected() == 0, nil
}

func (s *InboxStore) Forget(ctx context.Context, eventID string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM inbox WHERE event_id = $1 AND consumer = $2`, eventID, s.Consumer); err != nil {
		return fmt.Errorf("forget inbox event: %w", err)
	}
	return nil
}

var _ inbox.Inbox = (*InboxStore)(nil)
