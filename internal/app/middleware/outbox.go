package middleware

import (
	"context"
	"log/slog"

	"hotelops/internal/app/commands"
	"hotelops/internal/app/outbox"
)

// OutboxFlush nudges the relay after a command succeeded. The records are
// already committed, so a failed nudge is logged and the next poll picks them up.
func OutboxFlush(f outbox.Flusher, logger *slog.Logger) CommandMiddleware {
	if f == nil {
		panic("middleware: outbox flusher required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := f.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
