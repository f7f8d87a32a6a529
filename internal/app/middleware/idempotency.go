package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"hotelops/internal/app/commands"
)

// IdempotentCommand is implemented by commands that may be safely replayed
// by a client holding the same key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to a value of the handler result type
}

// IdempotencyRecord is either a pending claim taken before the command runs
// or the stored result of a command that succeeded.
type IdempotencyRecord struct {
	Key        string
	Command    string
	Payload    []byte
	Pending    bool
	OccurredAt time.Time
}

// IdempotencyClaimTTL bounds how long a pending claim blocks its key. A claim
// left behind by a crashed process can be taken over once it has expired.
const IdempotencyClaimTTL = time.Minute

// IdempotencyStore persists claims and results. Claim must be atomic: of two
// concurrent callers with the same key exactly one gets claimed == true, the
// other gets the live record holding the key (zero if it vanished meanwhile).
type IdempotencyStore interface {
	Claim(ctx context.Context, rec IdempotencyRecord) (existing IdempotencyRecord, claimed bool, err error)
	Save(ctx context.Context, rec IdempotencyRecord) error
	// Release drops a pending claim so a corrected retry may run.
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

	// ErrIdempotencyKeyReuse is returned when a key is replayed for a different command.
	ErrIdempotencyKeyReuse = errors.New("middleware: idempotency key already used by another command")
	// ErrIdempotencyInProgress is returned when another request holding the
	// same key did not finish within the wait window.
	ErrIdempotencyInProgress = errors.New("middleware: request with this idempotency key still in progress")
)

// How long a second request with a claimed key waits for the first one.
var (
	claimWait = 5 * time.Second
	claimPoll = 25 * time.Millisecond
)

// Idempotency runs a keyed command at most once. The key is claimed before
// dispatch; a concurrent request with the same key waits for the stored
// result. Failed attempts release the claim, so a corrected retry can still go
// through under the same key. Once the command has committed its result is
// returned even if storing it fails; the claim then keeps the key blocked until
// it expires.
func Idempotency(store IdempotencyStore, codec ResultCodec, logger *slog.Logger) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()

			deadline := time.Now().Add(claimWait)
			for {
				existing, claimed, err := store.Claim(ctx, IdempotencyRecord{
					Key:        key,
					Command:    cmd.Key(),
					Pending:    true,
					OccurredAt: time.Now().UTC(),
				})
				if err != nil {
					return nil, err
				}
				if claimed {
					break
				}
				if existing.Key != "" && existing.Command != "" && existing.Command != cmd.Key() {
					return nil, ErrIdempotencyKeyReuse
				}
				if existing.Key != "" && !existing.Pending {
					return replay(idCmd, codec, existing)
				}
				if time.Now().After(deadline) {
					return nil, ErrIdempotencyInProgress
				}
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(claimPoll):
				}
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if relErr := store.Release(context.WithoutCancel(ctx), key); relErr != nil {
					logger.WarnContext(ctx, "idempotency claim not released", "key", key, "command", cmd.Key(), "error", relErr)
				}
				return nil, err
			}
			record := IdempotencyRecord{
				Key:        key,
				Command:    cmd.Key(),
				OccurredAt: time.Now().UTC(),
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					logger.ErrorContext(ctx, "idempotency result not encoded", "key", key, "command", cmd.Key(), "error", encErr)
					return result, nil
				}
				record.Payload = payload
			}
			if err := store.Save(ctx, record); err != nil {
				logger.ErrorContext(ctx, "idempotency result not stored", "key", key, "command", cmd.Key(), "error", err)
			}
			return result, nil
		})
	}
}

func replay(cmd IdempotentCommand, codec ResultCodec, rec IdempotencyRecord) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return proto, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
