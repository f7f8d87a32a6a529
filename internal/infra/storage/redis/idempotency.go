// Package redisstore keeps idempotency records in Redis so several API
// processes share them regardless of the storage driver.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"hotelops/internal/app/middleware"
)

const keyPrefix = "hotelops:idempotency:"

func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// IdempotencyStore expires results with TTL and pending claims with
// middleware.IdempotencyClaimTTL.
type IdempotencyStore struct {
	Client *redis.Client
	TTL    time.Duration
}

type record struct {
	Command    string    `json:"command"`
	Payload    []byte    `json:"payload"`
	Pending    bool      `json:"pending,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// releaseScript deletes the key only while it still holds a pending claim.
var releaseScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if raw and cjson.decode(raw).pending then
	return redis.call('DEL', KEYS[1])
end
return 0`)

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.Client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("get idempotency key: %w", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("decode idempotency key %s: %w", key, err)
	}
	return middleware.IdempotencyRecord{Key: key, Command: rec.Command, Payload: rec.Payload, Pending: rec.Pending, OccurredAt: rec.OccurredAt}, true, nil
}

func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	raw, err := json.Marshal(record{Command: rec.Command, Pending: true, OccurredAt: rec.OccurredAt.UTC()})
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	ok, err := s.Client.SetNX(ctx, keyPrefix+rec.Key, raw, middleware.IdempotencyClaimTTL).Result()
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return middleware.IdempotencyRecord{}, true, nil
	}
	existing, _, err := s.Get(ctx, rec.Key)
	return existing, false, err
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.Client, []string{keyPrefix + key}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(record{Command: rec.Command, Payload: rec.Payload, OccurredAt: rec.OccurredAt.UTC()})
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, keyPrefix+rec.Key, raw, s.TTL).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
