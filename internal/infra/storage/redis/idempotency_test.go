package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"hotelops/internal/app/middleware"
)

func newTestStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), addr)
	if err != nil {
		t.Skipf("skipping Redis integration tests: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return &IdempotencyStore{Client: client, TTL: time.Minute}
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	client := store.Client
	key := uuid.NewString()

	if _, found, err := store.Get(ctx, key); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
	rec := middleware.IdempotencyRecord{Key: key, Command: "reservations.admit", Payload: []byte(`{"ok":true}`), OccurredAt: time.Now().UTC()}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Get(ctx, key)
	if err != nil || !found || got.Command != rec.Command || string(got.Payload) != string(rec.Payload) {
		t.Fatalf("unexpected record %+v found=%v err=%v", got, found, err)
	}
	if ttl := client.TTL(ctx, keyPrefix+key).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl within a minute, got %v", ttl)
	}
}

func TestIdempotencyClaimHoldsKeyUntilRelease(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := uuid.NewString()
	claim := middleware.IdempotencyRecord{Key: key, Command: "reservations.admit", OccurredAt: time.Now().UTC()}

	if _, claimed, err := store.Claim(ctx, claim); err != nil || !claimed {
		t.Fatalf("expected first claim to win, claimed=%v err=%v", claimed, err)
	}
	existing, claimed, err := store.Claim(ctx, claim)
	if err != nil || claimed || !existing.Pending {
		t.Fatalf("expected pending claim to hold the key, got %+v claimed=%v err=%v", existing, claimed, err)
	}
	if ttl := store.Client.TTL(ctx, keyPrefix+key).Val(); ttl <= 0 || ttl > middleware.IdempotencyClaimTTL {
		t.Fatalf("expected claim ttl, got %v", ttl)
	}
	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, claimed, err := store.Claim(ctx, claim); err != nil || !claimed {
		t.Fatalf("expected key free after release, claimed=%v err=%v", claimed, err)
	}
	if err := store.Save(ctx, middleware.IdempotencyRecord{Key: key, Command: "reservations.admit", Payload: []byte(`{}`), OccurredAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("release after save: %v", err)
	}
	got, found, err := store.Get(ctx, key)
	if err != nil || !found || got.Pending {
		t.Fatalf("expected stored result to survive release, got %+v found=%v err=%v", got, found, err)
	}
}
