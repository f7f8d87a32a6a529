package memory

import (
	"context"
	"sync"
	"time"

	"hotelops/internal/app/middleware"
)

// IdempotencyStore keeps command results in memory for ttl. Pending claims
// lapse after middleware.IdempotencyClaimTTL.
type IdempotencyStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.live(key)
	return rec, ok, nil
}

func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live(rec.Key); ok {
		return existing, false, nil
	}
	rec.Pending = true
	s.items[rec.Key] = rec
	return middleware.IdempotencyRecord{}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Pending = false
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.items[key]; ok && rec.Pending {
		delete(s.items, key)
	}
	return nil
}

// live returns the record under key unless it has expired; s.mu must be held.
func (s *IdempotencyStore) live(key string) (middleware.IdempotencyRecord, bool) {
	rec, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false
	}
	ttl := s.ttl
	if rec.Pending {
		ttl = middleware.IdempotencyClaimTTL
	}
	if ttl > 0 && time.Since(rec.OccurredAt) > ttl {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false
	}
	return rec, true
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
