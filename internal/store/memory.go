package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/umbrella-agent/internal/common"
	"github.com/i474232898/umbrella-agent/internal/subscription"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized email
	data map[string]subscription.Subscription

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]subscription.Subscription),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Upsert stores sub, replacing any previous subscription for the same email.
func (s *MemoryStore) Upsert(_ context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	key := common.NormalizeEmail(sub.Email)
	sub.Email = key

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if prev, ok := s.data[key]; ok {
		sub.CreatedAt = prev.CreatedAt
	} else if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	s.data[key] = sub
	return sub, nil
}

// List returns every subscription ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]subscription.Subscription, error) {
	s.mu.RLock()
	out := make([]subscription.Subscription, 0, len(s.data))
	for _, sub := range s.data {
		out = append(out, sub)
	}
	s.mu.RUnlock()

	sortSubscriptions(out)
	return out, nil
}

// Get returns the subscription for email.
func (s *MemoryStore) Get(_ context.Context, email string) (subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[common.NormalizeEmail(email)]
	if !ok {
		return subscription.Subscription{}, ErrNotFound
	}
	return sub, nil
}

// Delete removes the subscription for email.
func (s *MemoryStore) Delete(_ context.Context, email string) error {
	key := common.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
