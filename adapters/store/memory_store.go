package store

import (
	"context"
	"sync"
	"time"

	"github.com/duetchat/duet/core"
)

type entry struct {
	value    string
	deadline time.Time
}

// MemoryStore is an in-memory implementation of the Store interface,
// primarily for tests. Expiry is checked lazily on read against an
// injectable clock.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// SetClock replaces the store's clock, letting tests control expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set writes a key with a TTL, overwriting any existing entry.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{value: value, deadline: s.now().Add(ttl)}
	return nil
}

// Get returns the value at key, or core.ErrNotFound if absent or expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.now().After(e.deadline) {
		return "", core.ErrNotFound
	}
	return e.value, nil
}

// Del removes a key. Deleting an absent key is not an error.
func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
