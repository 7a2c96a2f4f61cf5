package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duetchat/duet/core"
)

// MemoryStore is an in-memory implementation of the IdentityStore interface
// for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*core.Identity
}

// NewMemoryStore creates a new in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string]*core.Identity)}
}

// Create inserts a new identity in the Unverified state.
func (s *MemoryStore) Create(ctx context.Context, email, passwordHash string) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, core.ErrAlreadyExists
	}

	ident := &core.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		State:        core.StateUnverified,
		CreatedAt:    time.Now(),
	}
	s.byEmail[email] = ident

	clone := *ident
	return &clone, nil
}

// ByEmail looks up an identity by email.
func (s *MemoryStore) ByEmail(ctx context.Context, email string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	clone := *ident
	return &clone, nil
}

// ByID looks up an identity by id.
func (s *MemoryStore) ByID(ctx context.Context, id string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ident := range s.byEmail {
		if ident.ID == id {
			clone := *ident
			return &clone, nil
		}
	}
	return nil, core.ErrNotFound
}

// MarkVerified transitions an identity to the Verified state.
func (s *MemoryStore) MarkVerified(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byEmail[email]
	if !ok {
		return core.ErrNotFound
	}
	ident.State = core.StateVerified
	return nil
}
