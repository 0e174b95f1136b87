package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*Account
	byHandle  map[string]string
	byContact map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*Account),
		byHandle:  make(map[string]string),
		byContact: make(map[string]string),
	}
}

// Create implements Store. Sets ID, CreatedAt and UpdatedAt on a.
func (s *MemoryStore) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byContact[a.Contact]; exists {
		return ErrDuplicateContact
	}
	if _, exists := s.byHandle[a.Handle]; exists {
		return ErrDuplicateHandle
	}

	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.byID[a.ID] = a.clone()
	s.byHandle[a.Handle] = a.ID
	s.byContact[a.Contact] = a.ID
	return nil
}

// GetByHandle implements Store.
func (s *MemoryStore) GetByHandle(_ context.Context, handle string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHandle[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

// GetByContact implements Store.
func (s *MemoryStore) GetByContact(_ context.Context, contact string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byContact[contact]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

// Update implements Store. The stored record is replaced wholesale; handle and
// contact are immutable after registration and are not re-indexed.
func (s *MemoryStore) Update(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[a.ID]
	if !ok {
		return ErrNotFound
	}
	next := a.clone()
	next.Handle = cur.Handle
	next.Contact = cur.Contact
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	a.UpdatedAt = next.UpdatedAt
	s.byID[a.ID] = next
	return nil
}

// Delete removes an account. It exists for administrative tooling and tests;
// no HTTP route exposes it.
func (s *MemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHandle[handle]
	if !ok {
		return ErrNotFound
	}
	a := s.byID[id]
	delete(s.byID, id)
	delete(s.byHandle, a.Handle)
	delete(s.byContact, a.Contact)
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
