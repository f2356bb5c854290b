package cart

import (
	"context"
	"sync"
	"time"
)

// Store keeps carts between requests. Update runs fn against the current cart
// and persists the result only when fn returns nil.
type Store interface {
	Create(ctx context.Context) (*Cart, error)
	Get(ctx context.Context, id string) (*Cart, error)
	Update(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	cart      *Cart
	expiresAt time.Time
}

// MemoryStore is a process-local Store whose carts expire after ttl of inactivity.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	carts map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		carts: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context) (*Cart, error) {
	c := New()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.carts[c.ID] = memoryEntry{cart: c, expiresAt: s.now().Add(s.ttl)}
	return c.clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(id)
	if !ok {
		return nil, ErrCartNotFound
	}
	return entry.cart.clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Cart) error) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(id)
	if !ok {
		return nil, ErrCartNotFound
	}
	working := entry.cart.clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.carts[id] = memoryEntry{cart: working, expiresAt: s.now().Add(s.ttl)}
	return working.clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveLocked(id); !ok {
		return ErrCartNotFound
	}
	delete(s.carts, id)
	return nil
}

// Len returns the number of live carts.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.carts)
}

func (s *MemoryStore) liveLocked(id string) (memoryEntry, bool) {
	entry, ok := s.carts[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.carts, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.carts {
		if !now.Before(entry.expiresAt) {
			delete(s.carts, id)
		}
	}
}
