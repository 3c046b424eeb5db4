package cart

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by local tooling and tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[Owner][]Line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[Owner][]Line{}}
}

func (s *MemoryStore) Load(_ context.Context, owner Owner) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[owner]
	return &Cart{Lines: append([]Line(nil), lines...)}, nil
}

func (s *MemoryStore) Save(_ context.Context, owner Owner, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsEmpty() {
		delete(s.carts, owner)
		return nil
	}
	s.carts[owner] = append([]Line(nil), c.Lines...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, owner Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner)
	return nil
}
