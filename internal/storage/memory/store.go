// Package memory is a map-backed Store used by tests and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pache/internal/core"
)

type Store struct {
	mu     sync.RWMutex
	paches map[string]core.Pache
	order  []string
}

func New() *Store {
	return &Store{paches: make(map[string]core.Pache)}
}

func (s *Store) ListPaches(ctx context.Context) ([]core.Pache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Pache, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.paches[id])
	}
	return out, nil
}

func (s *Store) GetPache(ctx context.Context, id string) (core.Pache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.paches[id]
	if !ok {
		return core.Pache{}, fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
	}
	return p, nil
}

func (s *Store) CreatePache(ctx context.Context, p core.Pache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paches[p.ID]; ok {
		return fmt.Errorf("pache %s already exists", p.ID)
	}
	s.paches[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *Store) SavePache(ctx context.Context, p core.Pache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paches[p.ID]; !ok {
		return fmt.Errorf("%w: pache %s", core.ErrNotFound, p.ID)
	}
	s.paches[p.ID] = p
	return nil
}

func (s *Store) DeletePache(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paches[id]; !ok {
		return fmt.Errorf("%w: pache %s", core.ErrNotFound, id)
	}
	delete(s.paches, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }
