package memorystore

import (
	"context"
	"sync"

	"github.com/open-rails/vipkit/membership"
)

// Store is an in-memory implementation of membership.Store. It is intended
// for tests and single-node embedding where no database is configured.
type Store struct {
	mu   sync.Mutex
	data map[string]membership.Record
}

func New() *Store {
	return &Store{data: make(map[string]membership.Record)}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_ = ctx
	return nil
}

func (s *Store) Insert(ctx context.Context, rec membership.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[rec.Identifier]; ok {
		return membership.ErrExists
	}
	s.data[rec.Identifier] = rec
	return nil
}

func (s *Store) Delete(ctx context.Context, identifier string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[identifier]; !ok {
		return membership.ErrNotFound
	}
	delete(s.data, identifier)
	return nil
}

func (s *Store) Find(ctx context.Context, identifier string) (membership.Record, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[identifier]
	if !ok {
		return membership.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) FindExpired(ctx context.Context, nowUnix int64) ([]membership.Record, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []membership.Record
	for _, rec := range s.data {
		if rec.ExpiresAt > 0 && rec.ExpiresAt < nowUnix {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
