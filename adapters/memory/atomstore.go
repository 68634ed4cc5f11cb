package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/storage"
)

// AtomStore is an in-memory implementation of storage.AtomStore.
type AtomStore struct {
	mu    sync.RWMutex
	atoms map[string]*atom.Record
}

var _ storage.AtomStore = (*AtomStore)(nil)

// NewAtomStore creates a new in-memory record store.
func NewAtomStore() *AtomStore {
	return &AtomStore{
		atoms: make(map[string]*atom.Record),
	}
}

// Save stores the persisted values of a record.
func (s *AtomStore) Save(ctx context.Context, r *atom.Record) error {
	if r.ID == "" {
		return errors.New("atom id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.atoms[r.ID]; ok {
		r.CreatedAt = prev.CreatedAt
	}
	r.Touch()
	s.atoms[r.ID] = atom.Restore(r.ID, r.ElementID, r.Persisted(), r.CreatedAt, r.UpdatedAt)
	return nil
}

// Find retrieves a record by ID.
func (s *AtomStore) Find(ctx context.Context, id string) (*atom.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.atoms[id]
	if !ok {
		return nil, fmt.Errorf("atom %s: %w", id, storage.ErrNotFound)
	}
	return r.Clone(), nil
}

// List returns copies of the records in scope ordered by creation.
func (s *AtomStore) List(ctx context.Context, scope atom.Scope) ([]*atom.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*atom.Record
	for _, r := range s.atoms {
		if scope.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Count returns the number of records in scope.
func (s *AtomStore) Count(ctx context.Context, scope atom.Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.atoms {
		if scope.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Delete removes a record.
func (s *AtomStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.atoms[id]; !ok {
		return fmt.Errorf("atom %s: %w", id, storage.ErrNotFound)
	}
	delete(s.atoms, id)
	return nil
}

// Exists reports whether a record in scope other than exceptID holds value
// in field.
func (s *AtomStore) Exists(ctx context.Context, scope atom.Scope, field string, value any, exceptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, r := range s.atoms {
		if id == exceptID || !scope.Matches(r) {
			continue
		}
		if v, ok := r.Get(field); ok && equalValues(v, value) {
			return true, nil
		}
	}
	return false, nil
}

func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
