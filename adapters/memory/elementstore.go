package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artpar/typeforge/core/schema"
	"github.com/artpar/typeforge/core/storage"
)

// ElementStore is an in-memory implementation of storage.ElementStore.
type ElementStore struct {
	mu       sync.RWMutex
	elements map[string]*schema.Descriptor
	now      func() time.Time
}

var _ storage.ElementStore = (*ElementStore)(nil)

// NewElementStore creates a new in-memory descriptor store.
func NewElementStore() *ElementStore {
	return &ElementStore{
		elements: make(map[string]*schema.Descriptor),
		now:      time.Now,
	}
}

// Get retrieves a descriptor by ID.
func (s *ElementStore) Get(ctx context.Context, id string) (*schema.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.elements[id]
	if !ok {
		return nil, fmt.Errorf("element %s: %w", id, storage.ErrNotFound)
	}
	return d.Clone(), nil
}

// Save stores a copy of the descriptor.
func (s *ElementStore) Save(ctx context.Context, d *schema.Descriptor) error {
	if d.ID == "" {
		return errors.New("element id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if prev, ok := s.elements[d.ID]; ok {
		d.CreatedAt = prev.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	s.elements[d.ID] = d.Clone()
	return nil
}

// Delete removes a descriptor.
func (s *ElementStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elements[id]; !ok {
		return fmt.Errorf("element %s: %w", id, storage.ErrNotFound)
	}
	delete(s.elements, id)
	return nil
}

// List returns copies of all descriptors ordered by creation.
func (s *ElementStore) List(ctx context.Context) ([]*schema.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*schema.Descriptor, 0, len(s.elements))
	for _, d := range s.elements {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
