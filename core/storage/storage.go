// Package storage persists descriptors and the records of their runtime
// types. Descriptors are stored as a JSON meta document; records as a JSON
// data document scoped by the id of their descriptor.
package storage

import (
	"context"
	"errors"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/schema"
)

// ErrNotFound is returned when a descriptor or record does not exist.
var ErrNotFound = errors.New("not found")

// ElementStore persists descriptors.
type ElementStore interface {
	// Get returns the stored descriptor with id.
	Get(ctx context.Context, id string) (*schema.Descriptor, error)

	// Save inserts or updates a descriptor and sets its timestamps.
	Save(ctx context.Context, d *schema.Descriptor) error

	// Delete removes a descriptor. Deleting a missing id returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every stored descriptor ordered by creation.
	List(ctx context.Context) ([]*schema.Descriptor, error)
}

// AtomStore persists records of runtime types.
type AtomStore interface {
	atom.Lookup

	// Save inserts or updates a record's persisted values.
	Save(ctx context.Context, r *atom.Record) error

	// Find returns the record with id.
	Find(ctx context.Context, id string) (*atom.Record, error)

	// List returns the records in scope ordered by creation.
	List(ctx context.Context, scope atom.Scope) ([]*atom.Record, error)

	// Count returns the number of records in scope.
	Count(ctx context.Context, scope atom.Scope) (int, error)

	// Delete removes a record.
	Delete(ctx context.Context, id string) error
}
