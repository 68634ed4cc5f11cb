// Package registry holds the live runtime types of the process.
// It maps type names to immutable handles and guarantees that a name is
// bound to at most one type and a descriptor to at most one name.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/convention"
)

var (
	// ErrNameAlreadyBound is matched when a name is held by a different type.
	ErrNameAlreadyBound = errors.New("name already bound")

	// ErrNotFound is returned when no type is registered under a name.
	ErrNotFound = errors.New("type not registered")
)

// Registry manages registered runtime types.
type Registry struct {
	mu sync.RWMutex

	// types by name
	types map[string]*Handle

	// owning descriptor id to type name
	owners map[string]string

	generation uint64
	now        func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:  make(map[string]*Handle),
		owners: make(map[string]string),
		now:    time.Now,
	}
}

// IsRegistered reports whether a type is bound to name.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[name]
	return ok
}

// Get returns the handle bound to name.
func (r *Registry) Get(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.types[name]
	return h, ok
}

// NameOf returns the name currently bound to a descriptor.
func (r *Registry) NameOf(owner string) (string, bool) {
	if owner == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.owners[owner]
	return name, ok
}

// Len returns the number of live types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// List returns all live types sorted by name.
func (r *Registry) List() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]*Handle, 0, len(r.types))
	for _, h := range r.types {
		handles = append(handles, h)
	}

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].name < handles[j].name
	})

	return handles
}

// Install binds shape to name. It fails with ErrNameAlreadyBound when a
// different shape holds the name and replace is false. A descriptor that
// already holds another name is moved to name.
func (r *Registry) Install(name string, shape convention.Shape, replace bool) (*Handle, error) {
	if name == "" {
		return nil, errors.New("type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[name]; ok && !replace && !existing.sameShape(shape) {
		return nil, &ConflictError{Name: name, Holder: existing.shape.Owner, Requester: shape.Owner}
	}

	if shape.Owner != "" {
		if prev, ok := r.owners[shape.Owner]; ok && prev != name {
			r.removeLocked(prev)
		}
	}

	return r.installLocked(name, shape), nil
}

// Replace retires oldName and binds shape to newName under one lock
// acquisition, so readers never observe the type missing. oldName may be
// empty or unbound. It fails with ErrNameAlreadyBound, leaving the registry
// unchanged, when newName is held by a different descriptor.
func (r *Registry) Replace(oldName, newName string, shape convention.Shape) (*Handle, error) {
	if newName == "" {
		return nil, errors.New("type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[newName]; ok && (existing.shape.Owner != shape.Owner || existing.shape.Static != shape.Static) {
		return nil, &ConflictError{Name: newName, Holder: existing.shape.Owner, Requester: shape.Owner}
	}

	if oldName != "" && oldName != newName {
		if old, ok := r.types[oldName]; ok && old.shape.Owner == shape.Owner {
			r.removeLocked(oldName)
		}
	}
	if shape.Owner != "" {
		if prev, ok := r.owners[shape.Owner]; ok && prev != newName {
			r.removeLocked(prev)
		}
	}

	return r.installLocked(newName, shape), nil
}

// Remove unregisters name. It reports whether a type was removed;
// removing an unbound name is a no-op.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(name)
}

// Attach replaces the bindings of the type bound to name.
func (r *Registry) Attach(name string, bindings []binding.Binding) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("attach to %q: %w", name, ErrNotFound)
	}

	return r.installLocked(name, existing.shape.WithBindings(bindings)), nil
}

func (r *Registry) installLocked(name string, shape convention.Shape) *Handle {
	if existing, ok := r.types[name]; ok && existing.shape.Owner != "" && existing.shape.Owner != shape.Owner {
		delete(r.owners, existing.shape.Owner)
	}

	r.generation++
	shape.TypeName = name
	h := &Handle{
		name:        name,
		shape:       shape,
		generation:  r.generation,
		installedAt: r.now(),
	}

	r.types[name] = h
	if shape.Owner != "" {
		r.owners[shape.Owner] = name
	}

	return h
}

func (r *Registry) removeLocked(name string) bool {
	h, ok := r.types[name]
	if !ok {
		return false
	}

	if owner := h.shape.Owner; owner != "" && r.owners[owner] == name {
		delete(r.owners, owner)
	}
	delete(r.types, name)

	return true
}

// ConflictError reports a name held by another type.
type ConflictError struct {
	Name      string
	Holder    string
	Requester string
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	holder := e.Holder
	if holder == "" {
		holder = "a static type"
	} else {
		holder = "descriptor " + holder
	}
	return fmt.Sprintf("type name %q already bound to %s", e.Name, holder)
}

// Is reports whether target is ErrNameAlreadyBound.
func (e *ConflictError) Is(target error) bool {
	return target == ErrNameAlreadyBound
}
