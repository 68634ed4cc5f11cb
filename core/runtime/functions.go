package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/binding"
)

// Handler runs a callback handler named by a descriptor.
type Handler func(ctx context.Context, event CallbackEvent) error

// CallbackEvent is passed to callback handlers.
type CallbackEvent struct {
	// Type is the runtime type of the record.
	Type string

	// Element is the id of the declaring descriptor.
	Element string

	// Phase is the lifecycle point that fired the callback.
	Phase binding.Kind

	// Record is the record going through the lifecycle. Handlers may
	// modify it in before_* phases.
	Record *atom.Record
}

// FunctionRegistry manages named callback handlers.
// A callback naming a registered function calls it; any other name is
// published as an event on the bus.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Handler
}

// NewFunctionRegistry creates a new function registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		funcs: make(map[string]Handler),
	}
}

// Register adds a function to the registry.
func (r *FunctionRegistry) Register(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Call invokes a registered function by name.
// Returns an error if the function is not found.
func (r *FunctionRegistry) Call(ctx context.Context, name string, event CallbackEvent) error {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("function %q not registered", name)
	}

	return fn(ctx, event)
}

// Has checks if a function is registered.
func (r *FunctionRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// List returns all registered function names, sorted.
func (r *FunctionRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
