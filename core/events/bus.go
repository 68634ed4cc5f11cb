// Package events provides the in-process event bus. The runtime publishes
// type lifecycle events on it, and callback bindings publish the handler
// events their descriptors name.
package events

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Type lifecycle events published by the runtime.
const (
	TypeInstalled = "type.installed"
	TypeReplaced  = "type.replaced"
	TypeRetired   = "type.retired"
	TypeAttached  = "type.attached"
	TypeFailed    = "type.failed"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "type.installed", "user.registered").
	Name string

	// Type is the runtime type the event concerns.
	Type string

	// Element is the id of the declaring descriptor.
	Element string

	// Phase is the lifecycle point that fired a callback event (e.g., "after_create").
	Phase string

	// Data contains the event payload (typically the record data).
	Data map[string]any
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event.
// Supports wildcard subscriptions:
//   - "type.installed" - exact match
//   - "type.*" - all events with the "type." prefix
//   - "*" - all events
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish calls every matching handler in registration order: exact
// subscribers, then prefix wildcards, then "*". All handlers run; their
// errors are logged and returned joined.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Str("type", event.Type).
		Str("element_id", event.Element).
		Int("handlers", len(matched)).
		Msg("event emitted")

	var errs []error
	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// HasSubscribers checks if any handlers are registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	return len(b.match(event)) > 0
}

// match copies the handlers for an event so they run without the lock held.
func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)

	if i := strings.Index(name, "."); i > 0 {
		matched = append(matched, b.handlers[name[:i]+".*"]...)
	}

	if name != "*" {
		matched = append(matched, b.handlers["*"]...)
	}

	return matched
}
