// Package runtime compiles stored descriptors into live runtime types.
// It persists descriptors, derives their shapes, installs them in the
// registry and retires them on delete.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/convention"
	"github.com/artpar/typeforge/core/events"
	"github.com/artpar/typeforge/core/i18n"
	"github.com/artpar/typeforge/core/registry"
	"github.com/artpar/typeforge/core/schema"
	"github.com/artpar/typeforge/core/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the registration state of a descriptor.
type State int

const (
	Unregistered State = iota
	Registered
)

// String returns the state name.
func (s State) String() string {
	if s == Registered {
		return "registered"
	}
	return "unregistered"
}

// Install kinds reported to Metrics.
const (
	installNew      = "installed"
	installReplaced = "replaced"
	installAttached = "attached"
)

// Compilation results reported to Metrics.
const (
	resultOK      = "ok"
	resultInvalid = "invalid"
	resultFailed  = "failed"
)

// Metrics receives runtime measurements.
type Metrics interface {
	ObserveCompile(result string, elapsed time.Duration)
	TypeInstalled(kind string)
	TypeRetired()
	SetLiveTypes(n int)
	AtomSaved(typeName, result string)
}

// Runtime is the compilation orchestrator.
type Runtime struct {
	// registry holds the live runtime types
	registry *registry.Registry

	// store persists descriptors
	store storage.ElementStore

	// atoms persists records of runtime types (optional)
	atoms storage.AtomStore

	// translations receives descriptor translations
	translations i18n.Store

	// events bus for lifecycle notifications and callback handlers
	events *events.Bus

	// functions registered as callback handlers
	functions *FunctionRegistry

	metrics Metrics
	logger  zerolog.Logger

	// locks serializes saves and deletes per descriptor id
	locks *keyedMutex

	// statics maps the ids of static descriptors to the type they attach to
	mu      sync.RWMutex
	statics map[string]string

	config Config
}

// Config configures the runtime.
type Config struct {
	// Atoms persists records. Instance helpers fail without it.
	Atoms storage.AtomStore

	// Translations receives descriptor translations. Defaults to an
	// in-memory store.
	Translations i18n.Store

	// DefaultLocale is the locale of unscoped translations and records.
	DefaultLocale string

	// Locales are the other locales translation keys may be scoped to.
	Locales []string

	// Events is the event bus (optional).
	Events *events.Bus

	// Metrics collector (optional).
	Metrics Metrics

	// Logger for the runtime.
	Logger zerolog.Logger
}

// New creates a runtime over a descriptor store.
func New(store storage.ElementStore, config Config) (*Runtime, error) {
	if config.DefaultLocale == "" {
		config.DefaultLocale = atom.DefaultLocale
	}
	if config.Translations == nil {
		mem, err := i18n.NewMemory(config.DefaultLocale)
		if err != nil {
			return nil, err
		}
		config.Translations = mem
	}
	if config.Events == nil {
		config.Events = events.NewBus(config.Logger)
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}

	return &Runtime{
		registry:     registry.New(),
		store:        store,
		atoms:        config.Atoms,
		translations: config.Translations,
		events:       config.Events,
		functions:    NewFunctionRegistry(),
		metrics:      config.Metrics,
		logger:       config.Logger,
		locks:        newKeyedMutex(),
		statics:      make(map[string]string),
		config:       config,
	}, nil
}

// Registry returns the type registry.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Events returns the event bus.
func (r *Runtime) Events() *events.Bus {
	return r.events
}

// Functions returns the callback function registry.
func (r *Runtime) Functions() *FunctionRegistry {
	return r.functions
}

// Translations returns the translation store.
func (r *Runtime) Translations() i18n.Store {
	return r.translations
}

// SaveDescriptor normalizes, validates and persists d, then compiles it
// when its shape changed or it has no live type. Saves of the same
// descriptor are serialized.
//
// An invalid descriptor is not persisted. A descriptor whose bindings fail
// to compile is persisted, but the registry is left unchanged and a
// *CompileError is returned.
func (r *Runtime) SaveDescriptor(ctx context.Context, d *schema.Descriptor) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	unlock := r.locks.Lock(d.ID)
	defer unlock()

	prev, err := r.store.Get(ctx, d.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load descriptor %s: %w", d.ID, err)
	}

	convention.Normalize(d, prev)
	if err := schema.Validate(d); err != nil {
		r.metrics.ObserveCompile(resultInvalid, 0)
		return err
	}

	if err := r.store.Save(ctx, d); err != nil {
		return fmt.Errorf("persist descriptor %s: %w", d.ID, err)
	}

	if d.IsStatic() {
		return r.attachStatic(ctx, d)
	}

	if !d.Redefine && r.isCurrent(d) {
		r.logger.Debug().
			Str("element_id", d.ID).
			Str("type", d.Name).
			Msg("descriptor unchanged, type already live")
		return nil
	}

	return r.compile(ctx, d)
}

// isCurrent reports whether the live type of d is bound to d.Name and
// compiled from the fingerprint d carries now. A save that failed to
// compile is persisted, so an unchanged re-save must still compile.
func (r *Runtime) isCurrent(d *schema.Descriptor) bool {
	name, ok := r.registry.NameOf(d.ID)
	if !ok || name != d.Name {
		return false
	}
	h, ok := r.registry.Get(name)
	return ok && h.Shape().Fingerprint == d.Fingerprint()
}

// Recompile forces compilation of the stored descriptor id.
func (r *Runtime) Recompile(ctx context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	return r.recompileLocked(ctx, id)
}

func (r *Runtime) recompileLocked(ctx context.Context, id string) error {
	d, err := r.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load descriptor %s: %w", id, err)
	}

	convention.Normalize(d, nil)
	if err := schema.Validate(d); err != nil {
		r.metrics.ObserveCompile(resultInvalid, 0)
		return err
	}

	if d.IsStatic() {
		return r.attachStatic(ctx, d)
	}
	return r.compile(ctx, d)
}

// Boot compiles every stored descriptor. Failures are logged and counted;
// the number of descriptors that compiled is returned.
func (r *Runtime) Boot(ctx context.Context) (int, error) {
	list, err := r.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list descriptors: %w", err)
	}

	compiled := 0
	for _, d := range list {
		if err := ctx.Err(); err != nil {
			return compiled, err
		}

		unlock := r.locks.Lock(d.ID)
		err := r.recompileLocked(ctx, d.ID)
		unlock()

		if err != nil {
			r.logger.Error().
				Err(err).
				Str("element_id", d.ID).
				Str("type", d.Name).
				Msg("failed to compile descriptor at boot")
			continue
		}
		compiled++
	}

	r.logger.Info().
		Int("descriptors", len(list)).
		Int("compiled", compiled).
		Int("types", r.registry.Len()).
		Msg("runtime booted")

	return compiled, nil
}

// compile builds the shape of d and installs it under d.Name, retiring the
// name d was previously bound to.
func (r *Runtime) compile(ctx context.Context, d *schema.Descriptor) error {
	start := time.Now()

	bindings, err := binding.Compile(d.Validations, d.Callbacks)
	if err != nil {
		return r.compileFailed(ctx, d, err)
	}

	shape := convention.Derive(d, bindings)

	oldName, _ := r.registry.NameOf(d.ID)
	if _, err := r.registry.Replace(oldName, d.Name, shape); err != nil {
		return r.compileFailed(ctx, d, err)
	}

	// A descriptor that used to attach to a static type lets it go.
	r.mu.Lock()
	staticName, attached := r.statics[d.ID]
	delete(r.statics, d.ID)
	r.mu.Unlock()
	if attached {
		r.detachStatic(staticName)
	}

	i18n.Ingest(r.translations, r.config.DefaultLocale, r.config.Locales, d.Translations)
	d.Redefine = false

	kind, eventName := installNew, events.TypeInstalled
	if oldName != "" {
		kind, eventName = installReplaced, events.TypeReplaced
	}

	r.metrics.ObserveCompile(resultOK, time.Since(start))
	r.metrics.TypeInstalled(kind)
	if oldName != "" && oldName != d.Name {
		r.metrics.TypeRetired()
	}
	r.metrics.SetLiveTypes(r.registry.Len())

	ev := r.logger.Info().
		Str("element_id", d.ID).
		Str("type", d.Name).
		Int("fields", len(shape.Fields)).
		Int("bindings", len(bindings))
	if oldName != "" && oldName != d.Name {
		ev = ev.Str("old_type", oldName)
	}
	ev.Msg("type " + kind)

	r.events.Publish(ctx, events.Event{
		Name:    eventName,
		Type:    d.Name,
		Element: d.ID,
		Data:    map[string]any{"old_type": oldName, "group": d.Group},
	})

	return nil
}

// attachStatic attaches the bindings of a static descriptor to the
// existing type named d.Name.
func (r *Runtime) attachStatic(ctx context.Context, d *schema.Descriptor) error {
	bindings, err := binding.Compile(d.Validations, d.Callbacks)
	if err != nil {
		return r.compileFailed(ctx, d, err)
	}

	h, ok := r.registry.Get(d.Name)
	if !ok || !h.Shape().Static {
		return r.compileFailed(ctx, d, fmt.Errorf("%w: %s", ErrStaticTypeMissing, d.Name))
	}

	// A descriptor that used to synthesize a type gives it up.
	if oldName, ok := r.registry.NameOf(d.ID); ok {
		r.registry.Remove(oldName)
		r.metrics.TypeRetired()
	}

	r.mu.Lock()
	prevStatic, hadStatic := r.statics[d.ID]
	r.statics[d.ID] = d.Name
	r.mu.Unlock()

	if hadStatic && prevStatic != d.Name {
		r.detachStatic(prevStatic)
	}

	if _, err := r.registry.Attach(d.Name, bindings); err != nil {
		return r.compileFailed(ctx, d, err)
	}

	i18n.Ingest(r.translations, r.config.DefaultLocale, r.config.Locales, d.Translations)
	d.Redefine = false

	r.metrics.ObserveCompile(resultOK, 0)
	r.metrics.TypeInstalled(installAttached)
	r.metrics.SetLiveTypes(r.registry.Len())

	r.logger.Info().
		Str("element_id", d.ID).
		Str("type", d.Name).
		Int("bindings", len(bindings)).
		Msg("bindings attached to static type")

	r.events.Publish(ctx, events.Event{
		Name:    events.TypeAttached,
		Type:    d.Name,
		Element: d.ID,
	})

	return nil
}

func (r *Runtime) detachStatic(name string) {
	if _, err := r.registry.Attach(name, nil); err != nil {
		r.logger.Debug().Err(err).Str("type", name).Msg("static type already gone")
	}
}

func (r *Runtime) compileFailed(ctx context.Context, d *schema.Descriptor, err error) error {
	r.metrics.ObserveCompile(resultFailed, 0)

	r.logger.Warn().
		Err(err).
		Str("element_id", d.ID).
		Str("type", d.Name).
		Msg("descriptor compilation failed, registry unchanged")

	r.events.Publish(ctx, events.Event{
		Name:    events.TypeFailed,
		Type:    d.Name,
		Element: d.ID,
		Data:    map[string]any{"error": err.Error()},
	})

	return &CompileError{Element: d.ID, Name: d.Name, Err: err}
}

// DeleteDescriptor removes d from the store and retires its type. The
// bound name is captured before the record is removed; a descriptor with
// no live type is removed without error.
func (r *Runtime) DeleteDescriptor(ctx context.Context, d *schema.Descriptor) error {
	if d.ID == "" {
		return errors.New("descriptor has no id")
	}

	unlock := r.locks.Lock(d.ID)
	defer unlock()

	name, bound := r.registry.NameOf(d.ID)

	r.mu.RLock()
	staticName, attached := r.statics[d.ID]
	r.mu.RUnlock()

	if err := r.store.Delete(ctx, d.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete descriptor %s: %w", d.ID, err)
	}

	if attached {
		r.mu.Lock()
		delete(r.statics, d.ID)
		r.mu.Unlock()
		r.detachStatic(staticName)
	}

	if !bound {
		r.logger.Debug().
			Str("element_id", d.ID).
			Str("type", d.Name).
			Msg("descriptor deleted, no live type to retire")
		return nil
	}

	if r.registry.Remove(name) {
		r.metrics.TypeRetired()
		r.metrics.SetLiveTypes(r.registry.Len())

		r.logger.Info().
			Str("element_id", d.ID).
			Str("type", name).
			Msg("type retired")

		r.events.Publish(ctx, events.Event{
			Name:    events.TypeRetired,
			Type:    name,
			Element: d.ID,
		})
	}

	return nil
}

// RegisterStatic declares an externally supplied type that static
// descriptors can attach bindings to.
func (r *Runtime) RegisterStatic(name string, fields ...string) error {
	if _, err := r.registry.Install(name, convention.StaticShape(name, fields...), false); err != nil {
		return err
	}
	r.metrics.SetLiveTypes(r.registry.Len())
	return nil
}

// Projection returns the attribute names of d selected by kind.
func (r *Runtime) Projection(d *schema.Descriptor, kind schema.ProjectionKind) ([]string, error) {
	return d.Projection(kind)
}

// IsTypeLive reports whether a runtime type is registered under name.
func (r *Runtime) IsTypeLive(name string) bool {
	return r.registry.IsRegistered(name)
}

// State returns the registration state of descriptor id.
func (r *Runtime) State(id string) State {
	if _, ok := r.registry.NameOf(id); ok {
		return Registered
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.statics[id]; ok {
		return Registered
	}
	return Unregistered
}

// Type returns the live runtime type named name.
func (r *Runtime) Type(name string) (*atom.Type, bool) {
	h, ok := r.registry.Get(name)
	if !ok {
		return nil, false
	}

	return atom.NewType(h.Shape(), r.config.DefaultLocale, r.atoms), true
}

// Descriptor returns the stored descriptor id.
func (r *Runtime) Descriptor(ctx context.Context, id string) (*schema.Descriptor, error) {
	return r.store.Get(ctx, id)
}

// Describe renders the stored descriptor id with its record count. Keys
// are kept when listed in only (if non-empty) and not listed in except.
func (r *Runtime) Describe(ctx context.Context, id string, only, except []string) (schema.Pairs[any], error) {
	d, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	count := 0
	if r.atoms != nil {
		count, err = r.atoms.Count(ctx, atom.Scope{Field: convention.ScopeField, Value: d.ID})
		if err != nil {
			return nil, err
		}
	}

	settings := d.Settings()
	view := schema.Pairs[any]{
		{Key: "id", Value: d.ID},
		{Key: "created_at", Value: d.CreatedAt},
		{Key: "updated_at", Value: d.UpdatedAt},
		{Key: "atoms_count", Value: count},
		{Key: "name", Value: d.Name},
		{Key: "group", Value: d.Group},
		{Key: "primary_key", Value: d.PrimaryKey},
		{Key: "attributes", Value: d.Attributes()},
		{Key: "validations", Value: d.Validations},
		{Key: "callbacks", Value: d.Callbacks},
		{Key: "translations", Value: d.Translations},
		{Key: "settings", Value: settings},
		{Key: "state", Value: r.State(d.ID).String()},
	}

	out := view[:0:0]
	for _, p := range view {
		if len(only) > 0 && !contains(only, p.Key) {
			continue
		}
		if contains(except, p.Key) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type nopMetrics struct{}

func (nopMetrics) ObserveCompile(string, time.Duration) {}
func (nopMetrics) TypeInstalled(string)                 {}
func (nopMetrics) TypeRetired()                         {}
func (nopMetrics) SetLiveTypes(int)                     {}
func (nopMetrics) AtomSaved(string, string)             {}
