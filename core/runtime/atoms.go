package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/events"
)

// FieldError is a single validation failure of a record.
type FieldError = binding.FieldError

// NewAtom creates a record of the live type name and fires its
// after_initialize callbacks.
func (r *Runtime) NewAtom(ctx context.Context, name string, values map[string]any) (*atom.Record, error) {
	typ, err := r.instanceType(name)
	if err != nil {
		return nil, err
	}

	rec, err := typ.New(values)
	if err != nil {
		return nil, err
	}

	if err := r.fire(ctx, typ, rec, binding.AfterInitialize); err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveAtom validates and persists a record, firing the lifecycle
// callbacks of its type. A before_* handler error aborts the save.
func (r *Runtime) SaveAtom(ctx context.Context, rec *atom.Record) error {
	typ := rec.Type()
	if typ == nil {
		return atom.ErrNoType
	}
	if r.atoms == nil {
		return ErrNoAtomStore
	}

	err := r.saveAtom(ctx, typ, rec)

	result := resultOK
	switch {
	case errors.Is(err, ErrRecordInvalid):
		result = resultInvalid
	case err != nil:
		result = resultFailed
	}
	r.metrics.AtomSaved(typ.Name(), result)

	return err
}

func (r *Runtime) saveAtom(ctx context.Context, typ *atom.Type, rec *atom.Record) error {
	creating := rec.CreatedAt.IsZero()

	if err := r.fire(ctx, typ, rec, binding.BeforeValidation); err != nil {
		return err
	}

	fieldErrors, err := binding.Validate(ctx, typ.Validators(), rec)
	if err != nil {
		return fmt.Errorf("validate %s: %w", typ.Name(), err)
	}
	if len(fieldErrors) > 0 {
		return &RecordInvalidError{Type: typ.Name(), Errors: fieldErrors}
	}

	if err := r.fire(ctx, typ, rec, binding.AfterValidation); err != nil {
		return err
	}

	before, after := binding.BeforeUpdate, binding.AfterUpdate
	if creating {
		before, after = binding.BeforeCreate, binding.AfterCreate
	}

	for _, phase := range []binding.Kind{binding.BeforeSave, before} {
		if err := r.fire(ctx, typ, rec, phase); err != nil {
			return err
		}
	}

	if err := r.atoms.Save(ctx, rec); err != nil {
		return fmt.Errorf("persist %s %s: %w", typ.Name(), rec.ID, err)
	}

	for _, phase := range []binding.Kind{after, binding.AfterSave, binding.AfterCommit} {
		if err := r.fire(ctx, typ, rec, phase); err != nil {
			return err
		}
	}

	return nil
}

// DestroyAtom deletes a record, firing the destroy callbacks of its type.
func (r *Runtime) DestroyAtom(ctx context.Context, rec *atom.Record) error {
	typ := rec.Type()
	if typ == nil {
		return atom.ErrNoType
	}
	if r.atoms == nil {
		return ErrNoAtomStore
	}

	if err := r.fire(ctx, typ, rec, binding.BeforeDestroy); err != nil {
		return err
	}
	if err := r.atoms.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete %s %s: %w", typ.Name(), rec.ID, err)
	}
	for _, phase := range []binding.Kind{binding.AfterDestroy, binding.AfterCommit} {
		if err := r.fire(ctx, typ, rec, phase); err != nil {
			return err
		}
	}
	return nil
}

// FindAtom loads the record id as an instance of the live type name.
func (r *Runtime) FindAtom(ctx context.Context, name, id string) (*atom.Record, error) {
	typ, err := r.instanceType(name)
	if err != nil {
		return nil, err
	}
	if r.atoms == nil {
		return nil, ErrNoAtomStore
	}

	rec, err := r.atoms.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err = typ.Adopt(rec)
	if err != nil {
		return nil, err
	}
	if err := r.fire(ctx, typ, rec, binding.AfterInitialize); err != nil {
		return nil, err
	}
	return rec, nil
}

// Atoms returns the records of the live type name, restricted to its
// default scope.
func (r *Runtime) Atoms(ctx context.Context, name string) ([]*atom.Record, error) {
	typ, err := r.instanceType(name)
	if err != nil {
		return nil, err
	}
	if r.atoms == nil {
		return nil, ErrNoAtomStore
	}

	list, err := r.atoms.List(ctx, typ.DefaultScope())
	if err != nil {
		return nil, err
	}
	for i, rec := range list {
		if list[i], err = typ.Adopt(rec); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *Runtime) instanceType(name string) (*atom.Type, error) {
	typ, ok := r.Type(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrTypeNotLive)
	}
	if typ.Shape().Static {
		return nil, fmt.Errorf("%s: %w", name, ErrStaticInstances)
	}
	return typ, nil
}

// fire runs the callbacks of typ bound to phase. Each handler name calls
// the registered function of that name, or is published on the event bus.
func (r *Runtime) fire(ctx context.Context, typ *atom.Type, rec *atom.Record, phase binding.Kind) error {
	for _, b := range typ.Callbacks(phase) {
		for _, handler := range b.Target.Handlers {
			var err error
			if r.functions.Has(handler) {
				err = r.functions.Call(ctx, handler, CallbackEvent{
					Type:    typ.Name(),
					Element: rec.ElementID,
					Phase:   phase,
					Record:  rec,
				})
			} else {
				data := rec.Persisted()
				data["id"] = rec.ID
				err = r.events.Publish(ctx, events.Event{
					Name:    handler,
					Type:    typ.Name(),
					Element: rec.ElementID,
					Phase:   string(phase),
					Data:    data,
				})
			}
			if err != nil {
				return fmt.Errorf("%w: %s %s: %w", ErrCallbackFailed, phase, handler, err)
			}
		}
	}
	return nil
}
