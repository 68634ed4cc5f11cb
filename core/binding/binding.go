// Package binding compiles the validation and callback declarations of a
// descriptor into bindings that can be attached to a runtime type.
//
// A binding is inert data until the runtime attaches it: validator bindings
// check record values, callback bindings name the events to publish at a
// lifecycle point.
package binding

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/typeforge/core/schema"
)

var (
	// ErrUnknownBindingKind is matched when a declaration key is neither a
	// validator nor a lifecycle event.
	ErrUnknownBindingKind = errors.New("unknown binding kind")

	// ErrInvalidBindingParams is matched when a declaration's parameters
	// cannot be compiled.
	ErrInvalidBindingParams = errors.New("invalid binding parameters")
)

// UnknownKindError lists every unrecognised declaration key.
type UnknownKindError struct {
	Keys []string
}

// Error returns the error message.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown binding kind: %s", strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrUnknownBindingKind.
func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownBindingKind
}

// ParamsError reports parameters of a known kind that failed to compile.
type ParamsError struct {
	Kind Kind
	Err  error
}

// Error returns the error message.
func (e *ParamsError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParamsError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidBindingParams.
func (e *ParamsError) Is(target error) bool {
	return target == ErrInvalidBindingParams
}

// Binding is a compiled (kind, target) pair.
type Binding struct {
	Kind   Kind
	Class  Class
	Target Target

	check checker
}

// Target is what a binding applies to.
type Target struct {
	// Attributes checked by a validator.
	Attributes []string

	// Options of a validator (maximum, with, in, message, ...).
	Options map[string]any

	// Handlers are the events a callback publishes.
	Handlers []string
}

// String returns a short description of the binding.
func (b Binding) String() string {
	if b.Class == ClassCallback {
		return fmt.Sprintf("%s -> %s", b.Kind, strings.Join(b.Target.Handlers, ","))
	}
	return fmt.Sprintf("%s %s", b.Kind, strings.Join(b.Target.Attributes, ","))
}

// Compile turns validation and callback declarations into bindings.
// Validations come first, then callbacks, each in declaration order.
// Every unknown key is reported; on failure no bindings are returned.
func Compile(validations, callbacks schema.Rules) ([]Binding, error) {
	var (
		bindings []Binding
		unknown  []string
		errs     []error
	)

	for _, rule := range validations {
		kind := Kind(rule.Key)
		if !IsValidator(kind) {
			unknown = append(unknown, rule.Key)
			continue
		}
		b, err := compileValidator(kind, rule.Value)
		if err != nil {
			errs = append(errs, &ParamsError{Kind: kind, Err: err})
			continue
		}
		bindings = append(bindings, b)
	}

	for _, rule := range callbacks {
		kind := Kind(rule.Key)
		if !IsLifecycleEvent(kind) {
			unknown = append(unknown, rule.Key)
			continue
		}
		handlers, err := parseHandlers(rule.Value)
		if err != nil {
			errs = append(errs, &ParamsError{Kind: kind, Err: err})
			continue
		}
		bindings = append(bindings, Binding{
			Kind:   kind,
			Class:  ClassCallback,
			Target: Target{Handlers: handlers},
		})
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append([]error{&UnknownKindError{Keys: unknown}}, errs...)
	}

	switch len(errs) {
	case 0:
		return bindings, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, errors.Join(errs...)
	}
}

// Validators returns the validator bindings of a list.
func Validators(bindings []Binding) []Binding {
	return filter(bindings, func(b Binding) bool { return b.Class == ClassValidator })
}

// Callbacks returns the callback bindings registered for an event.
func Callbacks(bindings []Binding, event Kind) []Binding {
	return filter(bindings, func(b Binding) bool { return b.Class == ClassCallback && b.Kind == event })
}

func filter(bindings []Binding, keep func(Binding) bool) []Binding {
	var out []Binding
	for _, b := range bindings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func parseHandlers(params any) ([]string, error) {
	switch v := params.(type) {
	case string:
		handlers := schema.SplitNames(v)
		if len(handlers) == 0 {
			return nil, errors.New("handler reference is empty")
		}
		return handlers, nil
	case []any:
		handlers := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("handler reference %v is not a name", e)
			}
			handlers = append(handlers, strings.TrimPrefix(strings.TrimSpace(s), ":"))
		}
		if len(handlers) == 0 {
			return nil, errors.New("handler reference is empty")
		}
		return handlers, nil
	default:
		return nil, fmt.Errorf("handler reference must be a name or a list of names, got %T", params)
	}
}
