package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrStaticTypeMissing is returned when a static descriptor names a type
	// that was never registered with RegisterStatic.
	ErrStaticTypeMissing = errors.New("static type not registered")

	// ErrTypeNotLive is returned by instance helpers for unknown type names.
	ErrTypeNotLive = errors.New("type not live")

	// ErrStaticInstances is returned by instance helpers for static types,
	// whose records are kept by their owner.
	ErrStaticInstances = errors.New("static types keep their own records")

	// ErrNoAtomStore is returned by instance helpers when the runtime has no
	// record store.
	ErrNoAtomStore = errors.New("no atom store configured")

	// ErrRecordInvalid is matched by *RecordInvalidError.
	ErrRecordInvalid = errors.New("record invalid")

	// ErrCallbackFailed wraps errors returned by callback handlers.
	ErrCallbackFailed = errors.New("callback failed")
)

// CompileError reports a descriptor that was persisted but could not be
// compiled. The registry is unchanged.
type CompileError struct {
	Element string
	Name    string
	Err     error
}

// Error returns the compile error message.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s (%s): %v", e.Name, e.Element, e.Err)
}

// Unwrap returns the cause, such as binding.ErrUnknownBindingKind or
// registry.ErrNameAlreadyBound.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// RecordInvalidError lists the validation failures of a record.
type RecordInvalidError struct {
	Type   string
	Errors []FieldError
}

// Error returns the validation error message.
func (e *RecordInvalidError) Error() string {
	msg := e.Type + " invalid:"
	for i, fe := range e.Errors {
		if i > 0 {
			msg += ","
		}
		msg += " " + fe.Error()
	}
	return msg
}

// Is reports whether target is ErrRecordInvalid.
func (e *RecordInvalidError) Is(target error) bool {
	return target == ErrRecordInvalid
}
