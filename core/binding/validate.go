package binding

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Values gives validators read access to a record.
type Values interface {
	Get(name string) (any, bool)
}

// UniquenessChecker is implemented by records that can check a value
// against the other instances of their type.
type UniquenessChecker interface {
	IsUnique(ctx context.Context, attribute string, value any) (bool, error)
}

// FieldError is a single validation failure.
type FieldError struct {
	Attribute string `json:"attribute"`
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
}

// Error returns "attribute message".
func (e FieldError) Error() string {
	return e.Attribute + " " + e.Message
}

type checker func(ctx context.Context, v Values, attr string, value any, present bool) (string, error)

// Check runs a validator binding against a record. Callback bindings never fail.
func (b Binding) Check(ctx context.Context, v Values) ([]FieldError, error) {
	if b.Class != ClassValidator || b.check == nil {
		return nil, nil
	}

	allowNil := optBool(b.Target.Options, "allow_nil")
	allowBlank := optBool(b.Target.Options, "allow_blank")
	custom, hasCustom := optString(b.Target.Options, "message")

	var errs []FieldError
	for _, attr := range b.Target.Attributes {
		value, present := v.Get(attr)
		if allowNil && (!present || value == nil) {
			continue
		}
		if allowBlank && isBlank(value) {
			continue
		}
		msg, err := b.check(ctx, v, attr, value, present)
		if err != nil {
			return errs, fmt.Errorf("%s on %s: %w", b.Kind, attr, err)
		}
		if msg == "" {
			continue
		}
		if hasCustom {
			msg = custom
		}
		errs = append(errs, FieldError{Attribute: attr, Kind: b.Kind, Message: msg})
	}
	return errs, nil
}

// Validate runs every validator binding against a record.
func Validate(ctx context.Context, bindings []Binding, v Values) ([]FieldError, error) {
	var all []FieldError
	for _, b := range bindings {
		errs, err := b.Check(ctx, v)
		all = append(all, errs...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func compileValidator(kind Kind, params any) (Binding, error) {
	target, err := parseTarget(params)
	if err != nil {
		return Binding{}, err
	}

	b := Binding{Kind: kind, Class: ClassValidator, Target: target}

	switch kind {
	case ValidatesPresenceOf:
		b.check = checkPresence
	case ValidatesAbsenceOf:
		b.check = checkAbsence
	case ValidatesLengthOf:
		b.check, err = lengthChecker(target.Options)
	case ValidatesFormatOf:
		b.check, err = formatChecker(target.Options)
	case ValidatesNumericalityOf:
		b.check, err = numericalityChecker(target.Options)
	case ValidatesInclusionOf:
		b.check, err = membershipChecker(target.Options, true)
	case ValidatesExclusionOf:
		b.check, err = membershipChecker(target.Options, false)
	case ValidatesAcceptanceOf:
		b.check, err = acceptanceChecker(target.Options)
	case ValidatesConfirmationOf:
		b.check = checkConfirmation
	case ValidatesUniquenessOf:
		b.check = checkUniqueness
	default:
		err = fmt.Errorf("no checker for %s", kind)
	}
	if err != nil {
		return Binding{}, err
	}
	return b, nil
}

func checkPresence(_ context.Context, _ Values, _ string, value any, present bool) (string, error) {
	if !present || isBlank(value) {
		return "can't be blank", nil
	}
	return "", nil
}

func checkAbsence(_ context.Context, _ Values, _ string, value any, present bool) (string, error) {
	if present && !isBlank(value) {
		return "must be blank", nil
	}
	return "", nil
}

func lengthChecker(opts map[string]any) (checker, error) {
	minimum, hasMin, err := optNumber(opts, "minimum")
	if err != nil {
		return nil, err
	}
	maximum, hasMax, err := optNumber(opts, "maximum")
	if err != nil {
		return nil, err
	}
	is, hasIs, err := optNumber(opts, "is")
	if err != nil {
		return nil, err
	}
	if in, ok, err := optList(opts, "in"); err != nil {
		return nil, err
	} else if ok {
		if len(in) != 2 {
			return nil, fmt.Errorf("option in must be [minimum, maximum]")
		}
		lo, ok1 := toFloat(in[0])
		hi, ok2 := toFloat(in[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("option in must hold numbers")
		}
		minimum, maximum, hasMin, hasMax = lo, hi, true, true
	}
	if !hasMin && !hasMax && !hasIs {
		return nil, fmt.Errorf("one of minimum, maximum, is or in is required")
	}

	return func(_ context.Context, _ Values, _ string, value any, _ bool) (string, error) {
		n := float64(lengthOf(value))
		switch {
		case hasIs && n != is:
			return fmt.Sprintf("is the wrong length (should be %d characters)", int(is)), nil
		case hasMin && n < minimum:
			return fmt.Sprintf("is too short (minimum is %d characters)", int(minimum)), nil
		case hasMax && n > maximum:
			return fmt.Sprintf("is too long (maximum is %d characters)", int(maximum)), nil
		}
		return "", nil
	}, nil
}

func formatChecker(opts map[string]any) (checker, error) {
	pattern, with := optString(opts, "with")
	if !with {
		pattern, _ = optString(opts, "without")
	}
	if pattern == "" {
		return nil, fmt.Errorf("option with or without is required")
	}
	re, err := regexp.Compile(stringAnchors.Replace(pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	return func(_ context.Context, _ Values, _ string, value any, _ bool) (string, error) {
		s := fmt.Sprint(valueOrEmpty(value))
		if re.MatchString(s) != with {
			return "is invalid", nil
		}
		return "", nil
	}, nil
}

// stringAnchors maps the \A and \z string anchors to RE2 line anchors.
var stringAnchors = strings.NewReplacer(`\A`, `^`, `\z`, `$`, `\Z`, `$`)

func numericalityChecker(opts map[string]any) (checker, error) {
	type bound struct {
		name string
		cmp  func(a, b float64) bool
		msg  string
	}
	bounds := []bound{
		{"greater_than", func(a, b float64) bool { return a > b }, "must be greater than %v"},
		{"greater_than_or_equal_to", func(a, b float64) bool { return a >= b }, "must be greater than or equal to %v"},
		{"equal_to", func(a, b float64) bool { return a == b }, "must be equal to %v"},
		{"less_than", func(a, b float64) bool { return a < b }, "must be less than %v"},
		{"less_than_or_equal_to", func(a, b float64) bool { return a <= b }, "must be less than or equal to %v"},
	}

	type limit struct {
		bound
		value float64
	}
	var limits []limit
	for _, b := range bounds {
		v, ok, err := optNumber(opts, b.name)
		if err != nil {
			return nil, err
		}
		if ok {
			limits = append(limits, limit{b, v})
		}
	}
	onlyInteger := optBool(opts, "only_integer")

	return func(_ context.Context, _ Values, _ string, value any, _ bool) (string, error) {
		n, ok := toFloat(value)
		if !ok {
			return "is not a number", nil
		}
		if onlyInteger && n != math.Trunc(n) {
			return "must be an integer", nil
		}
		for _, l := range limits {
			if !l.cmp(n, l.value) {
				return fmt.Sprintf(l.msg, l.value), nil
			}
		}
		return "", nil
	}, nil
}

func membershipChecker(opts map[string]any, include bool) (checker, error) {
	list, ok, err := optList(opts, "in")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("option in is required")
	}

	return func(_ context.Context, _ Values, _ string, value any, _ bool) (string, error) {
		found := false
		for _, e := range list {
			if sameValue(e, value) {
				found = true
				break
			}
		}
		switch {
		case include && !found:
			return "is not included in the list", nil
		case !include && found:
			return "is reserved", nil
		}
		return "", nil
	}, nil
}

func acceptanceChecker(opts map[string]any) (checker, error) {
	accept := []any{"1", "true", "yes", true, 1}
	if l, ok, err := optList(opts, "accept"); err != nil {
		return nil, err
	} else if ok {
		accept = l
	}

	return func(_ context.Context, _ Values, _ string, value any, present bool) (string, error) {
		if !present || value == nil {
			return "", nil
		}
		for _, a := range accept {
			if sameValue(a, value) {
				return "", nil
			}
		}
		return "must be accepted", nil
	}, nil
}

func checkConfirmation(_ context.Context, v Values, attr string, value any, _ bool) (string, error) {
	confirmation, ok := v.Get(attr + "_confirmation")
	if !ok || confirmation == nil {
		return "", nil
	}
	if !sameValue(confirmation, value) {
		return "doesn't match confirmation", nil
	}
	return "", nil
}

func checkUniqueness(ctx context.Context, v Values, attr string, value any, present bool) (string, error) {
	u, ok := v.(UniquenessChecker)
	if !ok || !present || value == nil {
		return "", nil
	}
	unique, err := u.IsUnique(ctx, attr, value)
	if err != nil {
		return "", err
	}
	if !unique {
		return "has already been taken", nil
	}
	return "", nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func lengthOf(v any) int {
	if v == nil {
		return 0
	}
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return utf8.RuneCountInString(fmt.Sprint(v))
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// sameValue compares loosely: numbers by value, everything else by its
// printed form, so "1" from a form matches 1 from a declaration.
func sameValue(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
