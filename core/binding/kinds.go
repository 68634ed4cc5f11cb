package binding

// Kind names a validator or a lifecycle event.
type Kind string

// Class separates validator bindings from callback bindings.
type Class int

const (
	ClassValidator Class = iota + 1
	ClassCallback
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassValidator:
		return "validator"
	case ClassCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Validator kinds.
const (
	ValidatesPresenceOf     Kind = "validates_presence_of"
	ValidatesAbsenceOf      Kind = "validates_absence_of"
	ValidatesLengthOf       Kind = "validates_length_of"
	ValidatesFormatOf       Kind = "validates_format_of"
	ValidatesNumericalityOf Kind = "validates_numericality_of"
	ValidatesInclusionOf    Kind = "validates_inclusion_of"
	ValidatesExclusionOf    Kind = "validates_exclusion_of"
	ValidatesAcceptanceOf   Kind = "validates_acceptance_of"
	ValidatesConfirmationOf Kind = "validates_confirmation_of"
	ValidatesUniquenessOf   Kind = "validates_uniqueness_of"
)

// Lifecycle events.
const (
	BeforeValidation Kind = "before_validation"
	AfterValidation  Kind = "after_validation"
	BeforeSave       Kind = "before_save"
	AfterSave        Kind = "after_save"
	BeforeCreate     Kind = "before_create"
	AfterCreate      Kind = "after_create"
	BeforeUpdate     Kind = "before_update"
	AfterUpdate      Kind = "after_update"
	BeforeDestroy    Kind = "before_destroy"
	AfterDestroy     Kind = "after_destroy"
	AfterInitialize  Kind = "after_initialize"
	AfterCommit      Kind = "after_commit"
)

var validatorKinds = map[Kind]bool{
	ValidatesPresenceOf:     true,
	ValidatesAbsenceOf:      true,
	ValidatesLengthOf:       true,
	ValidatesFormatOf:       true,
	ValidatesNumericalityOf: true,
	ValidatesInclusionOf:    true,
	ValidatesExclusionOf:    true,
	ValidatesAcceptanceOf:   true,
	ValidatesConfirmationOf: true,
	ValidatesUniquenessOf:   true,
}

var lifecycleEvents = map[Kind]bool{
	BeforeValidation: true,
	AfterValidation:  true,
	BeforeSave:       true,
	AfterSave:        true,
	BeforeCreate:     true,
	AfterCreate:      true,
	BeforeUpdate:     true,
	AfterUpdate:      true,
	BeforeDestroy:    true,
	AfterDestroy:     true,
	AfterInitialize:  true,
	AfterCommit:      true,
}

// IsValidator reports whether k is a recognised validator kind.
func IsValidator(k Kind) bool {
	return validatorKinds[k]
}

// IsLifecycleEvent reports whether k is a recognised lifecycle event.
func IsLifecycleEvent(k Kind) bool {
	return lifecycleEvents[k]
}
