package registry

import (
	"time"

	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/convention"
)

// Handle is a live runtime type. Handles are immutable; recompiling or
// re-attaching bindings installs a new handle.
type Handle struct {
	name        string
	shape       convention.Shape
	generation  uint64
	installedAt time.Time
}

// Name returns the registry name.
func (h *Handle) Name() string { return h.name }

// Shape returns the compiled shape.
func (h *Handle) Shape() convention.Shape { return h.shape }

// Owner returns the id of the declaring descriptor, empty for static types.
func (h *Handle) Owner() string { return h.shape.Owner }

// Generation increases with every install in the registry.
func (h *Handle) Generation() uint64 { return h.generation }

// InstalledAt returns when the handle was installed.
func (h *Handle) InstalledAt() time.Time { return h.installedAt }

// Fields returns the persisted field names.
func (h *Handle) Fields() []string { return h.shape.FieldNames() }

// Stubs returns the in-memory-only field names.
func (h *Handle) Stubs() []string { return append([]string(nil), h.shape.Stubs...) }

// Bindings returns the attached bindings.
func (h *Handle) Bindings() []binding.Binding {
	return append([]binding.Binding(nil), h.shape.Bindings...)
}

// Scope returns the default filter of the type's instances.
func (h *Handle) Scope() convention.Scope { return h.shape.Scope }

func (h *Handle) sameShape(s convention.Shape) bool {
	return h.shape.Owner == s.Owner && h.shape.Fingerprint == s.Fingerprint && h.shape.Static == s.Static
}
