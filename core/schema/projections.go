package schema

import "fmt"

// ProjectionKind names one of the attribute projections of a descriptor.
type ProjectionKind string

const (
	ProjectionPersistent ProjectionKind = "persistent"
	ProjectionStub       ProjectionKind = "stub"
	ProjectionI18n       ProjectionKind = "i18n"
	ProjectionPublic     ProjectionKind = "public"
	ProjectionCSV        ProjectionKind = "csv"
)

// ProjectionKinds lists every projection kind.
var ProjectionKinds = []ProjectionKind{
	ProjectionPersistent, ProjectionStub, ProjectionI18n, ProjectionPublic, ProjectionCSV,
}

// ParseProjectionKind parses a projection kind name.
func ParseProjectionKind(s string) (ProjectionKind, error) {
	for _, k := range ProjectionKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown projection %q", s)
}

// projections caches the derived attribute sets of one descriptor instance.
type projections struct {
	persistent []string
	stub       []string
	i18n       []string
	public     []string
	csv        []string
}

func (d *Descriptor) projections() *projections {
	if d.proj != nil {
		return d.proj
	}

	p := &projections{}
	overrides := d.settings.StubAttributes

	for _, a := range d.attributes {
		if a.Key == StaticKey {
			continue
		}
		if IsStub(a.Value) || overrides.Contains(a.Key) {
			p.stub = append(p.stub, a.Key)
			continue
		}
		p.persistent = append(p.persistent, a.Key)
	}

	// explicit stubs that are not declared attributes
	for _, name := range overrides {
		if !d.attributes.Has(name) && !contains(p.stub, name) {
			p.stub = append(p.stub, name)
		}
	}

	p.i18n = d.settings.I18nAttributes.clone()
	if p.i18n == nil {
		p.i18n = []string{}
	}

	p.public = p.persistent
	if d.settings.PublicAttributes != nil {
		p.public = d.settings.PublicAttributes
	}

	p.csv = p.persistent
	if d.settings.CSVAttributes != nil {
		p.csv = d.settings.CSVAttributes
	}

	d.proj = p
	return p
}

// PersistentAttributes returns the attributes stored by the persistence
// layer, in declaration order.
func (d *Descriptor) PersistentAttributes() []string {
	return copyNames(d.projections().persistent)
}

// StubAttributes returns the transient attributes: those tagged Stub, then
// any listed in settings.stub_attributes.
func (d *Descriptor) StubAttributes() []string {
	return copyNames(d.projections().stub)
}

// I18nAttributes returns the localized attributes.
func (d *Descriptor) I18nAttributes() []string {
	return copyNames(d.projections().i18n)
}

// PublicAttributes returns the attributes of the external JSON projection.
func (d *Descriptor) PublicAttributes() []string {
	return copyNames(d.projections().public)
}

// CSVAttributes returns the attributes, in column order, of the CSV projection.
func (d *Descriptor) CSVAttributes() []string {
	return copyNames(d.projections().csv)
}

// Projection returns the attribute names of the given projection.
func (d *Descriptor) Projection(kind ProjectionKind) ([]string, error) {
	switch kind {
	case ProjectionPersistent:
		return d.PersistentAttributes(), nil
	case ProjectionStub:
		return d.StubAttributes(), nil
	case ProjectionI18n:
		return d.I18nAttributes(), nil
	case ProjectionPublic:
		return d.PublicAttributes(), nil
	case ProjectionCSV:
		return d.CSVAttributes(), nil
	default:
		return nil, fmt.Errorf("unknown projection %q", kind)
	}
}

func copyNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
