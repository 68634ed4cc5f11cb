/*
Package schema defines descriptors: the declarative records a runtime type
is compiled from.

A descriptor names a type, lists its attributes in order, and optionally
declares validations, lifecycle callbacks, translations and presentation
settings:

	name: user
	attributes:
	  email: String
	  first_name: String
	  password_confirmation: Stub
	validations:
	  validates_presence_of: ":email"
	  validates_length_of: { attributes: [first_name], maximum: 64 }
	callbacks:
	  after_create: user.registered
	translations:
	  en.user.email: E-mail
	settings:
	  i18n_attributes: [first_name]
	  public_attributes: [email, first_name]
	  csv_attributes: [email]

# Attributes

Attribute values are data-type tags (String, Integer, Boolean, ...). The
tag Stub marks a transient attribute: it gets an in-memory accessor and is
never persisted. The reserved key "static" binds the descriptor to a type
that already exists instead of one synthesized from the attributes.

# Projections

Every descriptor exposes five attribute projections:

  - persistent: attributes not tagged Stub
  - stub:       attributes tagged Stub plus settings.stub_attributes
  - i18n:       settings.i18n_attributes
  - public:     settings.public_attributes, else persistent
  - csv:        settings.csv_attributes, else persistent

Projections are cached on the descriptor and recomputed after
SetAttributes or SetSettings.

# Parsing

	d, err := schema.ParseFile("descriptors/user.yaml")

Parsed descriptors are validated. Normalization (canonical name, default
group and primary key) is done by package convention.
*/
package schema
