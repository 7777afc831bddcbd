package index

import "fmt"

// FieldSpec describes one indexed field.
type FieldSpec struct {
	// Name is the field name.
	Name string

	// Prefix, when non-empty, restricts join-side term enumeration to
	// terms starting with it. All stored values of the field are expected
	// to carry the prefix.
	Prefix string
}

// Schema is the set of fields a core accepts. Documents may only use
// declared fields.
type Schema struct {
	fields map[string]FieldSpec
}

// NewSchema creates a Schema from the given field specs.
func NewSchema(fields ...FieldSpec) Schema {
	m := make(map[string]FieldSpec, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return Schema{fields: m}
}

// Field returns the spec for name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Has reports whether name is a declared field.
func (s Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Names returns the declared field names in unspecified order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.fields))
	for n := range s.fields {
		names = append(names, n)
	}
	return names
}

// ErrUnknownField indicates a reference to a field the schema does not
// declare.
type ErrUnknownField struct {
	Field string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field: %q", e.Field)
}
