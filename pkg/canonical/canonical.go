// Package canonical turns protocol field maps into the byte sequence that is
// signed and verified.
//
// The gateway concatenates field values in the order the protocol defines for
// each operation, so serialization is driven by a Schema rather than by the
// order in which a FieldMap was filled. Optional fields that are absent or
// empty are left out entirely.
package canonical

import (
	"fmt"
	"strings"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Delimiter separates values in the canonical form
const Delimiter = "-"

// Field declares one position in a schema
type Field struct {
	Name     string
	Optional bool
}

// Schema is the protocol-defined field order for one operation
type Schema struct {
	fields []Field
	index  map[string]int
}

// Required declares a field that must be present
func Required(name string) Field {
	return Field{Name: name}
}

// Optional declares a field omitted when empty
func Optional(name string) Field {
	return Field{Name: name, Optional: true}
}

// NewSchema builds a schema from fields in protocol order.
// Declaring the same name twice panics since schemas are static tables.
func NewSchema(fields ...Field) Schema {
	s := Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	return s.Append(fields...)
}

// Append returns a new schema with fields added at the end
func (s Schema) Append(fields ...Field) Schema {
	out := Schema{
		fields: make([]Field, len(s.fields), len(s.fields)+len(fields)),
		index:  make(map[string]int, len(s.fields)+len(fields)),
	}
	copy(out.fields, s.fields)
	for k, v := range s.index {
		out.index[k] = v
	}
	for _, f := range fields {
		if _, dup := out.index[f.Name]; dup {
			panic(fmt.Sprintf("canonical: field %q declared twice", f.Name))
		}
		out.index[f.Name] = len(out.fields)
		out.fields = append(out.fields, f)
	}
	return out
}

// Fields returns the declared fields in order
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Declares reports whether name is part of the schema
func (s Schema) Declares(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of declared fields
func (s Schema) Len() int {
	return len(s.fields)
}

// OrderedFields returns the fields of fm in schema order, skipping empty
// optional ones. It fails on a missing required field or on a field that
// the schema does not declare.
func OrderedFields(fm types.FieldMap, s Schema) ([]types.Field, error) {
	for _, name := range fm.Names() {
		if !s.Declares(name) {
			return nil, fmt.Errorf("field %q is not declared in the operation schema", name)
		}
	}

	out := make([]types.Field, 0, len(s.fields))
	for _, f := range s.fields {
		v, ok := fm.Get(f.Name)
		if f.Optional && v == "" {
			continue
		}
		if !ok {
			return nil, fmt.Errorf("required field %q is missing", f.Name)
		}
		out = append(out, types.Field{Name: f.Name, Value: v})
	}
	return out, nil
}

// Serialize produces the canonical bytes of fm under s
func Serialize(fm types.FieldMap, s Schema) (types.CanonicalBytes, error) {
	fields, err := OrderedFields(fm, s)
	if err != nil {
		return nil, err
	}
	return Join(fields), nil
}

// Join concatenates already ordered field values with the delimiter
func Join(fields []types.Field) types.CanonicalBytes {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.Value
	}
	return types.CanonicalBytes(strings.Join(values, Delimiter))
}
