package types

import "strings"

// Field is a single protocol name/value pair
type Field struct {
	Name  string
	Value string
}

// FieldMap holds the protocol fields of one operation instance.
// Insertion order is remembered for debugging only; it never determines
// the canonical form, which is driven by a schema.
type FieldMap struct {
	names  []string
	values map[string]string
}

// NewFieldMap creates an empty field map
func NewFieldMap() FieldMap {
	return FieldMap{values: make(map[string]string)}
}

// FieldMapFrom builds a field map from ordered pairs
func FieldMapFrom(fields ...Field) FieldMap {
	fm := NewFieldMap()
	for _, f := range fields {
		fm.Set(f.Name, f.Value)
	}
	return fm
}

// Set stores value under name, replacing any previous value
func (fm *FieldMap) Set(name, value string) {
	if fm.values == nil {
		fm.values = make(map[string]string)
	}
	if _, ok := fm.values[name]; !ok {
		fm.names = append(fm.names, name)
	}
	fm.values[name] = value
}

// SetIf stores value only when it is non-empty
func (fm *FieldMap) SetIf(name, value string) {
	if value != "" {
		fm.Set(name, value)
	}
}

// Get returns the value stored under name
func (fm FieldMap) Get(name string) (string, bool) {
	v, ok := fm.values[name]
	return v, ok
}

// Has reports whether name is present
func (fm FieldMap) Has(name string) bool {
	_, ok := fm.values[name]
	return ok
}

// Delete removes name from the map
func (fm *FieldMap) Delete(name string) {
	if _, ok := fm.values[name]; !ok {
		return
	}
	delete(fm.values, name)
	for i, n := range fm.names {
		if n == name {
			fm.names = append(fm.names[:i:i], fm.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields
func (fm FieldMap) Len() int {
	return len(fm.values)
}

// Names returns field names in insertion order
func (fm FieldMap) Names() []string {
	out := make([]string, len(fm.names))
	copy(out, fm.names)
	return out
}

// Clone returns an independent copy
func (fm FieldMap) Clone() FieldMap {
	out := FieldMap{
		names:  make([]string, len(fm.names)),
		values: make(map[string]string, len(fm.values)),
	}
	copy(out.names, fm.names)
	for k, v := range fm.values {
		out.values[k] = v
	}
	return out
}

// String renders the field names only; values may carry card data
func (fm FieldMap) String() string {
	return "FieldMap[" + strings.Join(fm.names, ",") + "]"
}
