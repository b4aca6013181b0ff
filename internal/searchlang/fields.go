package searchlang

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of searchable column types. Each type has one
// resolver selected by an exhaustive switch at compile time.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldDate
	FieldBool
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Field describes one searchable column.
type Field struct {
	Key     string    // search key the user types (case-insensitive)
	Column  string    // backing column identifier handed to the filter sink
	Type    FieldType
	Desc    string // human-readable description, surfaced in Search.Meta
	Generic bool   // include in free-text searches (terms naming no column)
}

// Registry maps user-facing search keys to field descriptors. It is supplied
// by the caller, read-only during compilation, and safe to share across
// concurrent compilations.
type Registry struct {
	// Strict rejects unregistered column keys with ErrUnknownField instead of
	// falling back to literal free-text treatment.
	Strict bool

	// AllowPartialKeys resolves a unique substring of a search key to that
	// field (e.g. "crea" matches "created"). Ambiguous substrings are an error.
	AllowPartialKeys bool

	fields []*Field
	byKey  map[string]*Field
}

// NewRegistry builds a registry from field descriptors.
// Search keys must be unique (case-insensitive).
func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{
		byKey: make(map[string]*Field, len(fields)),
	}
	for i := range fields {
		f := fields[i]
		if f.Key == "" {
			return nil, fmt.Errorf("field %d: empty search key", i)
		}
		if f.Column == "" {
			f.Column = f.Key
		}
		key := strings.ToLower(f.Key)
		if _, ok := r.byKey[key]; ok {
			return nil, fmt.Errorf("duplicate search key %q", f.Key)
		}
		r.byKey[key] = &f
		r.fields = append(r.fields, &f)
	}
	return r, nil
}

// Fields returns the registered fields in declaration order.
func (r *Registry) Fields() []*Field {
	return r.fields
}

// Lookup returns the field for a search key (case-insensitive), or nil.
// When AllowPartialKeys is set, a unique substring match also resolves;
// an ambiguous substring returns ErrAmbiguousField.
func (r *Registry) Lookup(key string) (*Field, error) {
	k := strings.ToLower(key)
	if f, ok := r.byKey[k]; ok {
		return f, nil
	}
	if r.AllowPartialKeys {
		var matches []*Field
		for full, f := range r.byKey {
			if strings.Contains(full, k) {
				matches = append(matches, f)
			}
		}
		switch len(matches) {
		case 0:
		case 1:
			return matches[0], nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrAmbiguousField, key)
		}
	}
	return nil, nil
}

// GenericFields returns the fields included in free-text searches.
func (r *Registry) GenericFields() []*Field {
	var out []*Field
	for _, f := range r.fields {
		if f.Generic {
			out = append(out, f)
		}
	}
	return out
}
