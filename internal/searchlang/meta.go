package searchlang

import "fmt"

// Meta describes a compiled search for UI surfaces: the searchable fields
// with their types and descriptions, plus which search keys the query
// actually referenced (useful for highlighting or diagnostics).
type Meta struct {
	Query  string            `json:"query,omitempty"`
	Fields map[string]string `json:"fields"`
	Keys   []string          `json:"keys,omitempty"`
}

// Meta returns metadata about this search and its registry.
func (s *Search) Meta() Meta {
	m := Meta{
		Query:  s.Raw,
		Fields: make(map[string]string, len(s.reg.Fields())),
		Keys:   s.Keys,
	}
	for _, f := range s.reg.Fields() {
		desc := f.Desc
		if desc == "" {
			desc = f.Column
		}
		m.Fields[f.Key] = fmt.Sprintf("%s (%s)", desc, f.Type)
	}
	return m
}
