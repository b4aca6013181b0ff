// Package schema loads field catalogs from JSON files.
//
// A catalog is persisted as a versioned JSON envelope:
//
//	{
//	  "version": 1,
//	  "schema": {
//	    "strict": false,
//	    "partial_keys": true,
//	    "fields": [
//	      {"key": "name", "type": "string", "desc": "Full name", "generic": true},
//	      {"key": "date", "column": "created_at", "type": "date"}
//	    ]
//	  }
//	}
//
// The envelope version allows future format migrations; version 1 is the
// initial format.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"searchquery/internal/searchlang"
)

// currentVersion is the envelope version this package reads and writes.
const currentVersion = 1

type envelope struct {
	Version int    `json:"version"`
	Schema  Schema `json:"schema"`
}

// Schema is the on-disk form of a field catalog.
type Schema struct {
	Strict      bool        `json:"strict,omitempty"`
	PartialKeys bool        `json:"partial_keys,omitempty"`
	Fields      []FieldSpec `json:"fields"`
}

// FieldSpec is the on-disk form of one searchable field.
type FieldSpec struct {
	Key     string `json:"key"`
	Column  string `json:"column,omitempty"`
	Type    string `json:"type"`
	Desc    string `json:"desc,omitempty"`
	Generic bool   `json:"generic,omitempty"`
}

// Load reads a catalog file and builds a registry from it.
func Load(path string) (*searchlang.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from the JSON envelope in data.
func Parse(data []byte) (*searchlang.Registry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if env.Version != currentVersion {
		return nil, fmt.Errorf("unsupported schema version %d (want %d)", env.Version, currentVersion)
	}
	return env.Schema.Registry()
}

// Registry converts the on-disk schema into a field registry.
func (s Schema) Registry() (*searchlang.Registry, error) {
	fields := make([]searchlang.Field, 0, len(s.Fields))
	for _, fs := range s.Fields {
		ft, err := parseFieldType(fs.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fs.Key, err)
		}
		fields = append(fields, searchlang.Field{
			Key:     fs.Key,
			Column:  fs.Column,
			Type:    ft,
			Desc:    fs.Desc,
			Generic: fs.Generic,
		})
	}

	reg, err := searchlang.NewRegistry(fields...)
	if err != nil {
		return nil, err
	}
	reg.Strict = s.Strict
	reg.AllowPartialKeys = s.PartialKeys
	return reg, nil
}

// Save writes the catalog to path atomically (write temp file, then rename).
func Save(path string, s Schema) error {
	data, err := json.MarshalIndent(envelope{Version: currentVersion, Schema: s}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename schema file: %w", err)
	}
	return nil
}

func parseFieldType(s string) (searchlang.FieldType, error) {
	switch s {
	case "string", "str", "text":
		return searchlang.FieldString, nil
	case "number", "num", "int", "float":
		return searchlang.FieldNumber, nil
	case "date", "datetime", "time":
		return searchlang.FieldDate, nil
	case "bool", "boolean":
		return searchlang.FieldBool, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}
