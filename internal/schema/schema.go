// Package schema provides JSON Schema parsing and conversion to Go struct
// definitions
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType struct {
	Types []string
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		st.Types = []string{s}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		st.Types = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Primary returns the first type that is not "null", or "null" when that is
// the only type, or empty string if none
func (st SchemaType) Primary() string {
	for _, t := range st.Types {
		if t != "null" {
			return t
		}
	}
	if len(st.Types) > 0 {
		return st.Types[0]
	}
	return ""
}

// IsNullable returns true if "null" is one of the allowed types
func (st SchemaType) IsNullable() bool {
	for _, t := range st.Types {
		if t == "null" {
			return true
		}
	}
	return false
}

// IsNullOnly returns true if "null" is the only allowed type
func (st SchemaType) IsNullOnly() bool {
	return len(st.Types) == 1 && st.Types[0] == "null"
}

// AdditionalProperties handles JSON Schema additionalProperties which can be bool or Schema
type AdditionalProperties struct {
	Allowed bool    // If true, any additional properties allowed; if false, none allowed
	Schema  *Schema // If set, additional properties must match this schema
}

// UnmarshalJSON handles both boolean and schema forms
func (ap *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		ap.Allowed = b
		ap.Schema = nil
		return nil
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("additionalProperties must be boolean or schema: %w", err)
	}
	ap.Allowed = true
	ap.Schema = &s
	return nil
}

// Properties keeps object properties in document order.
type Properties = orderedmap.OrderedMap[string, *Schema]

// Schema represents a JSON Schema document
type Schema struct {
	// Boolean is set for the boolean schema forms `true` and `false`.
	Boolean *bool `json:"-"`

	// Meta
	Schema      string `json:"$schema,omitempty"`
	ID          string `json:"$id,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// Type - can be string or array of strings in JSON Schema
	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties           *Properties           `json:"properties,omitempty"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`

	// Array items
	Items *Schema `json:"items,omitempty"`

	// String constraints
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"`

	// Numeric constraints. The exclusive bounds are numbers since draft-06
	// and booleans in draft-04, so they are kept raw.
	Minimum          *float64        `json:"minimum,omitempty"`
	Maximum          *float64        `json:"maximum,omitempty"`
	ExclusiveMinimum json.RawMessage `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum json.RawMessage `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64        `json:"multipleOf,omitempty"`

	// Array constraints
	MinItems    *int `json:"minItems,omitempty"`
	MaxItems    *int `json:"maxItems,omitempty"`
	UniqueItems bool `json:"uniqueItems,omitempty"`

	// Enum and const. Const is raw so that `"const": null` is kept.
	Enum  []interface{}   `json:"enum,omitempty"`
	Const json.RawMessage `json:"const,omitempty"`

	// Nullable (OpenAPI style)
	Nullable bool `json:"nullable,omitempty"`

	// Composition
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Definitions for $ref resolution
	Definitions map[string]*Schema `json:"definitions,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"` // JSON Schema draft 2019-09+

	// Default value
	Default interface{} `json:"default,omitempty"`

	// Examples
	Examples []interface{} `json:"examples,omitempty"`
}

// rawSchema has the fields of Schema without its UnmarshalJSON method.
type rawSchema Schema

// UnmarshalJSON accepts the boolean schemas `true` and `false` as well as
// schema objects.
func (s *Schema) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*s = Schema{Boolean: boolPtr(true)}
		return nil
	case "false":
		*s = Schema{Boolean: boolPtr(false)}
		return nil
	}

	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Schema(raw)
	return nil
}

// PropertyNames returns property names in document order.
func (s *Schema) PropertyNames() []string {
	if s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Property returns the named property schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// HasProperties reports whether the schema declares any property.
func (s *Schema) HasProperties() bool {
	return s.Properties != nil && s.Properties.Len() > 0
}

// HasConst reports whether the schema has a const keyword.
func (s *Schema) HasConst() bool {
	return len(s.Const) > 0
}

// ConstValue decodes the const keyword.
func (s *Schema) ConstValue() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(s.Const, &v); err != nil {
		return nil, fmt.Errorf("invalid const: %w", err)
	}
	return v, nil
}

// ParseFile reads and parses a JSON Schema from a strict JSON file
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses JSON Schema from standard JSON bytes
func ParseBytes(data []byte) (*Schema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("failed to parse JSON Schema: document is empty")
	}
	switch trimmed[0] {
	case '{', 't', 'f':
	default:
		return nil, fmt.Errorf("a JSON Schema must be an object or a boolean, got %s", jsonKind(trimmed[0]))
	}

	var schema Schema
	if err := json.Unmarshal(trimmed, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse JSON Schema: %w", err)
	}

	return &schema, nil
}

// ParseString parses JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

func jsonKind(first byte) string {
	switch first {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}

func boolPtr(b bool) *bool {
	return &b
}
