package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mcncl/schemaplay/internal/config"
	"github.com/mcncl/schemaplay/internal/models"
)

var interfaceType = models.TypeInfo{Kind: models.Interface, Name: "interface{}"}

// Converter converts JSON Schema to Go struct definitions
type Converter struct {
	schema      *Schema
	config      *config.Config
	structs     []models.StructDef
	imports     map[string]struct{}
	structNames map[string]bool    // Track used names to avoid collisions
	definitions map[string]*Schema // Merged definitions for $ref resolution
	// Cache for already resolved $refs
	resolvedRefs map[string]models.TypeInfo
	// $refs being resolved, to detect recursion
	resolving map[string]bool
}

// NewConverter creates a new schema converter with the default config
func NewConverter(schema *Schema) *Converter {
	return NewConverterWithConfig(schema, config.NewConfig())
}

// NewConverterWithConfig creates a new schema converter
func NewConverterWithConfig(schema *Schema, cfg *config.Config) *Converter {
	definitions := make(map[string]*Schema)
	for k, v := range schema.Definitions {
		definitions[k] = v
	}
	for k, v := range schema.Defs {
		definitions[k] = v
	}

	return &Converter{
		schema:       schema,
		config:       cfg,
		structs:      make([]models.StructDef, 0),
		imports:      make(map[string]struct{}),
		structNames:  make(map[string]bool),
		definitions:  definitions,
		resolvedRefs: make(map[string]models.TypeInfo),
		resolving:    make(map[string]bool),
	}
}

// Convert processes the schema and returns the struct-definition. An empty
// rootName falls back to the config, the schema title, then RootType.
func (c *Converter) Convert(rootName string) (models.AnalysisResult, error) {
	if rootName == "" {
		rootName = c.config.RootName
	}
	if rootName == "" {
		rootName = c.schema.Title
	}
	if rootName == "" {
		rootName = config.DefaultRootName
	}
	rootName = c.generateUniqueName(config.ExportedName(rootName))

	root, err := c.convertRoot(rootName)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to convert schema: %w", err)
	}

	return models.AnalysisResult{
		RootName: rootName,
		Root:     root,
		Structs:  c.structs,
		Imports:  c.imports,
	}, nil
}

func (c *Converter) convertRoot(rootName string) (models.TypeInfo, error) {
	s := c.schema
	if s.Boolean == nil && s.Ref == "" && len(s.AllOf) == 0 && s.Type.Primary() == "object" &&
		!s.HasProperties() && (s.AdditionalProperties == nil || s.AdditionalProperties.Schema == nil) {
		// A bare object at the root is still a struct, even an empty one.
		return c.convertStruct(s, rootName, true)
	}

	typeInfo, err := c.convertSchema(s, rootName, true)
	if err != nil {
		return models.TypeInfo{}, err
	}
	typeInfo.IsPointer = false
	return typeInfo, nil
}

// convertSchema recursively converts a schema to Go types
func (c *Converter) convertSchema(schema *Schema, suggestedName string, isRoot bool) (models.TypeInfo, error) {
	if schema == nil || schema.Boolean != nil {
		return interfaceType, nil
	}

	if schema.Ref != "" {
		typeInfo, err := c.resolveRef(schema.Ref, suggestedName)
		if err != nil {
			return models.TypeInfo{}, err
		}
		if schema.Nullable || schema.Type.IsNullable() {
			typeInfo.IsPointer = true
		}
		return typeInfo, nil
	}

	if len(schema.AllOf) > 0 {
		merged, err := c.mergeAllOf(schema, make(map[string]bool))
		if err != nil {
			return models.TypeInfo{}, err
		}
		return c.convertSchema(merged, suggestedName, isRoot)
	}

	if len(schema.AnyOf) > 0 || len(schema.OneOf) > 0 {
		return c.convertUnion(schema, suggestedName)
	}

	schemaType := inferType(schema)
	nullable := schema.Nullable || schema.Type.IsNullable()

	var (
		typeInfo models.TypeInfo
		err      error
	)

	switch schemaType {
	case "object":
		typeInfo, err = c.convertObject(schema, suggestedName, isRoot)
	case "array":
		typeInfo, err = c.convertArray(schema, suggestedName)
	case "string":
		typeInfo = c.convertString(schema)
	case "integer":
		typeInfo = c.convertInteger(schema)
	case "number":
		typeInfo = models.TypeInfo{Kind: models.Float, Name: "float64"}
	case "boolean":
		typeInfo = models.TypeInfo{Kind: models.Bool, Name: "bool"}
	case "null":
		typeInfo = interfaceType
		nullable = true
	default:
		// Unknown or missing type - default to interface{}
		typeInfo = interfaceType
	}
	if err != nil {
		return models.TypeInfo{}, err
	}

	if nullable && pointerable(typeInfo) {
		typeInfo.IsPointer = true
	}
	return typeInfo, nil
}

// inferType returns the schema's primary type, inferring it from other
// keywords when "type" is missing
func inferType(schema *Schema) string {
	if t := schema.Type.Primary(); t != "" {
		return t
	}

	switch {
	case schema.HasProperties() || schema.AdditionalProperties != nil:
		return "object"
	case schema.Items != nil:
		return "array"
	}

	if values, ok := literalValues(schema); ok {
		if kind, ok := literalKind(values); ok {
			return kind
		}
	}
	return ""
}

// convertObject converts an object schema to a Go struct, or to a map when
// the object declares no properties
func (c *Converter) convertObject(schema *Schema, structName string, isRoot bool) (models.TypeInfo, error) {
	if !schema.HasProperties() {
		ap := schema.AdditionalProperties
		if ap == nil || ap.Allowed {
			valueType := interfaceType
			if ap != nil && ap.Schema != nil {
				var err error
				valueType, err = c.convertSchema(ap.Schema, singularize(structName)+"Value", false)
				if err != nil {
					return models.TypeInfo{}, fmt.Errorf("failed to convert additionalProperties: %w", err)
				}
			}
			return models.TypeInfo{Kind: models.Map, Name: "map", MapValueType: &valueType}, nil
		}
	}

	return c.convertStruct(schema, structName, isRoot)
}

// convertStruct records a StructDef for an object schema
func (c *Converter) convertStruct(schema *Schema, structName string, isRoot bool) (models.TypeInfo, error) {
	finalName := structName
	if !isRoot {
		finalName = c.generateUniqueName(structName)
	}

	requiredSet := make(map[string]bool)
	for _, r := range schema.Required {
		requiredSet[r] = true
	}

	propNames := schema.PropertyNames()
	fields := make([]models.FieldInfo, 0, len(propNames))
	usedNames := make(map[string]bool)

	for _, propName := range propNames {
		propSchema, _ := schema.Property(propName)
		if propSchema == nil {
			propSchema = &Schema{Boolean: boolPtr(true)}
		}

		goFieldName := c.config.GetFieldName(propName)
		for n, base := 2, goFieldName; usedNames[goFieldName]; n++ {
			goFieldName = fmt.Sprintf("%s%d", base, n)
		}
		usedNames[goFieldName] = true

		field, err := c.convertField(propName, goFieldName, propSchema, finalName, requiredSet[propName])
		if err != nil {
			return models.TypeInfo{}, err
		}
		fields = append(fields, field)
	}

	if c.config.Naming.SortFields {
		sort.SliceStable(fields, func(i, j int) bool {
			return fields[i].GoName < fields[j].GoName
		})
	}

	c.structs = append(c.structs, models.StructDef{
		Name:    finalName,
		Fields:  fields,
		IsRoot:  isRoot,
		Comment: schema.Description,
	})

	return models.TypeInfo{
		Kind:       models.Struct,
		Name:       finalName,
		StructName: finalName,
	}, nil
}

// convertField converts one property into a field
func (c *Converter) convertField(propName, goFieldName string, propSchema *Schema, parentName string, isRequired bool) (models.FieldInfo, error) {
	var typeInfo models.TypeInfo

	mapping, mapped := c.config.FindTypeMapping(propName)
	if mapped {
		typeInfo = models.TypeInfo{Kind: models.Named, Name: mapping.Type}
		if mapping.Import != "" {
			c.imports[mapping.Import] = struct{}{}
		}
	} else {
		var err error
		typeInfo, err = c.convertSchema(propSchema, parentName+goFieldName, false)
		if err != nil {
			return models.FieldInfo{}, fmt.Errorf("failed to convert property %s: %w", propName, err)
		}
	}

	nullable := typeInfo.IsPointer || propSchema.Nullable || propSchema.Type.IsNullable()
	typeInfo.IsPointer = false
	if c.config.Types.OptionalAsPointers && pointerable(typeInfo) && (!isRequired || nullable) {
		typeInfo.IsPointer = true
	}

	tags, tag := c.generateFieldTags(propName, propSchema, typeInfo, isRequired)

	comment := propSchema.Description
	if mapped && mapping.Comment != "" {
		comment = joinComment(comment, mapping.Comment)
	}
	if propSchema.Pattern != "" {
		comment = joinComment(comment, fmt.Sprintf("Must match the pattern %s.", propSchema.Pattern))
	}
	if propSchema.MultipleOf != nil {
		comment = joinComment(comment, fmt.Sprintf("Must be a multiple of %s.", formatNumber(*propSchema.MultipleOf)))
	}

	var deprecated string
	if propSchema.Deprecated {
		deprecated = "this field will be removed."
	}

	return models.FieldInfo{
		JSONKey:    propName,
		GoName:     goFieldName,
		GoType:     typeInfo,
		JSONTag:    tag,
		Tags:       tags,
		Comment:    comment,
		Deprecated: deprecated,
	}, nil
}

// convertArray converts an array schema to a Go slice
func (c *Converter) convertArray(schema *Schema, suggestedName string) (models.TypeInfo, error) {
	elementType := interfaceType

	if schema.Items != nil {
		var err error
		elementType, err = c.convertSchema(schema.Items, singularize(suggestedName), false)
		if err != nil {
			return models.TypeInfo{}, fmt.Errorf("failed to convert array items: %w", err)
		}
	}

	return models.TypeInfo{
		Kind:             models.Slice,
		Name:             "[]",
		SliceElementType: &elementType,
	}, nil
}

// convertString converts a string schema to Go type
func (c *Converter) convertString(schema *Schema) models.TypeInfo {
	switch schema.Format {
	case "date-time", "date", "time":
		c.imports["time"] = struct{}{}
		return models.TypeInfo{Kind: models.Time, Name: "time.Time"}
	default:
		return models.TypeInfo{Kind: models.String, Name: "string"}
	}
}

// convertInteger converts an integer schema to Go type
func (c *Converter) convertInteger(_ *Schema) models.TypeInfo {
	if c.config.Types.ForceInt64 {
		return models.TypeInfo{Kind: models.Int, Name: "int64"}
	}
	return models.TypeInfo{Kind: models.Int, Name: "int"}
}

// convertUnion converts anyOf and oneOf. Null branches make the result
// nullable; literal branches of one primitive type collapse into that type.
func (c *Converter) convertUnion(schema *Schema, suggestedName string) (models.TypeInfo, error) {
	all := append(append([]*Schema{}, schema.AnyOf...), schema.OneOf...)

	branches := make([]*Schema, 0, len(all))
	for _, branch := range all {
		if !isNullSchema(branch) {
			branches = append(branches, branch)
		}
	}
	nullable := len(branches) < len(all) || schema.Nullable || schema.Type.IsNullable()

	var (
		typeInfo models.TypeInfo
		err      error
	)

	switch {
	case len(branches) == 0:
		typeInfo = interfaceType

	case len(branches) == 1:
		typeInfo, err = c.convertSchema(branches[0], suggestedName, false)

	default:
		typeInfo = interfaceType
		if values, ok := literalValues(schema); ok {
			if kind, ok := literalKind(values); ok {
				typeInfo, err = c.convertSchema(&Schema{Type: SchemaType{Types: []string{kind}}}, suggestedName, false)
			}
		}
	}
	if err != nil {
		return models.TypeInfo{}, err
	}

	if nullable && pointerable(typeInfo) {
		typeInfo.IsPointer = true
	}
	return typeInfo, nil
}

// resolveRef resolves a $ref to its schema
func (c *Converter) resolveRef(ref string, suggestedName string) (models.TypeInfo, error) {
	if cached, ok := c.resolvedRefs[ref]; ok {
		return cached, nil
	}
	if ref == "#" || c.resolving[ref] {
		return models.TypeInfo{}, fmt.Errorf("recursive $ref %s cannot be inlined", ref)
	}

	defName, defSchema, err := c.lookupRef(ref)
	if err != nil {
		return models.TypeInfo{}, err
	}

	c.resolving[ref] = true
	defer delete(c.resolving, ref)

	typeInfo, err := c.convertSchema(defSchema, config.ExportedName(defName), false)
	if err != nil {
		return models.TypeInfo{}, err
	}
	c.resolvedRefs[ref] = typeInfo
	return typeInfo, nil
}

// lookupRef finds the definition a local $ref points to
func (c *Converter) lookupRef(ref string) (string, *Schema, error) {
	for _, prefix := range []string{"#/definitions/", "#/$defs/"} {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		defName := unescapePointer(strings.TrimPrefix(ref, prefix))
		if defSchema, ok := c.definitions[defName]; ok {
			return defName, defSchema, nil
		}
		return "", nil, fmt.Errorf("unresolved $ref: %s", ref)
	}

	if strings.HasPrefix(ref, "#") {
		return "", nil, fmt.Errorf("unsupported $ref: %s", ref)
	}
	return "", nil, fmt.Errorf("external $ref not supported: %s", ref)
}

// mergeAllOf merges the schemas of allOf, together with the parent's own
// keywords, into one schema
func (c *Converter) mergeAllOf(parent *Schema, seen map[string]bool) (*Schema, error) {
	merged := *parent
	merged.AllOf = nil
	merged.Properties = newProperties()
	merged.Required = append([]string{}, parent.Required...)
	copyProperties(merged.Properties, parent)

	for _, s := range parent.AllOf {
		if s == nil {
			continue
		}
		// Definitions may alias one another, so follow the chain to the end
		resolved := s
		var refs []string
		for resolved != nil && resolved.Ref != "" {
			ref := resolved.Ref
			if c.resolving[ref] || seen[ref] || ref == "#" {
				return nil, fmt.Errorf("recursive $ref %s cannot be inlined", ref)
			}
			seen[ref] = true
			refs = append(refs, ref)
			_, defSchema, err := c.lookupRef(ref)
			if err != nil {
				return nil, err
			}
			resolved = defSchema
		}
		if resolved == nil || resolved.Boolean != nil {
			forget(seen, refs)
			continue
		}
		if len(resolved.AllOf) > 0 {
			var err error
			resolved, err = c.mergeAllOf(resolved, seen)
			if err != nil {
				return nil, err
			}
		}
		forget(seen, refs)

		copyProperties(merged.Properties, resolved)
		merged.Required = append(merged.Required, resolved.Required...)

		if merged.Title == "" {
			merged.Title = resolved.Title
		}
		if merged.Description == "" {
			merged.Description = resolved.Description
		}
		if len(merged.Type.Types) == 0 {
			merged.Type = resolved.Type
		}
		if merged.Format == "" {
			merged.Format = resolved.Format
		}
		if merged.Items == nil {
			merged.Items = resolved.Items
		}
		if merged.AdditionalProperties == nil {
			merged.AdditionalProperties = resolved.AdditionalProperties
		}
		if merged.MinLength == nil {
			merged.MinLength = resolved.MinLength
		}
		if merged.MaxLength == nil {
			merged.MaxLength = resolved.MaxLength
		}
		if merged.Minimum == nil {
			merged.Minimum = resolved.Minimum
		}
		if merged.Maximum == nil {
			merged.Maximum = resolved.Maximum
		}
		if len(merged.Enum) == 0 {
			merged.Enum = resolved.Enum
		}
		if !merged.HasConst() {
			merged.Const = resolved.Const
		}
		merged.Deprecated = merged.Deprecated || resolved.Deprecated
	}

	if len(merged.Type.Types) == 0 && merged.HasProperties() {
		merged.Type = SchemaType{Types: []string{"object"}}
	}
	return &merged, nil
}

func forget(seen map[string]bool, refs []string) {
	for _, ref := range refs {
		delete(seen, ref)
	}
}

// generateUniqueName ensures struct names are unique
func (c *Converter) generateUniqueName(baseName string) string {
	name := baseName
	for n := 1; c.structNames[name]; n++ {
		name = fmt.Sprintf("%s%d", baseName, n)
	}
	c.structNames[name] = true
	return name
}

// pointerable reports whether an optional value of this type is rendered
// as a pointer. Slices, maps and interfaces already have a nil value.
func pointerable(t models.TypeInfo) bool {
	switch t.Kind {
	case models.Slice, models.Map, models.Interface:
		return false
	default:
		return true
	}
}

// isNullSchema reports whether a union branch only admits null
func isNullSchema(s *Schema) bool {
	if s == nil || s.Boolean != nil {
		return false
	}
	if s.Type.IsNullOnly() {
		return true
	}
	return string(s.Const) == "null"
}

// literalValues collects the allowed values of const, enum, or a union made
// only of const/enum branches. Null values are dropped.
func literalValues(schema *Schema) ([]interface{}, bool) {
	var values []interface{}

	switch {
	case schema.HasConst():
		v, err := schema.ConstValue()
		if err != nil {
			return nil, false
		}
		values = append(values, v)

	case len(schema.Enum) > 0:
		values = append(values, schema.Enum...)

	case len(schema.AnyOf) > 0 || len(schema.OneOf) > 0:
		for _, branch := range append(append([]*Schema{}, schema.AnyOf...), schema.OneOf...) {
			if isNullSchema(branch) {
				continue
			}
			if branch == nil || branch.Boolean != nil {
				return nil, false
			}
			branchValues, ok := literalValues(branch)
			if !ok {
				return nil, false
			}
			values = append(values, branchValues...)
		}

	default:
		return nil, false
	}

	nonNull := values[:0:0]
	for _, v := range values {
		if v != nil {
			nonNull = append(nonNull, v)
		}
	}
	return nonNull, len(nonNull) > 0
}

// literalKind returns the JSON Schema type shared by every value
func literalKind(values []interface{}) (string, bool) {
	kind := ""
	for _, v := range values {
		var k string
		switch n := v.(type) {
		case string:
			k = "string"
		case bool:
			k = "boolean"
		case float64:
			k = "number"
			if n == float64(int64(n)) {
				k = "integer"
			}
		case json.Number:
			k = "number"
		default:
			return "", false
		}

		switch {
		case kind == "":
			kind = k
		case kind == k:
		case (kind == "integer" && k == "number") || (kind == "number" && k == "integer"):
			kind = "number"
		default:
			return "", false
		}
	}
	return kind, kind != ""
}

func newProperties() *Properties {
	return orderedmap.New[string, *Schema]()
}

func copyProperties(dst *Properties, src *Schema) {
	for _, name := range src.PropertyNames() {
		prop, _ := src.Property(name)
		dst.Set(name, prop)
	}
}

func joinComment(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}

// unescapePointer decodes a JSON Pointer reference token
func unescapePointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// singularize attempts to singularize a name
func singularize(s string) string {
	lower := strings.ToLower(s)

	// Simple rules - could be expanded
	if strings.HasSuffix(lower, "ies") && len(s) > 3 {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(lower, "ses") && len(s) > 3 {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(s) > 1 {
		return s[:len(s)-1]
	}

	return s
}
