// Package generator renders struct-definitions as Go source.
package generator

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mcncl/schemaplay/internal/models"
)

// Generator is responsible for generating Go struct definitions from analysis results
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// Inline renders the result as a single declaration of the root type with
// every nested struct written as an anonymous struct type. There is no
// package clause, so the output can be pasted into any Go file.
func (g *Generator) Inline(result models.AnalysisResult) (string, error) {
	if result.RootName == "" {
		return "", fmt.Errorf("struct-definition has no root name")
	}

	var buf bytes.Buffer

	if root, ok := result.Lookup(result.RootName); ok && result.Root.Kind == models.Struct {
		writeComment(&buf, "", root.Comment, "")
	}

	r := &inliner{result: result, visiting: make(map[string]bool)}
	rootType := result.Root
	rootType.IsPointer = false
	typeStr, err := r.typeString(rootType, 0)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&buf, "type %s %s\n", result.RootName, typeStr)
	return buf.String(), nil
}

type inliner struct {
	result   models.AnalysisResult
	visiting map[string]bool
}

// typeString spells out a type, expanding struct references in place
func (r *inliner) typeString(typeInfo models.TypeInfo, depth int) (string, error) {
	var typeStr string

	switch typeInfo.Kind {
	case models.Struct:
		body, err := r.structBody(typeInfo.StructName, depth)
		if err != nil {
			return "", err
		}
		typeStr = body
	case models.Slice:
		elem := "interface{}"
		if typeInfo.SliceElementType != nil {
			var err error
			if elem, err = r.typeString(*typeInfo.SliceElementType, depth); err != nil {
				return "", err
			}
		}
		typeStr = "[]" + elem
	case models.Map:
		value := "interface{}"
		if typeInfo.MapValueType != nil {
			var err error
			if value, err = r.typeString(*typeInfo.MapValueType, depth); err != nil {
				return "", err
			}
		}
		typeStr = "map[string]" + value
	case models.Interface:
		typeStr = "interface{}"
	default:
		typeStr = typeInfo.Name
	}

	if typeInfo.IsPointer {
		return "*" + typeStr, nil
	}
	return typeStr, nil
}

func (r *inliner) structBody(name string, depth int) (string, error) {
	structDef, ok := r.result.Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown struct %s", name)
	}
	if len(structDef.Fields) == 0 {
		return "struct{}", nil
	}
	if r.visiting[name] {
		return "", fmt.Errorf("struct %s contains itself and cannot be inlined", name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	indent := strings.Repeat("\t", depth+1)

	var buf bytes.Buffer
	buf.WriteString("struct {\n")
	for _, field := range structDef.Fields {
		writeComment(&buf, indent, field.Comment, field.Deprecated)

		typeStr, err := r.typeString(field.GoType, depth+1)
		if err != nil {
			return "", err
		}
		buf.WriteString(indent + field.GoName + " " + typeStr)
		if field.JSONTag != "" {
			buf.WriteString(" " + field.JSONTag)
		}
		buf.WriteString("\n")
	}
	buf.WriteString(strings.Repeat("\t", depth) + "}")
	return buf.String(), nil
}

// GenerateStructs generates Go struct definitions from the analysis result
func (g *Generator) GenerateStructs(result models.AnalysisResult, packageName string) (string, error) {
	var buf bytes.Buffer

	// Write package declaration
	buf.WriteString(fmt.Sprintf("package %s\n", packageName))

	// Write imports if any
	if len(result.Imports) > 0 {
		buf.WriteString("\nimport (\n")

		// Sort imports for consistent output
		imports := make([]string, 0, len(result.Imports))
		stdLibImports := make([]string, 0)
		thirdPartyImports := make([]string, 0)

		for imp := range result.Imports {
			imports = append(imports, imp)
		}
		sort.Strings(imports)

		// Separate standard library imports from third-party imports
		for _, imp := range imports {
			if !strings.Contains(imp, ".") { // Standard library imports don't have dots
				stdLibImports = append(stdLibImports, imp)
			} else {
				thirdPartyImports = append(thirdPartyImports, imp)
			}
		}

		for _, imp := range stdLibImports {
			buf.WriteString(fmt.Sprintf("\t\"%s\"\n", imp))
		}
		if len(stdLibImports) > 0 && len(thirdPartyImports) > 0 {
			buf.WriteString("\n")
		}
		for _, imp := range thirdPartyImports {
			buf.WriteString(fmt.Sprintf("\t\"%s\"\n", imp))
		}

		buf.WriteString(")\n")
	}

	// A root that is not a struct is declared on its own
	if result.Root.Kind != models.Struct && result.RootName != "" {
		rootType := result.Root
		rootType.IsPointer = false
		buf.WriteString(fmt.Sprintf("\ntype %s %s\n", result.RootName, getTypeString(rootType)))
	}

	// Sort structs to ensure root structs come first
	sortedStructs := sortStructs(result.Structs)

	for _, structDef := range sortedStructs {
		buf.WriteString("\n")
		writeComment(&buf, "", structDef.Comment, "")

		if len(structDef.Fields) == 0 {
			buf.WriteString(fmt.Sprintf("type %s struct{}\n", structDef.Name))
			continue
		}

		buf.WriteString(fmt.Sprintf("type %s struct {\n", structDef.Name))

		// Calculate the maximum width for field names and types for proper alignment
		maxNameWidth := 0
		maxTypeWidth := 0
		for _, field := range structDef.Fields {
			nameWidth := len(field.GoName)
			typeWidth := len(getTypeString(field.GoType))
			if nameWidth > maxNameWidth {
				maxNameWidth = nameWidth
			}
			if typeWidth > maxTypeWidth {
				maxTypeWidth = typeWidth
			}
		}

		for _, field := range structDef.Fields {
			writeComment(&buf, "\t", field.Comment, field.Deprecated)
			typeStr := getTypeString(field.GoType)
			line := fmt.Sprintf("\t%-*s %-*s %s", maxNameWidth, field.GoName, maxTypeWidth, typeStr, field.JSONTag)
			buf.WriteString(strings.TrimRight(line, " ") + "\n")
		}

		buf.WriteString("}\n")
	}

	return buf.String(), nil
}

// sortStructs sorts structs to ensure root structs come first, followed by
// nested structs in discovery order
func sortStructs(structs []models.StructDef) []models.StructDef {
	sorted := make([]models.StructDef, len(structs))
	copy(sorted, structs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IsRoot && !sorted[j].IsRoot
	})

	return sorted
}

// getTypeString converts a TypeInfo to a string representation of the Go type
func getTypeString(typeInfo models.TypeInfo) string {
	var typeStr string

	switch typeInfo.Kind {
	case models.Struct:
		typeStr = typeInfo.StructName
	case models.Slice:
		if typeInfo.SliceElementType != nil {
			typeStr = "[]" + getTypeString(*typeInfo.SliceElementType)
		} else {
			typeStr = "[]interface{}"
		}
	case models.Map:
		if typeInfo.MapValueType != nil {
			typeStr = "map[string]" + getTypeString(*typeInfo.MapValueType)
		} else {
			typeStr = "map[string]interface{}"
		}
	case models.Interface:
		typeStr = "interface{}"
	default:
		typeStr = typeInfo.Name
	}

	if typeInfo.IsPointer {
		return "*" + typeStr
	}

	return typeStr
}

// writeComment writes a line comment block, with the deprecation notice as
// its own paragraph
func writeComment(buf *bytes.Buffer, indent, comment, deprecated string) {
	if comment != "" {
		for _, line := range strings.Split(comment, "\n") {
			line = strings.TrimRight(line, " \t\r")
			if line == "" {
				buf.WriteString(indent + "//\n")
				continue
			}
			buf.WriteString(indent + "// " + line + "\n")
		}
	}
	if deprecated != "" {
		if comment != "" {
			buf.WriteString(indent + "//\n")
		}
		buf.WriteString(indent + "// Deprecated: " + deprecated + "\n")
	}
}
