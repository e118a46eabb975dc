package models

// Kind is the category of a Go type in the struct-definition.
type Kind int

const (
	Interface Kind = iota
	String
	Int
	Float
	Bool
	Time
	Struct
	Slice
	Map
	// Named is a Go type spelled out by the user, e.g. from a type mapping.
	Named
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Struct:
		return "struct"
	case Slice:
		return "slice"
	case Map:
		return "map"
	case Named:
		return "named"
	default:
		return "interface"
	}
}

// TypeInfo describes the Go type of a field or of the root declaration.
type TypeInfo struct {
	Kind Kind
	// Name is the Go spelling for primitive kinds (e.g. "int64", "time.Time").
	Name string
	// IsPointer marks optional or nullable values.
	IsPointer bool
	// StructName references a StructDef when Kind is Struct.
	StructName string
	// SliceElementType is set when Kind is Slice.
	SliceElementType *TypeInfo
	// MapValueType is set when Kind is Map. Keys are always strings.
	MapValueType *TypeInfo
}

// FieldInfo is a single struct field.
type FieldInfo struct {
	JSONKey string
	GoName  string
	GoType  TypeInfo
	// JSONTag is the rendered struct tag as a Go string literal.
	JSONTag string
	// Tags holds the tag values by key ("json", "validate").
	Tags    map[string]string
	Comment string
	// Deprecated holds the deprecation notice, empty when not deprecated.
	Deprecated string
}

// StructDef is one struct type of the struct-definition.
type StructDef struct {
	Name    string
	Fields  []FieldInfo
	IsRoot  bool
	Comment string
}

// AnalysisResult is the struct-definition produced from a schema: the root
// declaration plus every struct it references, in discovery order.
type AnalysisResult struct {
	RootName string
	Root     TypeInfo
	Structs  []StructDef
	Imports  map[string]struct{}
}

// Lookup returns the struct with the given name.
func (r AnalysisResult) Lookup(name string) (StructDef, bool) {
	for _, s := range r.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return StructDef{}, false
}
