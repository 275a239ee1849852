package analyze

import (
	"go/types"

	"chain-mapper/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "chain-mapper/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindBasic              // int, string, bool, etc.
	TypeKindStruct             // struct type
	TypeKindPointer            // pointer to another type
	TypeKindSlice              // slice of another type
	TypeKindArray              // array of another type
	TypeKindMap                // map, including sets
	TypeKindInterface          // interface type, any included
	TypeKindAlias              // named type wrapping another
	TypeKindExternal           // external/opaque type (e.g., time.Time)
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindMap:
		return "map"
	case TypeKindInterface:
		return "interface"
	case TypeKindAlias:
		return "alias"
	case TypeKindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a Go type in the type graph.
type TypeInfo struct {
	ID         TypeID      // Unique identifier (empty for unnamed types like *T or []T)
	Kind       TypeKind    // Kind of type
	Underlying *TypeInfo   // For named types, the underlying type
	ElemType   *TypeInfo   // For pointers, slices, arrays and maps, the element type
	KeyType    *TypeInfo   // For maps, the key type
	Len        int64       // For arrays, the length
	Fields     []FieldInfo // For structs, the list of fields
	Methods    []string    // For named types, the method names of *T
	GoType     types.Type  // The original go/types.Type
}

// IsNamed returns true if this type has a name (TypeID is set).
func (t *TypeInfo) IsNamed() bool {
	return t.ID.Name != ""
}

// Resolved skips pointers and named wrappers down to the type that decides
// the shape: a struct, a collection, an interface or a basic type.
func (t *TypeInfo) Resolved() *TypeInfo {
	for t != nil {
		switch {
		case t.Kind == TypeKindPointer:
			t = t.ElemType
		case t.Kind == TypeKindAlias && t.Underlying != nil:
			t = t.Underlying
		default:
			return t
		}
	}

	return nil
}

// IsSet reports a map whose values only mark membership: map[K]struct{} or
// map[K]bool.
func (t *TypeInfo) IsSet() bool {
	if t.Kind != TypeKindMap || t.ElemType == nil {
		return false
	}

	switch u := t.ElemType.GoType.Underlying().(type) {
	case *types.Struct:
		return u.NumFields() == 0
	case *types.Basic:
		return u.Kind() == types.Bool
	}

	return false
}

// HasMethod reports whether *T has the named method.
func (t *TypeInfo) HasMethod(name string) bool {
	for _, m := range t.Methods {
		if m == name {
			return true
		}
	}

	return false
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string    // Go field name
	Exported bool      // Whether the field is exported
	Type     *TypeInfo // Field type
	Embedded bool      // Whether the field is embedded (anonymous)
	Index    int       // Field index in the struct
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Types []TypeID // Named types defined in this package
}
