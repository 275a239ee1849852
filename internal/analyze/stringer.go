package analyze

import (
	"sort"
	"strconv"
	"strings"
)

// TypePath builds a readable path string for a type in chain notation.
// Examples:
//   - "Order" for a simple struct
//   - "Order.Lines" for a nested field
//   - "Order.Lines[]" for a slice field
//   - "Order.Lines[].SKU" for a field within slice elements
//   - "Order.Items[V].Bin" for a field within map values
type TypePath struct {
	parts []string
}

// NewTypePath creates a new TypePath from a root type name. An empty root
// starts the path at the first field.
func NewTypePath(root string) *TypePath {
	if root == "" {
		return &TypePath{}
	}

	return &TypePath{
		parts: []string{root},
	}
}

// Field appends a field name to the path.
func (p *TypePath) Field(name string) *TypePath {
	return &TypePath{
		parts: append(append([]string{}, p.parts...), name),
	}
}

// Slice appends a collection member marker "[]" to the path.
func (p *TypePath) Slice() *TypePath { return p.mark("[]") }

// Key appends a map key marker "[K]" to the path.
func (p *TypePath) Key() *TypePath { return p.mark("[K]") }

// Value appends a map value marker "[V]" to the path.
func (p *TypePath) Value() *TypePath { return p.mark("[V]") }

func (p *TypePath) mark(marker string) *TypePath {
	if len(p.parts) == 0 {
		return &TypePath{parts: []string{marker}}
	}
	newParts := make([]string, len(p.parts))
	copy(newParts, p.parts)
	newParts[len(newParts)-1] += marker
	return &TypePath{parts: newParts}
}

// String returns the full path string.
func (p *TypePath) String() string {
	return strings.Join(p.parts, ".")
}

// TypeStringer provides methods for creating readable type path strings.
type TypeStringer struct{}

// NewTypeStringer creates a new TypeStringer.
func NewTypeStringer() *TypeStringer {
	return &TypeStringer{}
}

// TypeString returns a human-readable string representation of a TypeInfo.
func (s *TypeStringer) TypeString(t *TypeInfo) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case TypeKindBasic:
		return t.GoType.String()

	case TypeKindStruct:
		if t.IsNamed() {
			return t.ID.Name
		}
		return "struct{...}"

	case TypeKindPointer:
		return "*" + s.elem(t.ElemType)

	case TypeKindSlice:
		return "[]" + s.elem(t.ElemType)

	case TypeKindArray:
		return "[" + strconv.FormatInt(t.Len, 10) + "]" + s.elem(t.ElemType)

	case TypeKindMap:
		return "map[" + s.elem(t.KeyType) + "]" + s.elem(t.ElemType)

	case TypeKindInterface:
		if t.IsNamed() {
			return t.ID.Name
		}
		return "any"

	case TypeKindAlias:
		if t.IsNamed() {
			return t.ID.Name
		}
		return s.TypeString(t.Underlying)

	case TypeKindExternal:
		if t.IsNamed() {
			return t.ID.String()
		}
		return t.GoType.String()

	default:
		return t.GoType.String()
	}
}

func (s *TypeStringer) elem(t *TypeInfo) string {
	if t == nil {
		return "<unknown>"
	}

	return s.TypeString(t)
}

// FieldPath returns a path string for a field within a type.
// Example: Order, Lines -> "Order.Lines"
func (s *TypeStringer) FieldPath(typeName string, fieldNames ...string) string {
	path := NewTypePath(typeName)
	for _, fn := range fieldNames {
		path = path.Field(fn)
	}
	return path.String()
}

// BuildFieldPaths recursively builds all field paths for a struct type.
// Returns a map of path string to FieldInfo.
func (s *TypeStringer) BuildFieldPaths(root *TypeInfo, maxDepth int) map[string]*FieldInfo {
	result := make(map[string]*FieldInfo)
	if root == nil || root.Kind != TypeKindStruct {
		return result
	}

	rootName := root.ID.Name
	if rootName == "" {
		rootName = "root"
	}

	s.buildFieldPathsRecursive(root, NewTypePath(rootName), result, 0, maxDepth)
	return result
}

// ChainPaths lists the chains reaching every field of root, sorted. The
// chains start at the first field, the way rules write them.
func (s *TypeStringer) ChainPaths(root *TypeInfo, maxDepth int) []string {
	result := make(map[string]*FieldInfo)
	if root == nil || root.Kind != TypeKindStruct {
		return nil
	}

	s.buildFieldPathsRecursive(root, NewTypePath(""), result, 0, maxDepth)

	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

func (s *TypeStringer) buildFieldPathsRecursive(t *TypeInfo, path *TypePath, result map[string]*FieldInfo, depth, maxDepth int) {
	if depth > maxDepth || t == nil {
		return
	}

	for i := range t.Fields {
		field := &t.Fields[i]
		fieldPath := path.Field(field.Name)

		// Store the field at this path
		result[fieldPath.String()] = field

		// Recursively process nested types
		s.processNestedType(field.Type, fieldPath, result, depth+1, maxDepth)
	}
}

func (s *TypeStringer) processNestedType(t *TypeInfo, path *TypePath, result map[string]*FieldInfo, depth, maxDepth int) {
	if t == nil || depth > maxDepth {
		return
	}

	switch t.Kind {
	case TypeKindStruct:
		s.buildFieldPathsRecursive(t, path, result, depth, maxDepth)

	case TypeKindPointer:
		s.processNestedType(t.ElemType, path, result, depth, maxDepth)

	case TypeKindAlias:
		s.processNestedType(t.Underlying, path, result, depth, maxDepth)

	case TypeKindSlice, TypeKindArray:
		s.processNestedType(t.ElemType, path.Slice(), result, depth, maxDepth)

	case TypeKindMap:
		if t.IsSet() {
			s.processNestedType(t.KeyType, path.Slice(), result, depth, maxDepth)
			return
		}

		s.processNestedType(t.KeyType, path.Key(), result, depth, maxDepth)
		s.processNestedType(t.ElemType, path.Value(), result, depth, maxDepth)

	case TypeKindBasic, TypeKindInterface, TypeKindExternal, TypeKindUnknown:
		// Terminal types - nothing to recurse into
	}
}
