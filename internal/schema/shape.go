package schema

import (
	"reflect"
)

//go:generate go tool stringer -type=Shape -linecomment -output=shape_string.go

// Shape is the collection/map descriptor of a path node.
type Shape int

const (
	ShapePlain    Shape = iota // plain
	ShapeArray                 // array
	ShapeList                  // list
	ShapeSet                   // set
	ShapeMember                // collection-element
	ShapeMap                   // map
	ShapeMapKey                // map-key
	ShapeMapValue              // map-value
)

// IsContainer reports the shapes that carry member nodes.
func (s Shape) IsContainer() bool {
	switch s {
	case ShapeArray, ShapeList, ShapeSet, ShapeMap:
		return true
	default:
		return false
	}
}

// IsMember reports the shapes of member nodes.
func (s Shape) IsMember() bool {
	switch s {
	case ShapeMember, ShapeMapKey, ShapeMapValue:
		return true
	default:
		return false
	}
}

// Indirect strips pointer layers.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// IsSetType reports maps used as sets: map[K]struct{} and map[K]bool.
func IsSetType(t reflect.Type) bool {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Map {
		return false
	}

	elem := t.Elem()

	return elem.Kind() == reflect.Bool || (elem.Kind() == reflect.Struct && elem.NumField() == 0)
}

// CollectionShape reports the shape a "[]" notation takes on t.
func CollectionShape(t reflect.Type) (Shape, bool) {
	t = Indirect(t)
	if t == nil {
		return ShapePlain, false
	}

	switch t.Kind() {
	case reflect.Array:
		return ShapeArray, true
	case reflect.Slice:
		return ShapeList, true
	case reflect.Map:
		if IsSetType(t) {
			return ShapeSet, true
		}
	}

	return ShapePlain, false
}

// IsMapType reports whether t, after pointer indirection, is a map.
func IsMapType(t reflect.Type) bool {
	t = Indirect(t)
	return t != nil && t.Kind() == reflect.Map
}

// IsInterface reports interface types, including behind pointers.
func IsInterface(t reflect.Type) bool {
	t = Indirect(t)
	return t != nil && t.Kind() == reflect.Interface
}

// MemberType is the type a member node of the given shape holds inside the
// container type t.
func MemberType(t reflect.Type, member Shape) reflect.Type {
	t = Indirect(t)

	switch member {
	case ShapeMapKey:
		return t.Key()
	case ShapeMapValue:
		return t.Elem()
	}

	if t.Kind() == reflect.Map {
		return t.Key()
	}

	return t.Elem()
}
