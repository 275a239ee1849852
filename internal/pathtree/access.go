package pathtree

import (
	"fmt"
	"reflect"
	"sort"

	"chain-mapper/internal/schema"
)

// Member is one element of a container as a member node sees it: Value is
// the element, the map key or the map value depending on the node shape.
type Member struct {
	Ordinal int
	Key     reflect.Value // map and set key, invalid for arrays and slices
	Value   reflect.Value
}

// Deref follows pointers and interfaces. ok is false at a nil.
func Deref(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
}

// Addressable returns a pointer to v, copying v when it is not addressable.
func Addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}

	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)

	return ptr
}

// Read returns the value of the field node id inside parent. ok is false
// when a nil pointer or interface lies on the way. Fields overridden with a
// concrete type come back unwrapped from their interface.
func (t *Tree) Read(parent reflect.Value, id NodeID, helper reflect.Value) (reflect.Value, bool, error) {
	n := t.nodes[id]

	p, ok := Deref(parent)
	if !ok {
		return reflect.Value{}, false, nil
	}

	v, ok, err := t.Get(p, id, helper)
	if err != nil || !ok {
		return reflect.Value{}, false, err
	}

	if n.Concrete != nil && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false, nil
		}

		elem := v.Elem()
		if !elem.Type().AssignableTo(n.Concrete) {
			return reflect.Value{}, false, fmt.Errorf("field %s holds %s, expected %s", n.Field, elem.Type(), n.Concrete)
		}

		v = elem
	}

	return v, true, nil
}

// Get returns field node id of struct value p as declared: interfaces stay
// wrapped. Direct fields of an addressable p come back addressable. ok is
// false when an embedded nil pointer hides the field.
func (t *Tree) Get(p reflect.Value, id NodeID, helper reflect.Value) (reflect.Value, bool, error) {
	n := t.nodes[id]

	switch {
	case n.Accessor == "":
		f, err := p.FieldByIndexErr(n.FieldIndex)
		if err != nil {
			return reflect.Value{}, false, nil
		}

		return f, true, nil

	case n.Helper:
		out, err := call(helper.MethodByName(n.Accessor), p)
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("helper accessor %s: %w", n.Accessor, err)
		}

		return out, true, nil

	default:
		out, err := call(Addressable(p).MethodByName(n.Accessor))
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("accessor %s: %w", n.Accessor, err)
		}

		return out, true, nil
	}
}

// Set writes v into field node id of the addressable struct value p,
// allocating embedded nil pointers on the way to a direct field.
func (t *Tree) Set(p reflect.Value, id NodeID, helper, v reflect.Value) error {
	n := t.nodes[id]

	switch {
	case n.Mutator == "":
		f := p
		for i, x := range n.FieldIndex {
			if i > 0 && f.Kind() == reflect.Pointer {
				if f.IsNil() {
					f.Set(reflect.New(f.Type().Elem()))
				}

				f = f.Elem()
			}

			f = f.Field(x)
		}

		f.Set(v)

		return nil

	case n.Helper:
		if _, err := call(helper.MethodByName(n.Mutator), p, v); err != nil {
			return fmt.Errorf("helper mutator %s: %w", n.Mutator, err)
		}

		return nil

	default:
		if _, err := call(p.Addr().MethodByName(n.Mutator), v); err != nil {
			return fmt.Errorf("mutator %s: %w", n.Mutator, err)
		}

		return nil
	}
}

// call invokes an accessor or mutator style method and splits off a
// trailing error. Arguments are passed by pointer when the method wants one.
func call(m reflect.Value, args ...reflect.Value) (reflect.Value, error) {
	mt := m.Type()
	for i, a := range args {
		if mt.In(i).Kind() == reflect.Pointer && a.Kind() != reflect.Pointer {
			args[i] = Addressable(a)
		}
	}

	out := m.Call(args)
	if len(out) == 0 {
		return reflect.Value{}, nil
	}

	last := out[len(out)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			return reflect.Value{}, last.Interface().(error)
		}

		out = out[:len(out)-1]
	}

	if len(out) == 0 {
		return reflect.Value{}, nil
	}

	return out[0], nil
}

// Members lists the members of container c for member node id. Maps and
// sets are ordered by SortedKeys.
func (t *Tree) Members(c reflect.Value, id NodeID) []Member {
	n := t.nodes[id]

	d, ok := Deref(c)
	if !ok {
		return nil
	}

	var members []Member

	switch d.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < d.Len(); i++ {
			members = append(members, Member{Ordinal: i, Value: d.Index(i)})
		}

	case reflect.Map:
		for i, k := range SortedKeys(d) {
			m := Member{Ordinal: i, Key: k, Value: k}
			if n.Shape == schema.ShapeMapValue {
				m.Value = d.MapIndex(k)
			}

			members = append(members, m)
		}
	}

	return members
}

// SortedKeys returns the keys of map m in ascending order: numbers by
// value, strings lexically, false before true, anything else by its
// fmt rendering.
func SortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})

	return keys
}

func keyLess(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() < b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	case reflect.String:
		return a.String() < b.String()
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	default:
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	}
}
