package schema

import (
	"reflect"
	"sort"
)

// Introspector resolves fields and methods of declaring types.
type Introspector struct {
	cache    *FieldCache
	registry *Registry
}

// NewIntrospector binds a shared field cache and a type registry. Nil
// arguments are replaced by fresh instances.
func NewIntrospector(cache *FieldCache, registry *Registry) *Introspector {
	if cache == nil {
		cache = NewFieldCache()
	}

	if registry == nil {
		registry = NewRegistry()
	}

	return &Introspector{cache: cache, registry: registry}
}

func (in *Introspector) Registry() *Registry { return in.registry }
func (in *Introspector) Cache() *FieldCache  { return in.cache }

// Field resolves a field on owner or any struct it embeds. owner may be a
// pointer to a struct.
func (in *Introspector) Field(owner reflect.Type, name string) (reflect.StructField, bool) {
	owner = Indirect(owner)
	if owner == nil || owner.Kind() != reflect.Struct || name == "" {
		return reflect.StructField{}, false
	}

	return in.cache.Lookup(owner, name)
}

// FieldNames lists the fields visible on owner, promoted ones included.
func (in *Introspector) FieldNames(owner reflect.Type) []string {
	owner = Indirect(owner)
	if owner == nil || owner.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for _, f := range reflect.VisibleFields(owner) {
		if f.Anonymous && !f.IsExported() {
			continue
		}

		names = append(names, f.Name)
	}

	sort.Strings(names)

	return names
}

// Method looks a method up in the method set of *owner, which includes the
// value receiver methods. The returned Func takes a *owner receiver.
func (in *Introspector) Method(owner reflect.Type, name string) (reflect.Method, bool) {
	owner = Indirect(owner)
	if owner == nil || name == "" {
		return reflect.Method{}, false
	}

	return reflect.PointerTo(owner).MethodByName(name)
}

// DefaultAccessor is the accessor method name for a field that cannot be
// read directly: Name() or, for booleans, IsName(). Exported fields need
// none and get "".
func DefaultAccessor(f reflect.StructField) string {
	if f.IsExported() {
		return ""
	}

	name := exportName(f.Name)
	if Indirect(f.Type).Kind() == reflect.Bool {
		return "Is" + name
	}

	return name
}

// DefaultMutator is SetName for unexported fields and "" otherwise.
func DefaultMutator(f reflect.StructField) string {
	if f.IsExported() {
		return ""
	}

	return "Set" + exportName(f.Name)
}
