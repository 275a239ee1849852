package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"chain-mapper/internal/common"
)

var (
	anyType         = reflect.TypeOf((*any)(nil)).Elem()
	emptyStructType = reflect.TypeOf(struct{}{})
)

var builtinSamples = []any{
	false, "", int(0), int8(0), int16(0), int32(0), int64(0),
	uint(0), uint8(0), uint16(0), uint32(0), uint64(0), uintptr(0),
	float32(0), float64(0), complex64(0), complex128(0),
	time.Time{}, time.Duration(0),
}

// Registry maps type names to reflect types. Named types are reachable by
// package alias ("store.Order"), by reflect name and by full import path
// ("chain-mapper/store.Order").
type Registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	named  map[reflect.Type]struct{}
}

// NewRegistry returns a registry that already knows the builtin types,
// time.Time and time.Duration.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]reflect.Type),
		named:  make(map[reflect.Type]struct{}),
	}

	r.Register(builtinSamples...)
	r.byName["byte"] = reflect.TypeOf(byte(0))
	r.byName["rune"] = reflect.TypeOf(rune(0))

	return r
}

// Register adds the types of the sample values. Pointers are registered as
// their element type.
func (r *Registry) Register(samples ...any) {
	for _, s := range samples {
		if s == nil {
			continue
		}

		r.RegisterType(reflect.TypeOf(s))
	}
}

// RegisterType adds a named type; unnamed types are ignored.
func (r *Registry) RegisterType(t reflect.Type) {
	t = Indirect(t)
	if t.Name() == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.named[t] = struct{}{}
	r.byName[t.String()] = t

	if t.PkgPath() == "" {
		return
	}

	r.byName[t.PkgPath()+"."+t.Name()] = t
	r.byName[common.PkgAlias(t.PkgPath())+"."+t.Name()] = t
}

// Lookup finds a named type by exact name, then by import path suffix
// ("store.Order" for "example.com/app/store.Order"), then by a unique bare
// type name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.byName[name]; ok {
		return t, true
	}

	pkg, typeName := "", name
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		pkg, typeName = name[:dot], name[dot+1:]
	}

	var found reflect.Type
	for t := range r.named {
		if t.Name() != typeName {
			continue
		}

		if pkg != "" && t.PkgPath() != pkg && !strings.HasSuffix(t.PkgPath(), "/"+pkg) {
			continue
		}

		if found != nil {
			return nil, false
		}

		found = t
	}

	return found, found != nil
}

// Names lists every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve parses a type expression built from registered names with the
// "*T", "[]T", "[N]T" and "map[K]V" constructors, plus "any" and
// "struct{}".
func (r *Registry) Resolve(expr string) (reflect.Type, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == "":
		return nil, fmt.Errorf("empty type expression")

	case expr == "any" || expr == "interface{}" || expr == "interface {}":
		return anyType, nil

	case expr == "struct{}" || expr == "struct {}":
		return emptyStructType, nil

	case strings.HasPrefix(expr, "*"):
		elem, err := r.Resolve(expr[1:])
		if err != nil {
			return nil, err
		}

		return reflect.PointerTo(elem), nil

	case strings.HasPrefix(expr, "[]"):
		elem, err := r.Resolve(expr[2:])
		if err != nil {
			return nil, err
		}

		return reflect.SliceOf(elem), nil

	case strings.HasPrefix(expr, "["):
		end := strings.IndexByte(expr, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated array length in %q", expr)
		}

		n, err := strconv.Atoi(expr[1:end])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid array length in %q", expr)
		}

		elem, err := r.Resolve(expr[end+1:])
		if err != nil {
			return nil, err
		}

		return reflect.ArrayOf(n, elem), nil

	case strings.HasPrefix(expr, "map["):
		end := matchingBracket(expr, len("map"))
		if end < 0 {
			return nil, fmt.Errorf("unterminated map key in %q", expr)
		}

		key, err := r.Resolve(expr[len("map["):end])
		if err != nil {
			return nil, err
		}

		if !key.Comparable() {
			return nil, fmt.Errorf("map key type %s is not comparable", key)
		}

		elem, err := r.Resolve(expr[end+1:])
		if err != nil {
			return nil, err
		}

		return reflect.MapOf(key, elem), nil
	}

	if t, ok := r.Lookup(expr); ok {
		return t, nil
	}

	return nil, fmt.Errorf("unknown type %q", expr)
}

// matchingBracket returns the index of the ']' closing the '[' at open.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// TypeName renders t so that Resolve reads it back for registered types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}

	if t == anyType {
		return "any"
	}

	return t.String()
}
