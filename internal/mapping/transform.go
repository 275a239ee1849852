package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ConverterRegistry holds validated converter functions and provides lookup.
// It is safe for concurrent use.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]*Converter
}

// Converter is a registered function of the form func(A) B or
// func(A) (B, error).
type Converter struct {
	name   string
	fn     reflect.Value
	in     reflect.Type
	out    reflect.Type
	hasErr bool
}

// NewConverterRegistry creates a new empty converter registry.
func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{
		converters: make(map[string]*Converter),
	}
}

// Register validates the signature of fn and adds it under name. A name
// can be registered once.
func (r *ConverterRegistry) Register(name string, fn any) error {
	if name == "" {
		return fmt.Errorf("converter name is empty")
	}

	c, err := NewConverter(name, fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.converters[name]; exists {
		return fmt.Errorf("converter %q is already registered", name)
	}

	r.converters[name] = c

	return nil
}

// NewConverter wraps fn without registering it.
func NewConverter(name string, fn any) (*Converter, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("converter %q: expected a function, got %T", name, fn)
	}

	t := v.Type()
	if t.NumIn() != 1 || t.IsVariadic() {
		return nil, fmt.Errorf("converter %q: must take exactly one argument, has %s", name, t)
	}

	c := &Converter{name: name, fn: v, in: t.In(0)}

	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		c.out = t.Out(0)
	case t.NumOut() == 2 && t.Out(1) == errorType:
		c.out = t.Out(0)
		c.hasErr = true
	default:
		return nil, fmt.Errorf("converter %q: must return a value or a value and an error, has %s", name, t)
	}

	return c, nil
}

// Get returns a converter by name, or nil if not found.
func (r *ConverterRegistry) Get(name string) *Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.converters[name]
}

// Has returns true if a converter with the given name exists.
func (r *ConverterRegistry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns all converter names, sorted.
func (r *ConverterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (c *Converter) Name() string      { return c.name }
func (c *Converter) In() reflect.Type  { return c.in }
func (c *Converter) Out() reflect.Type { return c.out }

// Signature renders the function type, e.g. "func([]int) (int, error)".
func (c *Converter) Signature() string {
	return c.fn.Type().String()
}

// Run calls the converter. v must be assignable to the argument type.
func (c *Converter) Run(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		v = reflect.Zero(c.in)
	}

	if !v.Type().AssignableTo(c.in) {
		return reflect.Value{}, fmt.Errorf("converter %s takes %s, got %s", c.name, c.in, v.Type())
	}

	out := c.fn.Call([]reflect.Value{v})
	if c.hasErr && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("converter %s: %w", c.name, out[1].Interface().(error))
	}

	return out[0], nil
}
