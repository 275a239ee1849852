package mapper

import (
	"fmt"
	"reflect"
)

// module runs another compiled spec as a pipeline stage: the value becomes
// the source of that spec and a fresh instance of its target is returned.
// The spec is looked up by namespace on every run so redeployments apply.
type module struct {
	engine    *Engine
	namespace string
	in        reflect.Type
	out       reflect.Type
}

// newModule accepts the source root type of spec, or a pointer to it when
// upstream is one.
func newModule(e *Engine, spec *Compiled, upstream reflect.Type) *module {
	m := &module{
		engine:    e,
		namespace: spec.Namespace(),
		in:        spec.SourceType(),
		out:       spec.TargetType(),
	}

	if upstream == reflect.PointerTo(m.in) {
		m.in = upstream
	}

	return m
}

func (m *module) Name() string      { return "module " + m.namespace }
func (m *module) In() reflect.Type  { return m.in }
func (m *module) Out() reflect.Type { return m.out }

func (m *module) Run(v reflect.Value) (reflect.Value, error) {
	spec, ok := m.engine.Spec(m.namespace)
	if !ok {
		return reflect.Value{}, fmt.Errorf("module %s is not compiled", m.namespace)
	}

	b := spec.current()
	if t := b.target.RootType(); t != m.out {
		return reflect.Value{}, fmt.Errorf("module %s now maps into %s, expected %s", m.namespace, t, m.out)
	}

	dst := reflect.New(m.out)
	if err := spec.run(b, v, dst); err != nil {
		return reflect.Value{}, fmt.Errorf("module %s: %w", m.namespace, err)
	}

	return dst.Elem(), nil
}
