package pathtree

import (
	"fmt"
	"reflect"

	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/match"
	"chain-mapper/internal/schema"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (c *Compiler) needsAccessor(leaf bool) bool { return c.side == SideSource || !leaf }
func (c *Compiler) needsMutator() bool          { return c.side == SideTarget }

// resolveAccess fills in default accessor and mutator names for unexported
// fields and checks every named method against the field type.
func (c *Compiler) resolveAccess(rule string, ch *chain.PathChain, i int, n *Node, sf reflect.StructField, leaf bool) error {
	if !sf.IsExported() {
		if n.Accessor == "" && c.needsAccessor(leaf) {
			n.Accessor = schema.DefaultAccessor(sf)
		}

		if n.Mutator == "" && c.needsMutator() {
			n.Mutator = schema.DefaultMutator(sf)
		}
	}

	if n.Accessor != "" {
		if err := c.checkAccessor(rule, ch, i, n, n.Accessor); err != nil {
			return err
		}
	}

	if n.Mutator != "" {
		if err := c.checkMutator(rule, ch, i, n, n.Mutator); err != nil {
			return err
		}
	}

	return nil
}

// ensureAccess adds the methods an unexported field needs for this use of
// an existing node.
func (c *Compiler) ensureAccess(rule string, ch *chain.PathChain, i int, id NodeID, sf reflect.StructField, leaf bool) error {
	n := c.tree.Node(id)

	if n.Accessor == "" && c.needsAccessor(leaf) {
		name := schema.DefaultAccessor(sf)
		if err := c.checkAccessor(rule, ch, i, n, name); err != nil {
			return err
		}

		c.tree.touch(id).Accessor = name
	}

	if n.Mutator == "" && c.needsMutator() {
		name := schema.DefaultMutator(sf)
		if err := c.checkMutator(rule, ch, i, n, name); err != nil {
			return err
		}

		c.tree.touch(id).Mutator = name
	}

	return nil
}

func (c *Compiler) checkAccessor(rule string, ch *chain.PathChain, i int, n *Node, name string) error {
	if n.Helper {
		m, err := c.helperMethod(rule, ch, i, n, name)
		if err != nil {
			return err
		}

		mt := m.Type
		if mt.NumIn() != 2 || !parentParam(mt.In(1), n.Owner) || !validResults(mt, n.Type) {
			return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
				"helper accessor %s must be func(%s) %s, has %s", name, n.Owner, n.Type, mt))
		}

		return nil
	}

	m, ok := c.in.Method(n.Owner, name)
	if !ok {
		return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"no accessor method %s on %s for field %q", name, n.Owner, n.Field))
	}

	if mt := m.Type; mt.NumIn() != 1 || !validResults(mt, n.Type) {
		return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"accessor %s must take no arguments and return %s, has %s", name, n.Type, mt))
	}

	return nil
}

func (c *Compiler) checkMutator(rule string, ch *chain.PathChain, i int, n *Node, name string) error {
	if n.Helper {
		m, err := c.helperMethod(rule, ch, i, n, name)
		if err != nil {
			return err
		}

		mt := m.Type
		if mt.NumIn() != 3 || mt.In(1) != reflect.PointerTo(n.Owner) || mt.In(2) != n.Type || !validErrorResult(mt) {
			return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
				"helper mutator %s must be func(*%s, %s), has %s", name, n.Owner, n.Type, mt))
		}

		return nil
	}

	m, ok := c.in.Method(n.Owner, name)
	if !ok {
		return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"no mutator method %s on %s for field %q", name, n.Owner, n.Field))
	}

	if mt := m.Type; mt.NumIn() != 2 || mt.In(1) != n.Type || !validErrorResult(mt) {
		return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"mutator %s must take one %s argument, has %s", name, n.Type, mt))
	}

	return nil
}

func (c *Compiler) helperMethod(rule string, ch *chain.PathChain, i int, n *Node, name string) (reflect.Method, error) {
	if c.helper == nil {
		return reflect.Method{}, c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"helper method %s requested but the spec declares no helper type", name))
	}

	m, ok := c.in.Method(c.helper, name)
	if !ok {
		return reflect.Method{}, c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"helper type %s has no method %s", c.helper, name))
	}

	return m, nil
}

func parentParam(p, owner reflect.Type) bool {
	return p == owner || p == reflect.PointerTo(owner)
}

func validResults(mt reflect.Type, want reflect.Type) bool {
	switch mt.NumOut() {
	case 1:
		return mt.Out(0) == want
	case 2:
		return mt.Out(0) == want && mt.Out(1) == errorType
	default:
		return false
	}
}

func validErrorResult(mt reflect.Type) bool {
	return mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType)
}

// concrete resolves a type override. Interface fields take any concrete
// type implementing them; other fields only accept their own type, for
// which nil is returned.
func (c *Compiler) concrete(rule string, ch *chain.PathChain, i int, sf reflect.StructField, expr string) (reflect.Type, error) {
	t, err := c.in.Registry().Resolve(expr)
	if err != nil {
		return nil, c.semantic(rule, ch, i, sf.Name, fmt.Sprintf("invalid type override %q: %v", expr, err))
	}

	if sf.Type.Kind() != reflect.Interface {
		if t != sf.Type {
			return nil, c.semantic(rule, ch, i, sf.Name, fmt.Sprintf(
				"type override %s differs from the type %s of field %q; only interface fields accept a concrete type",
				t, sf.Type, sf.Name))
		}

		return nil, nil
	}

	if t.Kind() == reflect.Interface {
		return nil, c.semantic(rule, ch, i, sf.Name, fmt.Sprintf("type override %s of field %q is not concrete", t, sf.Name))
	}

	if !t.Implements(sf.Type) {
		return nil, c.semantic(rule, ch, i, sf.Name, fmt.Sprintf("%s does not implement %s of field %q", t, sf.Type, sf.Name))
	}

	return t, nil
}

// resolveShape sets the descriptor of a new field node and validates the
// notation of its token.
func (c *Compiler) resolveShape(rule string, ch *chain.PathChain, i int, n *Node, tok chain.Token, leaf bool) error {
	eff := n.Effective()

	if schema.IsInterface(eff) && (tok.Bracketed() || !leaf) {
		return c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"field %q is an interface (%s); add a concrete type override to descend into it", n.Field, eff))
	}

	if !tok.Bracketed() {
		n.Shape = naturalShape(eff)
		if !leaf && n.Shape.IsContainer() {
			return c.notationRequired(rule, ch, i, n.Field, n.Shape)
		}

		return nil
	}

	shape, err := c.notationShape(rule, ch, i, n, tok)
	if err != nil {
		return err
	}

	n.Shape = shape
	n.Notated = true

	return nil
}

func naturalShape(t reflect.Type) schema.Shape {
	if shape, ok := schema.CollectionShape(t); ok {
		return shape
	}

	if schema.IsMapType(t) {
		return schema.ShapeMap
	}

	return schema.ShapePlain
}

func (c *Compiler) notationShape(rule string, ch *chain.PathChain, i int, n *Node, tok chain.Token) (schema.Shape, error) {
	eff := n.Effective()

	if tok.Role == chain.RoleMember {
		shape, ok := schema.CollectionShape(eff)
		if !ok {
			return schema.ShapePlain, c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
				"collection notation on field %q of type %s; expected an array, slice or set", n.Field, eff))
		}

		return shape, nil
	}

	if !schema.IsMapType(eff) {
		return schema.ShapePlain, c.semantic(rule, ch, i, n.Field, fmt.Sprintf(
			"map notation on field %q of type %s; expected a map", n.Field, eff))
	}

	return schema.ShapeMap, nil
}

func (c *Compiler) notationRequired(rule string, ch *chain.PathChain, i int, field string, shape schema.Shape) error {
	return c.semantic(rule, ch, i, field, fmt.Sprintf(
		"field %q is a %s; use collection or map notation to descend into it", field, shape))
}

func (c *Compiler) missingField(rule string, ch *chain.PathChain, i int, name string, owner reflect.Type) error {
	err := c.semantic(rule, ch, i, name, fmt.Sprintf("no field %q on %s", name, owner))
	err.Suggestions = match.Suggest(name, c.in.FieldNames(owner), 3)

	return err
}

func (c *Compiler) semantic(rule string, ch *chain.PathChain, i int, field, msg string) *diagnostic.SemanticError {
	return &diagnostic.SemanticError{
		RuleID: rule,
		Chain:  ch.Raw(),
		Token:  i,
		Field:  field,
		Msg:    msg,
	}
}
