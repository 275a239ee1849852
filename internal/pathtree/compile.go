package pathtree

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/schema"
)

// Side tells whether a tree is read (source) or written (target).
type Side int

const (
	SideSource Side = iota
	SideTarget
)

func (s Side) String() string {
	if s == SideTarget {
		return "target"
	}

	return "source"
}

// Override replaces the defaults of one token of a chain.
type Override struct {
	At       int    // token index
	Accessor string // accessor method name
	Mutator  string // mutator method name
	Type     string // concrete type expression for an interface field
	Helper   bool   // accessor and mutator are methods of the helper type
}

// Hop is one step of a compiled chain: the field node of a token, or the
// member node of a bracketed token.
type Hop struct {
	Node   NodeID
	Token  int
	Member bool
}

// Path is a chain compiled into a tree.
type Path struct {
	Chain *chain.PathChain
	Hops  []Hop
	Stem  NodeID // node of the last hop
}

// LevelHop returns the index in Hops of the member hop of nesting level l.
func (p *Path) LevelHop(level int) int {
	token := p.Chain.Levels()[level]
	for i, h := range p.Hops {
		if h.Member && h.Token == token {
			return i
		}
	}

	return -1
}

// Compiler adds chains of one side to a tree.
type Compiler struct {
	tree   *Tree
	in     *schema.Introspector
	side   Side
	helper reflect.Type
	logger *zap.Logger
	diags  *diagnostic.Diagnostics
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithHelper sets the helper type whose methods helper overrides name.
func WithHelper(helper reflect.Type) CompilerOption {
	return func(c *Compiler) { c.helper = helper }
}

// WithLogger sets the logger receiving override conflict warnings.
func WithLogger(logger *zap.Logger) CompilerOption {
	return func(c *Compiler) { c.logger = logger }
}

// WithDiagnostics collects override conflict warnings into diags.
func WithDiagnostics(diags *diagnostic.Diagnostics) CompilerOption {
	return func(c *Compiler) { c.diags = diags }
}

func NewCompiler(tree *Tree, in *schema.Introspector, side Side, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		tree:   tree,
		in:     in,
		side:   side,
		logger: zap.NewNop(),
		diags:  &diagnostic.Diagnostics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Compiler) Tree() *Tree { return c.tree }

// Compile parses raw and compiles it for rule.
func (c *Compiler) Compile(rule, raw string, overrides []Override) (*Path, error) {
	ch, err := chain.Parse(raw)
	if err != nil {
		return nil, diagnostic.WithRule(err, rule)
	}

	return c.CompileChain(rule, ch, overrides)
}

// CompileChain walks the chain from the root, reusing existing nodes and
// creating missing ones. On failure the tree is rolled back, unless the
// caller opened the transaction, in which case rolling back is its job.
func (c *Compiler) CompileChain(rule string, ch *chain.PathChain, overrides []Override) (path *Path, err error) {
	owned := c.tree.Begin()
	defer func() {
		if !owned {
			return
		}

		if err != nil {
			c.tree.Rollback()
		} else {
			c.tree.Commit()
		}
	}()

	byToken := make(map[int]Override, len(overrides))
	for _, ov := range overrides {
		if ov.At < 0 || ov.At >= ch.Len() {
			return nil, c.semantic(rule, ch, -1, "", fmt.Sprintf("override refers to token %d but the chain has %d tokens", ov.At, ch.Len()))
		}

		byToken[ov.At] = ov
	}

	path = &Path{Chain: ch}
	cur := RootID

	for i := 0; i < ch.Len(); i++ {
		tok := ch.Token(i)
		leaf := i == ch.Len()-1
		ov, hasOv := byToken[i]

		id, err := c.field(rule, ch, i, cur, tok, leaf, ov, hasOv)
		if err != nil {
			return nil, err
		}

		c.tree.addRule(id, rule)
		path.Hops = append(path.Hops, Hop{Node: id, Token: i})
		cur = id

		if tok.Bracketed() {
			cur = c.member(rule, i, id, tok)
			path.Hops = append(path.Hops, Hop{Node: cur, Token: i, Member: true})
		}
	}

	path.Stem = cur

	return path, nil
}

// field resolves the field node of token i under parent.
func (c *Compiler) field(rule string, ch *chain.PathChain, i int, parent NodeID, tok chain.Token, leaf bool, ov Override, hasOv bool) (NodeID, error) {
	owner := c.tree.Node(parent).Effective()

	if schema.IsInterface(owner) {
		return NoNode, c.semantic(rule, ch, i, tok.Name, fmt.Sprintf(
			"cannot select field %q through interface type %s without a concrete type override", tok.Name, owner))
	}

	ownerStruct := schema.Indirect(owner)
	if ownerStruct == nil || ownerStruct.Kind() != reflect.Struct {
		return NoNode, c.semantic(rule, ch, i, tok.Name, fmt.Sprintf(
			"cannot select field %q on non-struct type %s", tok.Name, owner))
	}

	sf, ok := c.in.Field(ownerStruct, tok.Name)
	if !ok {
		return NoNode, c.missingField(rule, ch, i, tok.Name, ownerStruct)
	}

	if id, exists := c.tree.Node(parent).Child(sf.Name); exists {
		if err := c.reuse(rule, ch, i, id, sf, tok, leaf, ov, hasOv); err != nil {
			return NoNode, err
		}

		return id, nil
	}

	n := &Node{
		Parent:     parent,
		Key:        sf.Name,
		Index:      i,
		Field:      sf.Name,
		FieldIndex: append([]int(nil), sf.Index...),
		Owner:      ownerStruct,
		Type:       sf.Type,
	}

	if hasOv {
		if ov.Type != "" {
			concrete, err := c.concrete(rule, ch, i, sf, ov.Type)
			if err != nil {
				return NoNode, err
			}

			n.Concrete = concrete
		}

		n.Accessor, n.Mutator, n.Helper = ov.Accessor, ov.Mutator, ov.Helper
	}

	if err := c.resolveAccess(rule, ch, i, n, sf, leaf); err != nil {
		return NoNode, err
	}

	if err := c.resolveShape(rule, ch, i, n, tok, leaf); err != nil {
		return NoNode, err
	}

	return c.tree.add(n), nil
}

// reuse checks that an existing node also serves token i of this chain.
func (c *Compiler) reuse(rule string, ch *chain.PathChain, i int, id NodeID, sf reflect.StructField, tok chain.Token, leaf bool, ov Override, hasOv bool) error {
	n := c.tree.Node(id)
	path := c.tree.Path(id)

	if hasOv {
		if ov.Type != "" {
			concrete, err := c.concrete(rule, ch, i, sf, ov.Type)
			if err != nil {
				return err
			}

			switch {
			case n.Concrete == nil && concrete != nil:
				c.tree.touch(id).Concrete = concrete
			case concrete != nil && n.Concrete != concrete:
				c.conflict(rule, path, fmt.Sprintf("concrete type %s ignored, %s was set by an earlier rule", concrete, n.Concrete))
			}
		}

		if ov.Accessor != "" && ov.Accessor != n.Accessor {
			if n.Accessor == "" && !sf.IsExported() && ov.Helper == n.Helper {
				if err := c.checkAccessor(rule, ch, i, n, ov.Accessor); err != nil {
					return err
				}

				c.tree.touch(id).Accessor = ov.Accessor
			} else {
				c.conflict(rule, path, fmt.Sprintf("accessor %s ignored, an earlier rule set %s", ov.Accessor, describeAccess(n.Accessor)))
			}
		}

		if ov.Mutator != "" && ov.Mutator != n.Mutator {
			if n.Mutator == "" && !sf.IsExported() && ov.Helper == n.Helper {
				if err := c.checkMutator(rule, ch, i, n, ov.Mutator); err != nil {
					return err
				}

				c.tree.touch(id).Mutator = ov.Mutator
			} else {
				c.conflict(rule, path, fmt.Sprintf("mutator %s ignored, an earlier rule set %s", ov.Mutator, describeAccess(n.Mutator)))
			}
		}
	}

	if !sf.IsExported() {
		if err := c.ensureAccess(rule, ch, i, id, sf, leaf); err != nil {
			return err
		}
	}

	if schema.IsInterface(n.Effective()) && (tok.Bracketed() || !leaf) {
		return c.semantic(rule, ch, i, tok.Name, fmt.Sprintf(
			"field %q is an interface (%s); add a concrete type override to descend into it", sf.Name, n.Effective()))
	}

	if !tok.Bracketed() {
		if !leaf && n.Shape.IsContainer() {
			return c.notationRequired(rule, ch, i, sf.Name, n.Shape)
		}

		return nil
	}

	want, err := c.notationShape(rule, ch, i, n, tok)
	if err != nil {
		return err
	}

	switch {
	case !n.Notated:
		nn := c.tree.touch(id)
		nn.Shape = want
		nn.Notated = true
	case n.Shape != want:
		return c.semantic(rule, ch, i, tok.Name, fmt.Sprintf(
			"notation %s uses field %q as %s but an earlier rule used it as %s", tok.Sanitized(), sf.Name, want, n.Shape))
	}

	return nil
}

// member returns the member node for a bracketed token, creating it when
// missing. The field node has already been checked against the notation.
func (c *Compiler) member(rule string, i int, fieldID NodeID, tok chain.Token) NodeID {
	field := c.tree.Node(fieldID)
	key := tok.Role.Marker()

	if id, ok := field.Child(key); ok {
		c.tree.addRule(id, rule)
		return id
	}

	shape := schema.ShapeMember
	switch tok.Role {
	case chain.RoleKey:
		shape = schema.ShapeMapKey
	case chain.RoleValue:
		shape = schema.ShapeMapValue
	}

	id := c.tree.add(&Node{
		Parent: fieldID,
		Key:    key,
		Index:  i,
		Owner:  field.Effective(),
		Type:   schema.MemberType(field.Effective(), shape),
		Shape:  shape,
	})
	c.tree.addRule(id, rule)

	return id
}

func (c *Compiler) conflict(rule, path, msg string) {
	c.diags.AddWarning("override-conflict", msg, rule, path)
	c.logger.Warn("conflicting override",
		zap.String("rule", rule),
		zap.String("path", path),
		zap.String("detail", msg))
}

func describeAccess(name string) string {
	if name == "" {
		return "direct field access"
	}

	return name
}
