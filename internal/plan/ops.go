package plan

import (
	"fmt"
	"reflect"
	"strings"

	"chain-mapper/internal/align"
	"chain-mapper/internal/pathtree"
	"chain-mapper/primitive"
)

//go:generate go tool stringer -type=OpCode,From -linecomment -output=ops_string.go

// OpCode identifies an operation of a rule plan.
type OpCode int

const (
	// OpLoadRoot loads the source root into Dst.
	OpLoadRoot OpCode = iota // load-root
	// OpGuardNullReturn ends the rule when Src is null.
	OpGuardNullReturn // guard-null-return
	// OpGuardNullContinue skips to the end of the innermost iteration when
	// Src is null.
	OpGuardNullContinue // guard-null-continue
	// OpSeekIndex loads the collection of iteration Level from the runtime
	// index into Dst and jumps to the iteration. Without an index it falls
	// through to the field descents it replaces.
	OpSeekIndex // seek-index
	// OpDescendMember reads field Node of Src into Dst on the source side,
	// or enters field Node of the current target value.
	OpDescendMember // descend-member
	// OpCreateIfAbsent allocates target field Node when it is nil.
	OpCreateIfAbsent // create-if-absent
	// OpBeginIteration iterates the members of a source container,
	// literal values or a pipeline result, binding each to Dst.
	OpBeginIteration // begin-iteration
	// OpEndIteration advances the iteration opened at Jump.
	OpEndIteration // end-iteration
	// OpEnterTarget restarts target descent at the target root.
	OpEnterTarget // enter-target
	// OpAssignScalar converts Src and writes it into target field Node.
	OpAssignScalar // assign-scalar
	// OpWriteCollectionMember selects an element of an array, slice or set
	// by Policy and enters it, writing Src when Terminal.
	OpWriteCollectionMember // write-collection-member
	// OpWriteMapEntry selects a map entry by Policy and enters its key or
	// value, writing Src when Terminal.
	OpWriteMapEntry // write-map-entry
	// OpInvoke runs the execute pipeline on Src into Dst.
	OpInvoke // invoke
	// OpCollect appends Src to the slice in Dst.
	OpCollect // collect
)

func (c OpCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *OpCode) UnmarshalText(text []byte) error {
	for op := OpLoadRoot; op <= OpCollect; op++ {
		if op.String() == string(text) {
			*c = op
			return nil
		}
	}

	return fmt.Errorf("unknown op %q", text)
}

// From is the value stream of an iteration.
type From int

const (
	FromSource   From = iota // source
	FromLiterals             // literals
	FromRegister             // register
)

func (f From) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *From) UnmarshalText(text []byte) error {
	for from := FromSource; from <= FromRegister; from++ {
		if from.String() == string(text) {
			*f = from
			return nil
		}
	}

	return fmt.Errorf("unknown iteration source %q", text)
}

// Op is one operation. Registers and node ids refer to the plan and to the
// source or target tree; everything needed to run it beyond that lives in
// unexported fields and is not serialized.
type Op struct {
	Code   OpCode          `yaml:"op"`
	Src    int             `yaml:"src,omitempty"`
	Dst    int             `yaml:"dst,omitempty"`
	Node   pathtree.NodeID `yaml:"node,omitempty"`
	Member pathtree.NodeID `yaml:"member,omitempty"`
	Target bool            `yaml:"target,omitempty"`
	Level  int             `yaml:"level,omitempty"`
	Jump   int             `yaml:"jump,omitempty"`
	From   From            `yaml:"from,omitempty"`
	// Pin is a literal index of the chain, -1 without.
	Pin int `yaml:"pin,omitempty"`
	// Key is the index id template of a collection, e.g. "Orders[].Lines".
	Key    string       `yaml:"key,omitempty"`
	Policy align.Policy `yaml:"policy,omitempty"`
	// Inherit is the source level whose map key a new target entry takes,
	// -1 without.
	Inherit    int      `yaml:"inherit,omitempty"`
	Terminal   bool     `yaml:"terminal,omitempty"`
	Conversion string   `yaml:"conversion,omitempty"`
	Literals   []string `yaml:"literals,omitempty"`
	Stages     []string `yaml:"stages,omitempty"`

	rt *runtime
}

type runtime struct {
	conv    *primitive.Conversion
	keyConv *primitive.Conversion
	values  []reflect.Value
	elem    reflect.Type
	stages  []Stage
}

func (o *Op) ensureRuntime() *runtime {
	if o.rt == nil {
		o.rt = &runtime{}
	}

	return o.rt
}

// Conv is the conversion of a terminal write.
func (o *Op) Conv() *primitive.Conversion {
	if o.rt == nil {
		return nil
	}

	return o.rt.conv
}

// KeyConv converts an inherited source map key.
func (o *Op) KeyConv() *primitive.Conversion {
	if o.rt == nil {
		return nil
	}

	return o.rt.keyConv
}

// Values are the converted literals of a literal iteration.
func (o *Op) Values() []reflect.Value {
	if o.rt == nil {
		return nil
	}

	return o.rt.values
}

// Elem is the element type of a collected slice.
func (o *Op) Elem() reflect.Type {
	if o.rt == nil {
		return nil
	}

	return o.rt.elem
}

// Pipeline returns the stages of an invoke op in run order.
func (o *Op) Pipeline() []Stage {
	if o.rt == nil {
		return nil
	}

	return o.rt.stages
}

// Record returns the op without its runtime part.
func (o Op) Record() Op {
	o.rt = nil
	o.Literals = append([]string(nil), o.Literals...)
	o.Stages = append([]string(nil), o.Stages...)

	if len(o.Literals) == 0 {
		o.Literals = nil
	}

	if len(o.Stages) == 0 {
		o.Stages = nil
	}

	return o
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Code.String())

	switch o.Code {
	case OpLoadRoot:
		fmt.Fprintf(&b, " r%d", o.Dst)
	case OpGuardNullReturn, OpGuardNullContinue:
		fmt.Fprintf(&b, " r%d -> %d", o.Src, o.Jump)
	case OpSeekIndex:
		fmt.Fprintf(&b, " %s -> r%d, %d", o.Key, o.Dst, o.Jump)
	case OpDescendMember, OpCreateIfAbsent:
		if o.Target {
			fmt.Fprintf(&b, " target n%d", o.Node)
		} else {
			fmt.Fprintf(&b, " r%d.n%d -> r%d", o.Src, o.Node, o.Dst)
		}
	case OpBeginIteration:
		fmt.Fprintf(&b, " %s", o.From)
		if o.From != FromLiterals {
			fmt.Fprintf(&b, " r%d", o.Src)
		}
		fmt.Fprintf(&b, " -> r%d level %d, end %d", o.Dst, o.Level, o.Jump)
	case OpEndIteration:
		fmt.Fprintf(&b, " level %d, begin %d", o.Level, o.Jump)
	case OpAssignScalar:
		fmt.Fprintf(&b, "(%s) r%d -> n%d", o.Conversion, o.Src, o.Node)
	case OpWriteCollectionMember, OpWriteMapEntry:
		fmt.Fprintf(&b, " n%d %s", o.Member, o.Policy)
		if o.Terminal {
			fmt.Fprintf(&b, " (%s) r%d", o.Conversion, o.Src)
		}
	case OpInvoke:
		fmt.Fprintf(&b, " %s r%d -> r%d", strings.Join(o.Stages, ","), o.Src, o.Dst)
	case OpCollect:
		fmt.Fprintf(&b, " r%d -> r%d", o.Src, o.Dst)
	}

	return b.String()
}

// Plan is the generated operation sequence of one rule.
type Plan struct {
	Rule      string
	Alignment *align.Alignment
	Ops       []Op
	Registers int
}

// String lists the ops one per line, prefixed by their position.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s: %s\n", p.Rule, p.Alignment.Classification)

	for i, op := range p.Ops {
		fmt.Fprintf(&b, "%3d %s\n", i, op)
	}

	return b.String()
}

// Count returns how many ops have the given code.
func (p *Plan) Count(code OpCode) int {
	n := 0
	for _, op := range p.Ops {
		if op.Code == code {
			n++
		}
	}

	return n
}
