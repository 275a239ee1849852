package plan

import (
	"fmt"
	"reflect"

	"chain-mapper/internal/align"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/schema"
	"chain-mapper/primitive"
)

// Input is everything the generator needs about one compiled rule.
type Input struct {
	Rule   string
	Source *pathtree.Tree
	Target *pathtree.Tree
	// From is nil when the rule writes literal values.
	From      *pathtree.Path
	To        *pathtree.Path
	Alignment *align.Alignment

	// Literals are the raw values and Values the same values converted to
	// the type Assign reads.
	Literals []string
	Values   []reflect.Value

	// Assign converts the written value into the target leaf type.
	Assign *primitive.Conversion
	// Stages is the execute pipeline, empty for copy rules.
	Stages []Stage
	// Collect is the element type gathered for a collecting execute rule.
	Collect reflect.Type
	// KeyConversions converts the key of a correlated source map level into
	// the key of the target map level, by target level.
	KeyConversions map[int]*primitive.Conversion
}

type generator struct {
	in   Input
	ops  []Op
	regs int

	loops     []int       // begin-iteration pcs of the open iterations
	continues map[int][]int // guard-continue pcs by loop depth
	returns   []int
}

// Generate emits the operation sequence of a rule.
func Generate(in Input) (*Plan, error) {
	if in.To == nil || in.Alignment == nil || in.Assign == nil {
		return nil, &diagnostic.GenerationError{RuleID: in.Rule, Msg: "incomplete rule input"}
	}

	if got, want := len(in.Alignment.Target), in.To.Chain.Depth(); got != want {
		return nil, &diagnostic.GenerationError{RuleID: in.Rule, Msg: fmt.Sprintf(
			"alignment covers %d target levels, the chain has %d", got, want)}
	}

	g := &generator{in: in, continues: make(map[int][]int)}
	a := in.Alignment

	switch {
	case in.From == nil:
		values := g.reg()
		begin := g.emit(Op{Code: OpBeginIteration, From: FromLiterals, Dst: values, Level: -1, Pin: -1,
			Literals: append([]string(nil), in.Literals...)})
		g.ops[begin].ensureRuntime().values = in.Values
		g.open(begin)
		g.target(values)

	case len(in.Stages) == 0:
		g.target(g.source())

	case a.Collect:
		leaf := g.source()
		slice := g.reg()
		collect := g.emit(Op{Code: OpCollect, Src: leaf, Dst: slice})
		g.ops[collect].ensureRuntime().elem = in.Collect
		g.closeAll()
		g.target(g.invoke(slice))

	case a.Distribute >= 0:
		out := g.invoke(g.source())
		elem := g.reg()
		begin := g.emit(Op{Code: OpBeginIteration, From: FromRegister, Src: out, Dst: elem, Level: -1, Pin: -1})
		g.open(begin)
		g.target(elem)

	default:
		g.target(g.invoke(g.source()))
	}

	g.closeAll()

	for _, pc := range g.returns {
		g.ops[pc].Jump = len(g.ops)
	}

	return &Plan{Rule: in.Rule, Alignment: a, Ops: g.ops, Registers: g.regs}, nil
}

func (g *generator) emit(op Op) int {
	g.ops = append(g.ops, op)
	return len(g.ops) - 1
}

func (g *generator) reg() int {
	r := g.regs
	g.regs++

	return r
}

func (g *generator) open(begin int) {
	g.loops = append(g.loops, begin)
}

// closeAll emits the end-iteration of every open iteration, innermost
// first, and points the iteration and its guards at it.
func (g *generator) closeAll() {
	for depth := len(g.loops) - 1; depth >= 0; depth-- {
		begin := g.loops[depth]
		end := g.emit(Op{Code: OpEndIteration, Level: g.ops[begin].Level, Jump: begin})
		g.ops[begin].Jump = end

		for _, pc := range g.continues[depth] {
			g.ops[pc].Jump = end
		}

		delete(g.continues, depth)
	}

	g.loops = g.loops[:0]
}

// guard skips a null value: the whole rule outside iterations, the current
// member inside one.
func (g *generator) guard(r int) {
	if len(g.loops) == 0 {
		g.returns = append(g.returns, g.emit(Op{Code: OpGuardNullReturn, Src: r}))
		return
	}

	depth := len(g.loops) - 1
	g.continues[depth] = append(g.continues[depth], g.emit(Op{Code: OpGuardNullContinue, Src: r}))
}

// source emits the reads of the source chain and returns the register of
// the leaf value.
func (g *generator) source() int {
	path := g.in.From
	tree := g.in.Source
	ch := path.Chain

	cur := g.reg()
	g.emit(Op{Code: OpLoadRoot, Dst: cur})
	g.guard(cur)

	seek := -1

	for i, h := range path.Hops {
		leaf := i == len(path.Hops)-1

		if h.Member {
			field := path.Hops[i-1].Node
			dst := g.reg()
			begin := g.emit(Op{
				Code:   OpBeginIteration,
				From:   FromSource,
				Src:    cur,
				Dst:    dst,
				Node:   field,
				Member: h.Node,
				Level:  ch.LevelOf(h.Token),
				Pin:    ch.Token(h.Token).Index,
				Key:    tree.Path(field),
			})

			if seek >= 0 {
				g.ops[seek].Dst = cur
				g.ops[seek].Jump = begin
				seek = -1
			}

			g.open(begin)
			cur = dst

			if leaf {
				g.guard(cur)
			}

			continue
		}

		if seek < 0 && (i == 0 || path.Hops[i-1].Member) {
			if next := nextMember(path.Hops, i); next >= 0 {
				seek = g.emit(Op{
					Code:  OpSeekIndex,
					Level: ch.LevelOf(path.Hops[next].Token),
					Key:   tree.Path(path.Hops[next-1].Node),
				})
			}
		}

		dst := g.reg()
		g.emit(Op{Code: OpDescendMember, Src: cur, Dst: dst, Node: h.Node})
		cur = dst

		if leaf || !path.Hops[i+1].Member {
			g.guard(cur)
		}
	}

	return cur
}

func nextMember(hops []pathtree.Hop, from int) int {
	for i := from; i < len(hops); i++ {
		if hops[i].Member {
			return i
		}
	}

	return -1
}

func (g *generator) invoke(src int) int {
	names := make([]string, 0, len(g.in.Stages))
	for _, s := range g.in.Stages {
		names = append(names, s.Name())
	}

	dst := g.reg()
	pc := g.emit(Op{Code: OpInvoke, Src: src, Dst: dst, Stages: names})
	rt := g.ops[pc].ensureRuntime()
	rt.stages = g.in.Stages
	rt.elem = g.in.Collect

	return dst
}

// target emits the descent of the target chain ending in the write of the
// value in register value.
func (g *generator) target(value int) {
	path := g.in.To
	tree := g.in.Target
	ch := path.Chain
	conv := g.in.Assign

	g.emit(Op{Code: OpEnterTarget})

	for i, h := range path.Hops {
		last := i == len(path.Hops)-1
		n := tree.Node(h.Node)

		if h.Member {
			level := ch.LevelOf(h.Token)
			op := Op{
				Code:    OpWriteCollectionMember,
				Node:    path.Hops[i-1].Node,
				Member:  h.Node,
				Target:  true,
				Level:   level,
				Pin:     ch.Token(h.Token).Index,
				Policy:  g.in.Alignment.Target[level],
				Inherit: -1,
			}

			if n.Shape == schema.ShapeMapKey || n.Shape == schema.ShapeMapValue {
				op.Code = OpWriteMapEntry
				op.Inherit = g.inherit(level, n)
			}

			if last {
				op.Terminal = true
				op.Src = value
				op.Conversion = conv.String()
			}

			pc := g.emit(op)
			if last {
				g.ops[pc].ensureRuntime().conv = conv
			}

			if op.Inherit >= 0 {
				g.ops[pc].ensureRuntime().keyConv = g.in.KeyConversions[level]
			}

			continue
		}

		if last {
			pc := g.emit(Op{Code: OpAssignScalar, Src: value, Node: h.Node, Target: true, Terminal: true, Conversion: conv.String()})
			g.ops[pc].ensureRuntime().conv = conv

			continue
		}

		g.emit(Op{Code: OpCreateIfAbsent, Node: h.Node, Target: true})
		g.emit(Op{Code: OpDescendMember, Node: h.Node, Target: true})
	}
}

// inherit returns the source level whose key a value-only map entry takes
// at target level, or -1.
func (g *generator) inherit(level int, member *pathtree.Node) int {
	if member.Shape != schema.ShapeMapValue || g.in.From == nil {
		return -1
	}

	src, ok := g.in.Alignment.Correlated(level)
	if !ok || !g.in.From.Chain.LevelToken(src).IsMap() {
		return -1
	}

	if g.in.KeyConversions[level] == nil {
		return -1
	}

	return src
}
