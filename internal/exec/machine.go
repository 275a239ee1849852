package exec

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"chain-mapper/internal/index"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/plan"
)

// Options configures a Machine.
type Options struct {
	// Helper receives helper accessor and mutator calls.
	Helper reflect.Value
	Logger *zap.Logger
}

// Machine interprets the plans of one compiled spec.
type Machine struct {
	source *pathtree.Tree
	target *pathtree.Tree
	plans  []*plan.Plan
	helper reflect.Value
	logger *zap.Logger
}

func New(source, target *pathtree.Tree, plans []*plan.Plan, opts Options) *Machine {
	m := &Machine{
		source: source,
		target: target,
		plans:  plans,
		helper: opts.Helper,
		logger: opts.Logger,
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return m
}

// Collections lists the source collection fields the plans iterate, the
// fields a runtime index needs.
func (m *Machine) Collections() []pathtree.NodeID {
	seen := make(map[pathtree.NodeID]struct{})

	var out []pathtree.NodeID

	for _, p := range m.plans {
		for _, op := range p.Ops {
			if op.Code != plan.OpBeginIteration || op.From != plan.FromSource {
				continue
			}

			if _, ok := seen[op.Node]; ok {
				continue
			}

			seen[op.Node] = struct{}{}
			out = append(out, op.Node)
		}
	}

	return out
}

// Index builds the runtime index of src for the plans, nil when src holds
// no collection data.
func (m *Machine) Index(src reflect.Value) (*index.Index, error) {
	return index.Build(m.source, m.Collections(), src, m.helper)
}

// Run executes every plan against src, writing into the value dst points
// to. idx may be nil. Rules run in order; a failing rule stops at its
// failure and the others still run. The failures are joined.
func (m *Machine) Run(src, dst reflect.Value, idx *index.Index) error {
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %s", dst.Kind())
	}

	x := &execution{
		m:        m,
		src:      src,
		dst:      dst.Elem(),
		idx:      idx,
		fills:    make(map[string]int),
		builders: make(map[uintptr]*builder),
	}

	var errs []error

	for _, p := range m.plans {
		if err := x.rule(p); err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", p.Rule, err))
		}
	}

	if err := x.flush(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// execution is the state of one Run shared by its rules.
type execution struct {
	m   *Machine
	src reflect.Value
	dst reflect.Value
	idx *index.Index

	// fills counts the occupied elements of target arrays by array
	// instance.
	fills map[string]int
	// builders buffer the entries of target maps and sets until flush.
	builders map[uintptr]*builder
	order    []*builder
}

type loop struct {
	begin   int
	level   int
	members []pathtree.Member
	pos     int
}

func (l *loop) current() pathtree.Member { return l.members[l.pos] }

type frame struct {
	v      reflect.Value
	commit func() error
}

// run is the state of one rule.
type run struct {
	x     *execution
	p     *plan.Plan
	regs  []reflect.Value
	loops []*loop

	frames []frame
	// coord holds the positions chosen at the target levels of the current
	// descent.
	coord []int
	bases map[string]int
}

func (x *execution) rule(p *plan.Plan) error {
	r := &run{
		x:     x,
		p:     p,
		regs:  make([]reflect.Value, p.Registers),
		bases: make(map[string]int),
	}

	return r.exec()
}

func (r *run) exec() error {
	ops := r.p.Ops
	src := r.x.m.source

	for pc := 0; pc < len(ops); {
		op := &ops[pc]

		switch op.Code {
		case plan.OpLoadRoot:
			r.regs[op.Dst] = r.x.src
			pc++

		case plan.OpGuardNullReturn, plan.OpGuardNullContinue:
			if isNull(r.regs[op.Src]) {
				pc = op.Jump
			} else {
				pc++
			}

		case plan.OpSeekIndex:
			if r.x.idx == nil {
				pc++
				continue
			}

			begin := &ops[op.Jump]

			c, ok, err := r.x.idx.Collection(begin.Node, r.sourceCoord())
			if err != nil {
				return err
			}

			if ok {
				r.regs[op.Dst] = c
			} else {
				r.regs[op.Dst] = reflect.Value{}
			}

			pc = op.Jump

		case plan.OpDescendMember:
			if op.Target {
				if err := r.descend(op.Node); err != nil {
					return err
				}

				pc++

				continue
			}

			v, ok, err := src.Read(r.regs[op.Src], op.Node, r.x.m.helper)
			if err != nil {
				return err
			}

			if !ok {
				v = reflect.Value{}
			}

			r.regs[op.Dst] = v
			pc++

		case plan.OpBeginIteration:
			members, err := r.members(op)
			if err != nil {
				return err
			}

			if len(members) == 0 {
				pc = op.Jump + 1
				continue
			}

			r.loops = append(r.loops, &loop{begin: pc, level: op.Level, members: members})
			r.regs[op.Dst] = members[0].Value
			pc++

		case plan.OpEndIteration:
			l := r.loops[len(r.loops)-1]
			l.pos++

			if l.pos < len(l.members) {
				r.regs[ops[l.begin].Dst] = l.current().Value
				pc = op.Jump + 1

				continue
			}

			r.loops = r.loops[:len(r.loops)-1]
			pc++

		case plan.OpEnterTarget:
			r.frames = append(r.frames[:0], frame{v: r.x.dst})
			r.coord = r.coord[:0]
			pc++

		case plan.OpCreateIfAbsent:
			if err := r.create(op.Node); err != nil {
				return err
			}

			pc++

		case plan.OpAssignScalar:
			v, err := convert(op, r.regs[op.Src])
			if err != nil {
				return err
			}

			if err := r.x.m.target.Set(r.top(), op.Node, r.x.m.helper, v); err != nil {
				return err
			}

			if err := r.commit(); err != nil {
				return err
			}

			pc++

		case plan.OpWriteCollectionMember, plan.OpWriteMapEntry:
			placed, err := r.write(op)
			if err != nil {
				return err
			}

			if !placed {
				pc = r.skip()
				continue
			}

			pc++

		case plan.OpInvoke:
			v := r.regs[op.Src]
			if !v.IsValid() && op.Elem() != nil {
				v = reflect.MakeSlice(reflect.SliceOf(op.Elem()), 0, 0)
			}

			out, err := plan.RunPipeline(v, op.Pipeline())
			if err != nil {
				return err
			}

			r.regs[op.Dst] = out
			pc++

		case plan.OpCollect:
			s := r.regs[op.Dst]
			if !s.IsValid() {
				s = reflect.MakeSlice(reflect.SliceOf(op.Elem()), 0, 0)
			}

			r.regs[op.Dst] = reflect.Append(s, r.regs[op.Src])
			pc++

		default:
			return fmt.Errorf("unknown op %s at %d", op.Code, pc)
		}
	}

	return nil
}

// skip returns the pc that abandons the current visit: the end of the
// innermost iteration, or the end of the plan outside iterations.
func (r *run) skip() int {
	if len(r.loops) == 0 {
		return len(r.p.Ops)
	}

	return r.p.Ops[r.loops[len(r.loops)-1].begin].Jump
}

func (r *run) members(op *plan.Op) ([]pathtree.Member, error) {
	var members []pathtree.Member

	switch op.From {
	case plan.FromLiterals:
		for i, v := range op.Values() {
			members = append(members, pathtree.Member{Ordinal: i, Value: v})
		}

		return members, nil

	case plan.FromRegister:
		d, ok := pathtree.Deref(r.regs[op.Src])
		if !ok {
			return nil, nil
		}

		if d.Kind() != reflect.Slice && d.Kind() != reflect.Array {
			return nil, fmt.Errorf("pipeline returned %s, expected an array or slice to distribute", d.Type())
		}

		for i := 0; i < d.Len(); i++ {
			members = append(members, pathtree.Member{Ordinal: i, Value: d.Index(i)})
		}

		return members, nil
	}

	if r.x.idx != nil {
		ms, err := r.x.idx.Members(op.Node, op.Member, r.sourceCoord())
		if err != nil {
			return nil, err
		}

		members = ms
	} else {
		members = r.x.m.source.Members(r.regs[op.Src], op.Member)
	}

	if op.Pin < 0 {
		return members, nil
	}

	if op.Pin < len(members) {
		return members[op.Pin : op.Pin+1], nil
	}

	return nil, nil
}

// sourceCoord returns the ordinals of the open source iterations.
func (r *run) sourceCoord() index.Coord {
	var coord index.Coord
	for _, l := range r.loops {
		if l.level >= 0 {
			coord = append(coord, l.current().Ordinal)
		}
	}

	return coord
}

// sourceMember returns the current member of source level level.
func (r *run) sourceMember(level int) (pathtree.Member, bool) {
	for _, l := range r.loops {
		if l.level == level {
			return l.current(), true
		}
	}

	return pathtree.Member{}, false
}

// sourcePos is the position of the current member of source level level
// within its iteration. A pinned level iterates one member at position 0.
func (r *run) sourcePos(level int) int {
	for _, l := range r.loops {
		if l.level == level {
			return l.pos
		}
	}

	return 0
}

// fanIndex is the position of the current value of the innermost fan-out.
func (r *run) fanIndex() int {
	for i := len(r.loops) - 1; i >= 0; i-- {
		if r.loops[i].level < 0 {
			return r.loops[i].pos
		}
	}

	return 0
}

func isNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func convert(op *plan.Op, v reflect.Value) (reflect.Value, error) {
	conv := op.Conv()
	if conv == nil {
		return v, nil
	}

	if v.Kind() == reflect.Interface && conv.From.Kind() != reflect.Interface {
		v = v.Elem()
	}

	return conv.Apply(v)
}
