package exec

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"chain-mapper/internal/align"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/plan"
	"chain-mapper/internal/schema"
)

func (r *run) top() reflect.Value {
	return r.frames[len(r.frames)-1].v
}

// create allocates target field id of the current frame when it is a nil
// pointer, map or interface.
func (r *run) create(id pathtree.NodeID) error {
	t := r.x.m.target
	p := r.top()

	v, ok, err := t.Get(p, id, r.x.m.helper)
	if err != nil {
		return err
	}

	if ok && !absent(v) {
		return nil
	}

	nv, err := allocate(t.Node(id))
	if err != nil {
		return err
	}

	return t.Set(p, id, r.x.m.helper, nv)
}

func absent(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func allocate(n *pathtree.Node) (reflect.Value, error) {
	t := n.Type
	if t.Kind() == reflect.Interface {
		if n.Concrete == nil {
			return reflect.Value{}, fmt.Errorf("cannot allocate interface field %s without a concrete type", n.Field)
		}

		t = n.Concrete
	}

	switch t.Kind() {
	case reflect.Pointer:
		return reflect.New(t.Elem()), nil
	case reflect.Map:
		return reflect.MakeMap(t), nil
	default:
		return reflect.New(t).Elem(), nil
	}
}

// descend enters target field id of the current frame. Values that cannot
// be changed in place are entered as copies written back by commit.
func (r *run) descend(id pathtree.NodeID) error {
	t := r.x.m.target
	h := r.x.m.helper
	p := r.top()

	v, ok, err := t.Get(p, id, h)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("target field %s is unreachable", t.Path(id))
	}

	wrapped := false
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return fmt.Errorf("target field %s is a nil interface", t.Path(id))
		}

		v = v.Elem()
		wrapped = true
	}

	switch {
	case v.Kind() == reflect.Pointer:
		if v.IsNil() {
			return fmt.Errorf("target field %s is nil", t.Path(id))
		}

		r.frames = append(r.frames, frame{v: v.Elem()})

	case !wrapped && v.CanSet():
		r.frames = append(r.frames, frame{v: v})

	default:
		c := reflect.New(v.Type()).Elem()
		c.Set(v)

		r.frames = append(r.frames, frame{v: c, commit: func() error {
			return t.Set(p, id, h, c)
		}})
	}

	return nil
}

// commit writes the copied frames back, innermost first.
func (r *run) commit() error {
	for i := len(r.frames) - 1; i > 0; i-- {
		if r.frames[i].commit == nil {
			continue
		}

		if err := r.frames[i].commit(); err != nil {
			return err
		}
	}

	return nil
}

// write selects the member of the current container for op. It reports
// false when the visit is dropped.
func (r *run) write(op *plan.Op) (bool, error) {
	c := r.top()
	t := r.x.m.target

	switch c.Kind() {
	case reflect.Slice:
		pos := r.position(op, c.Len(), 0)
		if pos >= c.Len() {
			grow := pos + 1 - c.Len()
			c.Set(reflect.AppendSlice(c, reflect.MakeSlice(c.Type(), grow, grow)))
		}

		r.coord = append(r.coord, pos)

		return true, r.enter(op, c.Index(pos))

	case reflect.Array:
		key := r.key(op)
		fill := r.x.fills[key]

		pos := r.position(op, fill, 0)
		if pos >= c.Len() {
			r.x.m.logger.Debug("array write dropped",
				zap.String("rule", r.p.Rule),
				zap.String("path", t.Path(op.Node)),
				zap.Int("position", pos),
				zap.Int("length", c.Len()))

			return false, nil
		}

		r.x.fills[key] = max(fill, pos+1)
		r.coord = append(r.coord, pos)

		return true, r.enter(op, c.Index(pos))

	case reflect.Map:
		b := r.x.builder(c, t.Node(op.Node).Shape == schema.ShapeSet)

		pos, e, err := r.entry(op, b)
		if err != nil {
			return false, err
		}

		e.touched = true
		r.coord = append(r.coord, pos)

		if t.Node(op.Member).Shape != schema.ShapeMapValue {
			e.keySet = true
			return true, r.enter(op, e.key)
		}

		return true, r.enter(op, e.val)

	default:
		return false, fmt.Errorf("target field %s holds %s, not a collection", t.Path(op.Node), c.Kind())
	}
}

// entry selects the entry of map builder b for op. Entries written by
// rules are placed after the ones the map held before. A value that takes
// its key from the source goes to the entry already holding that key when
// no rule placed a key at its position.
func (r *run) entry(op *plan.Op, b *builder) (int, *entry, error) {
	pos := r.position(op, len(b.entries), b.pre)
	if pos < len(b.entries) && b.entries[pos].keySet && (pos >= b.pre || op.Inherit < 0) {
		return pos, b.entries[pos], nil
	}

	if op.Inherit < 0 {
		for len(b.entries) <= pos {
			b.add(r.p.Rule)
		}

		return pos, b.entries[pos], nil
	}

	k, ok, err := r.inherited(op)
	if err != nil {
		return 0, nil, err
	}

	if ok {
		if i, found := b.find(k); found {
			return i, b.entries[i], nil
		}
	}

	if pos < b.pre {
		pos = len(b.entries)
	}

	for len(b.entries) <= pos {
		b.add(r.p.Rule)
	}

	e := b.entries[pos]
	if ok && !e.keySet {
		e.key.Set(k)
		e.keySet = true
	}

	return pos, e, nil
}

// inherited returns the converted key of the source map level op takes
// its key from.
func (r *run) inherited(op *plan.Op) (reflect.Value, bool, error) {
	m, ok := r.sourceMember(op.Inherit)
	if !ok || !m.Key.IsValid() {
		return reflect.Value{}, false, nil
	}

	k, err := op.KeyConv().Apply(m.Key)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("inherited key: %w", err)
	}

	return k, true, nil
}

// enter writes the value of a terminal op into slot, or makes slot the
// current frame.
func (r *run) enter(op *plan.Op, slot reflect.Value) error {
	if op.Terminal {
		v, err := convert(op, r.regs[op.Src])
		if err != nil {
			return err
		}

		slot.Set(v)

		return r.commit()
	}

	if slot.Kind() == reflect.Pointer {
		if slot.IsNil() {
			slot.Set(reflect.New(slot.Type().Elem()))
		}

		slot = slot.Elem()
	}

	r.frames = append(r.frames, frame{v: slot})

	return nil
}

// position applies the policy of op to a level holding size members.
// Positions taken from the source or the fan-out count from origin.
func (r *run) position(op *plan.Op, size, origin int) int {
	if op.Pin >= 0 {
		return op.Pin
	}

	switch op.Policy.Kind {
	case align.Single:
		return max(size-1, 0)
	case align.Correlate:
		return origin + r.sourcePos(op.Policy.Level)
	case align.Offset:
		return r.base(op, size) + r.sourcePos(op.Policy.Level)
	case align.Ordinal:
		return origin + r.fanIndex()
	case align.RunningOffset:
		return r.base(op, size) + r.fanIndex()
	default:
		return size
	}
}

// base is the size the level had when this rule first touched it.
func (r *run) base(op *plan.Op, size int) int {
	key := r.key(op)
	if b, ok := r.bases[key]; ok {
		return b
	}

	r.bases[key] = size

	return size
}

// key names the level instance of op: its node and the positions chosen
// at the enclosing target levels.
func (r *run) key(op *plan.Op) string {
	return fmt.Sprintf("%d%v", op.Node, r.coord)
}

// builder buffers the entries of one target map or set. The first pre
// entries are the ones the map held before the execution.
type builder struct {
	m       reflect.Value
	set     bool
	pre     int
	entries []*entry
}

type entry struct {
	key     reflect.Value
	val     reflect.Value
	keySet  bool
	touched bool
	rule    string
}

func (x *execution) builder(m reflect.Value, set bool) *builder {
	if b, ok := x.builders[m.Pointer()]; ok {
		return b
	}

	b := &builder{m: m, set: set}

	for _, k := range pathtree.SortedKeys(m) {
		e := b.add("")
		e.key.Set(k)
		e.keySet = true
		e.touched = true

		if !set {
			e.val.Set(m.MapIndex(k))
		}
	}

	b.pre = len(b.entries)
	x.builders[m.Pointer()] = b
	x.order = append(x.order, b)

	return b
}

func (b *builder) add(rule string) *entry {
	t := b.m.Type()
	e := &entry{key: reflect.New(t.Key()).Elem(), val: reflect.New(t.Elem()).Elem(), rule: rule}
	b.entries = append(b.entries, e)

	return e
}

func (b *builder) find(k reflect.Value) (int, bool) {
	for i, e := range b.entries {
		if e.keySet && e.key.Equal(k) {
			return i, true
		}
	}

	return 0, false
}

// flush rewrites every buffered map from its entries.
func (x *execution) flush() error {
	var errs []error

	for _, b := range x.order {
		for _, k := range b.m.MapKeys() {
			b.m.SetMapIndex(k, reflect.Value{})
		}

		for i, e := range b.entries {
			if !e.touched {
				continue
			}

			if !e.keySet {
				errs = append(errs, fmt.Errorf("rule %s: entry %d of a %s has no key", e.rule, i, b.m.Type()))
				continue
			}

			v := e.val
			if b.set {
				v = present(b.m.Type().Elem())
			}

			b.m.SetMapIndex(e.key, v)
		}
	}

	x.builders = make(map[uintptr]*builder)
	x.order = nil

	return errors.Join(errs...)
}

// present is the set membership value: struct{}{} or true.
func present(t reflect.Type) reflect.Value {
	if t.Kind() == reflect.Bool {
		return reflect.ValueOf(true).Convert(t)
	}

	return reflect.Zero(t)
}
