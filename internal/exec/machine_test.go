package exec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"chain-mapper/internal/align"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/plan"
	"chain-mapper/internal/schema"
	"chain-mapper/primitive"
)

type srcLine struct {
	SKU string
	Qty int
}

type srcDoc struct {
	Name   string
	Nick   *string
	Lines  []srcLine
	Prices map[string]int
	Codes  []string
}

type dstItem struct {
	Code string
}

type person struct {
	Name string
}

type dstDoc struct {
	Title  string
	Nick   string
	Items  []dstItem
	Tags   []string
	Totals map[string]int
	Codes  map[string]struct{}
	Count  int
	Small  int8
	Slots  [2]dstItem

	owner person
}

func (d *dstDoc) Owner() person     { return d.owner }
func (d *dstDoc) SetOwner(p person) { d.owner = p }

type harness struct {
	src, dst *pathtree.Compiler
	plans    []*plan.Plan
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reg := schema.NewRegistry()
	reg.Register(srcDoc{}, srcLine{}, dstDoc{}, dstItem{}, person{})
	in := schema.NewIntrospector(nil, reg)

	return &harness{
		src: pathtree.NewCompiler(pathtree.NewTree(reflect.TypeOf(srcDoc{})), in, pathtree.SideSource),
		dst: pathtree.NewCompiler(pathtree.NewTree(reflect.TypeOf(dstDoc{})), in, pathtree.SideTarget),
	}
}

func (h *harness) leaf(tree *pathtree.Tree, p *pathtree.Path) reflect.Type {
	return tree.Node(p.Stem).Effective()
}

// copy adds a copy rule. keys controls map key inheritance.
func (h *harness) copy(t *testing.T, rule, from, to string, keys bool) *harness {
	t.Helper()

	src, err := h.src.Compile(rule, from, nil)
	require.NoError(t, err)

	dst, err := h.dst.Compile(rule, to, nil)
	require.NoError(t, err)

	a, err := align.Align(src.Chain, dst.Chain, false)
	require.NoError(t, err)

	conv, err := primitive.Plan(h.leaf(h.src.Tree(), src), h.leaf(h.dst.Tree(), dst), primitive.CategoryAll)
	require.NoError(t, err)

	in := plan.Input{
		Rule: rule, Source: h.src.Tree(), Target: h.dst.Tree(),
		From: src, To: dst, Alignment: a, Assign: conv,
	}

	if keys {
		in.KeyConversions = make(map[int]*primitive.Conversion)

		for j := 0; j < dst.Chain.Depth(); j++ {
			l, ok := a.Correlated(j)
			if !ok || !dst.Chain.LevelToken(j).IsMap() || !src.Chain.LevelToken(l).IsMap() {
				continue
			}

			from := h.src.Tree().Node(src.Hops[src.LevelHop(l)-1].Node).Effective().Key()
			to := h.dst.Tree().Node(dst.Hops[dst.LevelHop(j)-1].Node).Effective().Key()

			kc, err := primitive.Plan(from, to, primitive.CategoryAll)
			require.NoError(t, err)

			in.KeyConversions[j] = kc
		}
	}

	return h.add(t, in)
}

func (h *harness) literal(t *testing.T, rule, to string, values ...string) *harness {
	t.Helper()

	dst, err := h.dst.Compile(rule, to, nil)
	require.NoError(t, err)

	a, err := align.Align(nil, dst.Chain, false)
	require.NoError(t, err)

	typ := h.leaf(h.dst.Tree(), dst)

	conv, err := primitive.Plan(typ, typ, primitive.CategoryAll)
	require.NoError(t, err)

	in := plan.Input{
		Rule: rule, Source: h.src.Tree(), Target: h.dst.Tree(),
		To: dst, Alignment: a, Assign: conv, Literals: values,
	}

	for _, v := range values {
		in.Values = append(in.Values, reflect.ValueOf(v))
	}

	return h.add(t, in)
}

func (h *harness) collect(t *testing.T, rule, from, to string, stage plan.Stage) *harness {
	t.Helper()

	src, err := h.src.Compile(rule, from, nil)
	require.NoError(t, err)

	dst, err := h.dst.Compile(rule, to, nil)
	require.NoError(t, err)

	a, err := align.Align(src.Chain, dst.Chain, true)
	require.NoError(t, err)

	conv, err := primitive.Plan(stage.Out(), h.leaf(h.dst.Tree(), dst), primitive.CategoryAll)
	require.NoError(t, err)

	return h.add(t, plan.Input{
		Rule: rule, Source: h.src.Tree(), Target: h.dst.Tree(),
		From: src, To: dst, Alignment: a, Assign: conv,
		Stages: []plan.Stage{stage}, Collect: h.leaf(h.src.Tree(), src),
	})
}

func (h *harness) add(t *testing.T, in plan.Input) *harness {
	t.Helper()

	p, err := plan.Generate(in)
	require.NoError(t, err)

	h.plans = append(h.plans, p)

	return h
}

func (h *harness) machine(opts Options) *Machine {
	return New(h.src.Tree(), h.dst.Tree(), h.plans, opts)
}

func sample() *srcDoc {
	nick := "ace"

	return &srcDoc{
		Name:   "Ada",
		Nick:   &nick,
		Lines:  []srcLine{{SKU: "a", Qty: 1}, {SKU: "b", Qty: 2}, {SKU: "c", Qty: 4}},
		Prices: map[string]int{"pen": 3, "ink": 7},
		Codes:  []string{"y", "x"},
	}
}

func TestRun_FlatCopy(t *testing.T) {
	m := newHarness(t).
		copy(t, "title", "name", "title", false).
		copy(t, "nick", "nick", "nick", false).
		machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, "Ada", out.Title)
	assert.Equal(t, "ace", out.Nick)
}

func TestRun_NullLeavesTargetUntouched(t *testing.T) {
	m := newHarness(t).
		copy(t, "nick", "nick", "nick", false).
		copy(t, "items", "lines[].sku", "items[].code", false).
		machine(Options{})

	out := dstDoc{Nick: "keep"}
	require.NoError(t, m.Run(reflect.ValueOf(&srcDoc{}), reflect.ValueOf(&out), nil))
	assert.Equal(t, "keep", out.Nick)
	assert.Empty(t, out.Items)

	out = dstDoc{Nick: "keep"}
	require.NoError(t, m.Run(reflect.ValueOf((*srcDoc)(nil)), reflect.ValueOf(&out), nil))
	assert.Equal(t, "keep", out.Nick)
}

func TestRun_CorrelatedCollections(t *testing.T) {
	h := newHarness(t).copy(t, "items", "lines[].sku", "items[].code", false)
	m := h.machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, []dstItem{{Code: "a"}, {Code: "b"}, {Code: "c"}}, out.Items)
}

func TestRun_IndexMatchesReflection(t *testing.T) {
	m := newHarness(t).
		copy(t, "items", "lines[].sku", "items[].code", false).
		copy(t, "totals", "prices[V]", "totals[V]", true).
		copy(t, "first", "lines[1].sku", "title", false).
		machine(Options{})

	src := reflect.ValueOf(sample())

	idx, err := m.Index(src)
	require.NoError(t, err)
	require.NotNil(t, idx)

	var direct, indexed dstDoc
	require.NoError(t, m.Run(src, reflect.ValueOf(&direct), nil))
	require.NoError(t, m.Run(src, reflect.ValueOf(&indexed), idx))

	assert.Equal(t, direct, indexed)
	assert.Equal(t, "b", indexed.Title)
	assert.Contains(t, idx.IDs(), "Lines")
}

func TestRun_LiteralFanOut(t *testing.T) {
	m := newHarness(t).literal(t, "tags", "tags[]", "a", "b", "c").machine(Options{})

	out := dstDoc{Tags: []string{"x"}}
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, []string{"x", "a", "b", "c"}, out.Tags, "values continue after the existing elements")
}

func TestRun_MapKeyInheritance(t *testing.T) {
	m := newHarness(t).copy(t, "totals", "prices[V]", "totals[V]", true).machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))
	assert.Equal(t, map[string]int{"ink": 7, "pen": 3}, out.Totals)

	// entries of other keys are kept, an entry of the same key takes the
	// source value
	out = dstDoc{Totals: map[string]int{"aaa": 1, "pen": 9}}
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))
	assert.Equal(t, map[string]int{"aaa": 1, "ink": 7, "pen": 3}, out.Totals)
}

func TestRun_SetKeepsMembers(t *testing.T) {
	m := newHarness(t).copy(t, "codes", "codes[]", "codes[]", false).machine(Options{})

	out := dstDoc{Codes: map[string]struct{}{"z": {}}}
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}, "z": {}}, out.Codes)
}

func TestRun_PinnedSourceLevel(t *testing.T) {
	m := newHarness(t).
		copy(t, "second", "lines[1].sku", "tags[]", false).
		copy(t, "pen", "prices[1V]", "totals[V]", true).
		machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, []string{"b"}, out.Tags)
	assert.Equal(t, map[string]int{"pen": 3}, out.Totals)
}

func TestRun_PreAnchorAppends(t *testing.T) {
	m := newHarness(t).copy(t, "items", "lines[<].sku", "items[<].code", false).machine(Options{})

	out := dstDoc{Items: []dstItem{{Code: "old"}}}
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, []dstItem{{Code: "old"}, {Code: "a"}, {Code: "b"}, {Code: "c"}}, out.Items)
}

func TestRun_SetFromSlice(t *testing.T) {
	m := newHarness(t).copy(t, "codes", "codes[]", "codes[]", false).machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, out.Codes)
}

func TestRun_MapEntryWithoutKey(t *testing.T) {
	m := newHarness(t).copy(t, "totals", "prices[V]", "totals[V]", false).machine(Options{})

	var out dstDoc
	err := m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "rule totals: entry 0 of a map[string]int has no key")
}

func TestRun_ArrayOverflowIsDropped(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	m := newHarness(t).copy(t, "slots", "lines[].sku", "slots[].code", false).machine(Options{Logger: zap.New(core)})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, [2]dstItem{{Code: "a"}, {Code: "b"}}, out.Slots)
	require.Equal(t, 1, logs.FilterMessage("array write dropped").Len())
	assert.Equal(t, "slots", logs.All()[0].ContextMap()["rule"])
}

func TestRun_AccessorTarget(t *testing.T) {
	m := newHarness(t).copy(t, "owner", "name", "owner.name", false).machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))

	assert.Equal(t, person{Name: "Ada"}, out.Owner())
}

func TestRun_CollectIntoConverter(t *testing.T) {
	sum, err := mapping.NewConverter("Sum", func(qty []int) int {
		total := 0
		for _, q := range qty {
			total += q
		}

		return total
	})
	require.NoError(t, err)

	m := newHarness(t).collect(t, "count", "lines[].qty", "count", sum).machine(Options{})

	var out dstDoc
	require.NoError(t, m.Run(reflect.ValueOf(sample()), reflect.ValueOf(&out), nil))
	assert.Equal(t, 7, out.Count)

	out = dstDoc{}
	require.NoError(t, m.Run(reflect.ValueOf(&srcDoc{Name: "empty"}), reflect.ValueOf(&out), nil))
	assert.Equal(t, 0, out.Count, "the pipeline runs on an empty collection")
}

func TestRun_ErrorsAreJoinedPerRule(t *testing.T) {
	m := newHarness(t).
		copy(t, "small", "lines[0].qty", "small", false).
		copy(t, "title", "name", "title", false).
		machine(Options{})

	src := sample()
	src.Lines[0].Qty = 300

	var out dstDoc
	err := m.Run(reflect.ValueOf(src), reflect.ValueOf(&out), nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, primitive.ErrOverflow)
	assert.ErrorContains(t, err, "rule small")
	assert.Equal(t, "Ada", out.Title, "later rules still run")
}

func TestRun_RejectsNonPointerTarget(t *testing.T) {
	m := newHarness(t).machine(Options{})

	err := m.Run(reflect.ValueOf(sample()), reflect.ValueOf(dstDoc{}), nil)
	assert.ErrorContains(t, err, "target must be a non-nil pointer")
}
