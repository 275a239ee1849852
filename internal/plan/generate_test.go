package plan

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-mapper/internal/align"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/schema"
	"chain-mapper/primitive"
)

type srcLine struct {
	SKU string
	Qty int
}

type srcDoc struct {
	Name   string
	Lines  []srcLine
	Prices map[string]int
}

type dstItem struct {
	Code string
}

type dstDoc struct {
	Title  string
	Items  []dstItem
	Tags   []string
	Totals map[string]int
	Count  int
}

type fixture struct {
	src, dst *pathtree.Compiler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := schema.NewRegistry()
	reg.Register(srcDoc{}, srcLine{}, dstDoc{}, dstItem{})
	in := schema.NewIntrospector(nil, reg)

	return &fixture{
		src: pathtree.NewCompiler(pathtree.NewTree(reflect.TypeOf(srcDoc{})), in, pathtree.SideSource),
		dst: pathtree.NewCompiler(pathtree.NewTree(reflect.TypeOf(dstDoc{})), in, pathtree.SideTarget),
	}
}

// input compiles a rule; from is empty for literal rules.
func (f *fixture) input(t *testing.T, rule, from, to string, execute bool) Input {
	t.Helper()

	dst, err := f.dst.Compile(rule, to, nil)
	require.NoError(t, err)

	in := Input{Rule: rule, Source: f.src.Tree(), Target: f.dst.Tree(), To: dst}

	var srcType reflect.Type

	if from != "" {
		src, err := f.src.Compile(rule, from, nil)
		require.NoError(t, err)

		in.From = src
		srcType = f.src.Tree().Node(src.Stem).Effective()
		in.Alignment, err = align.Align(src.Chain, dst.Chain, execute)
	} else {
		srcType = f.dst.Tree().Node(dst.Stem).Effective()
		in.Alignment, err = align.Align(nil, dst.Chain, execute)
	}

	require.NoError(t, err)

	if !execute {
		in.Assign, err = primitive.Plan(srcType, f.dst.Tree().Node(dst.Stem).Effective(), primitive.CategoryAll)
		require.NoError(t, err)
	}

	return in
}

func codes(p *Plan) []OpCode {
	out := make([]OpCode, 0, len(p.Ops))
	for _, op := range p.Ops {
		out = append(out, op.Code)
	}

	return out
}

func TestGenerate_FlatCopy(t *testing.T) {
	f := newFixture(t)

	p, err := Generate(f.input(t, "r1", "name", "title", false))
	require.NoError(t, err)

	assert.Equal(t, []OpCode{
		OpLoadRoot, OpGuardNullReturn, OpDescendMember, OpGuardNullReturn,
		OpEnterTarget, OpAssignScalar,
	}, codes(p))

	assert.Equal(t, align.NoCollection, p.Alignment.Kind)
	assert.Equal(t, 6, p.Ops[1].Jump)
	assert.Equal(t, 6, p.Ops[3].Jump)
	assert.Equal(t, "identity", p.Ops[5].Conversion)
	assert.True(t, p.Ops[5].Terminal)
	assert.Equal(t, 1, p.Count(OpAssignScalar))
}

func TestGenerate_CorrelatedCollection(t *testing.T) {
	f := newFixture(t)

	p, err := Generate(f.input(t, "r1", "lines[].sku", "items[].code", false))
	require.NoError(t, err)

	assert.Equal(t, []OpCode{
		OpLoadRoot, OpGuardNullReturn,
		OpSeekIndex, OpDescendMember, OpBeginIteration,
		OpDescendMember, OpGuardNullContinue,
		OpEnterTarget, OpCreateIfAbsent, OpDescendMember, OpWriteCollectionMember, OpAssignScalar,
		OpEndIteration,
	}, codes(p), p.String())

	seek, begin, guard, end := p.Ops[2], p.Ops[4], p.Ops[6], p.Ops[12]

	assert.Equal(t, "Lines", seek.Key)
	assert.Equal(t, 4, seek.Jump, "seek jumps to the iteration it feeds")
	assert.Equal(t, begin.Src, seek.Dst)
	assert.Equal(t, "Lines", begin.Key)
	assert.Equal(t, 12, begin.Jump)
	assert.Equal(t, 12, guard.Jump, "a null member skips to the end of its iteration")
	assert.Equal(t, 4, end.Jump)
	assert.Equal(t, 13, p.Ops[1].Jump)

	write := p.Ops[10]
	assert.Equal(t, align.Policy{Kind: align.Correlate, Level: 0}, write.Policy)
	assert.False(t, write.Terminal)
	assert.Equal(t, 4, p.Registers)
}

func TestGenerate_LiteralFanOut(t *testing.T) {
	f := newFixture(t)

	in := f.input(t, "r1", "", "tags[]", false)
	in.Literals = []string{"a", "b", "c"}
	in.Values = []reflect.Value{reflect.ValueOf("a"), reflect.ValueOf("b"), reflect.ValueOf("c")}

	p, err := Generate(in)
	require.NoError(t, err)

	assert.Equal(t, []OpCode{
		OpBeginIteration, OpEnterTarget, OpCreateIfAbsent, OpDescendMember, OpWriteCollectionMember, OpEndIteration,
	}, codes(p))

	begin := p.Ops[0]
	assert.Equal(t, FromLiterals, begin.From)
	assert.Equal(t, []string{"a", "b", "c"}, begin.Literals)
	assert.Len(t, begin.Values(), 3)

	write := p.Ops[4]
	assert.True(t, write.Terminal)
	assert.Equal(t, align.RunningOffset, write.Policy.Kind)
	assert.NotNil(t, write.Conv())
}

func TestGenerate_MapKeyInheritance(t *testing.T) {
	f := newFixture(t)

	in := f.input(t, "r1", "prices[V]", "totals[V]", false)
	keys, err := primitive.Plan(reflect.TypeOf(""), reflect.TypeOf(""), primitive.CategoryAll)
	require.NoError(t, err)

	in.KeyConversions = map[int]*primitive.Conversion{0: keys}

	p, err := Generate(in)
	require.NoError(t, err)

	var write *Op
	for i := range p.Ops {
		if p.Ops[i].Code == OpWriteMapEntry {
			write = &p.Ops[i]
		}
	}

	require.NotNil(t, write, p.String())
	assert.Equal(t, 0, write.Inherit)
	assert.Same(t, keys, write.KeyConv())
	assert.True(t, write.Terminal)
}

func TestGenerate_ExecuteCollect(t *testing.T) {
	f := newFixture(t)

	sum, err := mapping.NewConverter("Sum", func(qty []int) int {
		total := 0
		for _, q := range qty {
			total += q
		}

		return total
	})
	require.NoError(t, err)

	in := f.input(t, "r1", "lines[].qty", "count", true)

	identity, err := primitive.Plan(sum.Out(), reflect.TypeOf(0), primitive.CategoryAll)
	require.NoError(t, err)

	in.Assign = identity
	in.Stages = []Stage{sum}
	in.Collect = reflect.TypeOf(0)

	p, err := Generate(in)
	require.NoError(t, err)

	assert.True(t, p.Alignment.Collect)
	assert.Equal(t, []OpCode{
		OpLoadRoot, OpGuardNullReturn,
		OpSeekIndex, OpDescendMember, OpBeginIteration,
		OpDescendMember, OpGuardNullContinue,
		OpCollect, OpEndIteration,
		OpInvoke, OpEnterTarget, OpAssignScalar,
	}, codes(p), p.String())

	invoke := p.Ops[9]
	assert.Equal(t, p.Ops[7].Dst, invoke.Src, "the pipeline runs on the collected slice")
	assert.Equal(t, []string{"Sum"}, invoke.Stages)
	assert.Len(t, invoke.Pipeline(), 1)
	assert.Equal(t, reflect.TypeOf(0), invoke.Elem())
}

func TestGenerate_IncompleteInput(t *testing.T) {
	_, err := Generate(Input{Rule: "r9"})

	var gen *diagnostic.GenerationError
	require.ErrorAs(t, err, &gen)
	assert.Equal(t, "r9", gen.RuleID)
}

func TestChain(t *testing.T) {
	toText, err := mapping.NewConverter("Text", func(v int) string { return "n" })
	require.NoError(t, err)

	out, err := Chain(reflect.TypeOf(0), []Stage{toText})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(""), out)

	_, err = Chain(reflect.TypeOf(""), []Stage{toText})
	assert.ErrorContains(t, err, "stage Text takes int but receives string")

	v, err := RunPipeline(reflect.ValueOf(3), []Stage{toText})
	require.NoError(t, err)
	assert.Equal(t, "n", v.Interface())
}

func TestArtifact_RoundTrip(t *testing.T) {
	f := newFixture(t)

	in := f.input(t, "copy_sku", "lines[].sku", "items[].code", false)
	p, err := Generate(in)
	require.NoError(t, err)

	doc := &mapping.Document{
		Version:   "1",
		Namespace: "orders",
		Name:      "orders",
		Source:    "plan.srcDoc",
		Target:    "plan.dstDoc",
		Rules: []mapping.Rule{{
			Kind: mapping.RuleCopy,
			ID:   "copy_sku",
			To:   "items[].code",
			From: mapping.Source{Chain: "lines[].sku"},
		}},
	}

	a := NewArtifact(doc)
	a.AddTrees(f.src.Tree(), f.dst.Tree())
	a.AddRule(doc.Rules[0], in.From, in.To, p)

	data, err := a.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(data), "op: seek-index")
	assert.Contains(t, string(data), "kind: correlate")

	decoded, err := DecodeArtifact(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, a, decoded)

	rec, ok := decoded.Rule("copy_sku")
	require.True(t, ok)
	assert.Equal(t, "Lines[].SKU", decoded.Trees.Source[rec.FromStem].Path)
	assert.Equal(t, "collection-aligned/equal", rec.Classification)
}

func TestDecodeArtifact_Version(t *testing.T) {
	_, err := DecodeArtifact(bytes.NewReader([]byte("version: \"9\"\n")))
	assert.ErrorContains(t, err, `unsupported artifact version "9"`)
}
