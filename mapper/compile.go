package mapper

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chain-mapper/internal/align"
	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/exec"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/metrics"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/plan"
	"chain-mapper/internal/schema"
	"chain-mapper/primitive"
)

var (
	stringType = reflect.TypeOf("")

	dump = spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
)

// build is the result of compiling one document.
type build struct {
	source *pathtree.Tree
	target *pathtree.Tree
	helper reflect.Value
	rules  []compiledRule
	plans  []*plan.Plan

	machine *exec.Machine
	report  *diagnostic.Report
}

type compiledRule struct {
	rule mapping.Rule
	from *pathtree.Path // nil for literal rules
	to   *pathtree.Path
	plan *plan.Plan
}

// ruleCompiler compiles the rules of one document into its trees, one rule
// at a time.
type ruleCompiler struct {
	e      *Engine
	b      *build
	src    *pathtree.Compiler
	dst    *pathtree.Compiler
	logger *zap.Logger
}

func (e *Engine) build(doc *mapping.Document) (*build, error) {
	b, err := e.assemble(doc)
	if err != nil {
		metrics.RecordCompilation(doc.Namespace, 0, 0, 0, err)
		return nil, err
	}

	metrics.RecordCompilation(doc.Namespace,
		len(b.report.Compiled), len(b.report.Failed), len(b.report.Skipped), nil)

	return b, nil
}

func (e *Engine) assemble(doc *mapping.Document) (*build, error) {
	if diags := mapping.Validate(doc); diags.HasErrors() {
		return nil, fmt.Errorf("spec %s: %w", doc.Namespace, diags.Error())
	}

	srcType, err := e.rootType("source", doc.Source)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", doc.Namespace, err)
	}

	dstType, err := e.rootType("target", doc.Target)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", doc.Namespace, err)
	}

	id := uuid.NewString()
	logger := e.opts.Logger.With(zap.String("namespace", doc.Namespace), zap.String("build", id))

	b := &build{
		source: pathtree.NewTree(srcType),
		target: pathtree.NewTree(dstType),
		report: &diagnostic.Report{Namespace: doc.Namespace, Build: id},
	}

	opts := []pathtree.CompilerOption{
		pathtree.WithLogger(logger),
		pathtree.WithDiagnostics(&b.report.Diagnostics),
	}

	if doc.Helper != "" {
		ht, err := e.registry.Resolve(doc.Helper)
		if err != nil {
			return nil, fmt.Errorf("spec %s: helper type: %w", doc.Namespace, err)
		}

		ht = schema.Indirect(ht)
		b.helper = reflect.New(ht)
		opts = append(opts, pathtree.WithHelper(ht))
	}

	rc := &ruleCompiler{
		e:      e,
		b:      b,
		src:    pathtree.NewCompiler(b.source, e.in, pathtree.SideSource, opts...),
		dst:    pathtree.NewCompiler(b.target, e.in, pathtree.SideTarget, opts...),
		logger: logger,
	}

	for i := range doc.Rules {
		rc.rule(&doc.Rules[i])
	}

	b.machine = exec.New(b.source, b.target, b.plans, exec.Options{Helper: b.helper, Logger: logger})

	logger.Info("spec compiled",
		zap.Int("compiled", len(b.report.Compiled)),
		zap.Int("failed", len(b.report.Failed)),
		zap.Int("skipped", len(b.report.Skipped)))

	return b, nil
}

func (rc *ruleCompiler) rule(r *mapping.Rule) {
	logger := rc.logger.With(zap.String("rule", r.ID))

	if r.Disabled {
		logger.Warn("rule disabled, skipping", zap.String("path", r.To))
		rc.b.report.Skipped = append(rc.b.report.Skipped, r.ID)
		rc.b.report.Diagnostics.AddWarning("rule_disabled", "rule is disabled", r.ID, r.To)

		return
	}

	cr, err := rc.compile(r)
	if err != nil {
		err = diagnostic.WithRule(err, r.ID)
		logger.Warn("rule failed", zap.Error(err))
		rc.b.report.Fail(r.ID, err)

		return
	}

	rc.b.rules = append(rc.b.rules, cr)
	rc.b.plans = append(rc.b.plans, cr.plan)
	rc.b.report.Compiled = append(rc.b.report.Compiled, r.ID)

	if r.Debug {
		ops := make([]plan.Op, len(cr.plan.Ops))
		for i, op := range cr.plan.Ops {
			ops[i] = op.Record()
		}

		logger.Info("rule plan",
			zap.String("classification", cr.plan.Alignment.Classification.String()),
			zap.String("ops", dump.Sdump(ops)))
	}
}

// compile compiles both chains of r and generates its plan. Nothing the
// rule added to the trees survives a failure.
func (rc *ruleCompiler) compile(r *mapping.Rule) (cr compiledRule, err error) {
	rc.b.source.Begin()
	rc.b.target.Begin()

	defer func() {
		if err != nil {
			rc.b.source.Rollback()
			rc.b.target.Rollback()

			return
		}

		rc.b.source.Commit()
		rc.b.target.Commit()
	}()

	to, err := rc.dst.Compile(r.ID, r.To, overrides(r.ToOverrides))
	if err != nil {
		return cr, err
	}

	in := plan.Input{
		Rule:   r.ID,
		Source: rc.b.source,
		Target: rc.b.target,
		To:     to,
	}

	var src *chain.PathChain

	if !r.From.Literal {
		from, err := rc.src.Compile(r.ID, r.From.Chain, overrides(r.FromOverrides))
		if err != nil {
			return cr, err
		}

		in.From = from
		src = from.Chain
	}

	if in.Alignment, err = align.Align(src, to.Chain, r.IsExecute()); err != nil {
		return cr, err
	}

	leaf := rc.b.target.Node(to.Stem).Effective()

	value, err := rc.value(r, &in, leaf)
	if err != nil {
		return cr, err
	}

	if primitive.IsDateTime(leaf) && !primitive.IsDateTime(value) && !primitive.IsText(value) {
		return cr, rc.semantic(r, to, fmt.Sprintf("date/time field %s takes a date/time or string value, not %s", field(rc.b.target, to.Stem), value))
	}

	if in.Assign, err = primitive.Plan(value, leaf, rc.e.opts.Categories); err != nil {
		return cr, rc.semantic(r, to, fmt.Sprintf("cannot assign %s to %s: %v", value, leaf, err))
	}

	in.KeyConversions = rc.keys(r, in)

	p, err := plan.Generate(in)
	if err != nil {
		return cr, err
	}

	return compiledRule{rule: *r, from: in.From, to: to, plan: p}, nil
}

// value returns the type of the values the rule assigns to the target
// leaf, filling in the literal values or the pipeline of in on the way.
func (rc *ruleCompiler) value(r *mapping.Rule, in *plan.Input, leaf reflect.Type) (reflect.Type, error) {
	if in.From == nil {
		return leaf, rc.literals(r, in, leaf)
	}

	cur := rc.b.source.Node(in.From.Stem).Effective()
	if !r.IsExecute() {
		return cur, nil
	}

	if in.Alignment.Collect {
		in.Collect = cur
		cur = reflect.SliceOf(cur)
	}

	stages, err := rc.stages(r, cur)
	if err != nil {
		return nil, err
	}

	in.Stages = stages

	out, err := plan.Chain(cur, stages)
	if err != nil {
		return nil, &diagnostic.GenerationError{RuleID: r.ID, Msg: err.Error()}
	}

	if in.Alignment.Distribute < 0 {
		return out, nil
	}

	switch schema.Indirect(out).Kind() {
	case reflect.Slice, reflect.Array:
		return schema.Indirect(out).Elem(), nil
	default:
		return nil, &diagnostic.GenerationError{RuleID: r.ID, Msg: fmt.Sprintf(
			"the pipeline returns %s, distributing over %s needs an array or slice", out, r.To)}
	}
}

// literals converts the value list into the target leaf type up front, so
// a bad literal fails compilation instead of every execution.
func (rc *ruleCompiler) literals(r *mapping.Rule, in *plan.Input, leaf reflect.Type) error {
	conv, err := primitive.Plan(stringType, leaf, rc.e.opts.Categories)
	if err != nil {
		return rc.semantic(r, in.To, fmt.Sprintf("values cannot be written to %s: %v", leaf, err))
	}

	for _, s := range r.From.Values {
		v, err := conv.Apply(reflect.ValueOf(s))
		if err != nil {
			return rc.semantic(r, in.To, fmt.Sprintf("value %q: %v", s, err))
		}

		in.Literals = append(in.Literals, s)
		in.Values = append(in.Values, v)
	}

	return nil
}

func (rc *ruleCompiler) stages(r *mapping.Rule, cur reflect.Type) ([]plan.Stage, error) {
	var stages []plan.Stage

	for _, name := range r.Stages() {
		var s plan.Stage

		switch name {
		case mapping.StageConverter:
			c := rc.e.converters.Get(r.Converter)
			if c == nil {
				return nil, &diagnostic.GenerationError{RuleID: r.ID, Msg: fmt.Sprintf(
					"unknown converter %q", r.Converter)}
			}

			s = c

		case mapping.StageModule:
			spec, ok := rc.e.Spec(r.Module)
			if !ok {
				return nil, &diagnostic.GenerationError{RuleID: r.ID, Msg: fmt.Sprintf(
					"module %q is not compiled", r.Module)}
			}

			uses := append(rc.b.modules(), r.Module)
			if _, err := rc.e.moduleOrder(rc.b.report.Namespace, uses); err != nil {
				return nil, &diagnostic.GenerationError{RuleID: r.ID, Msg: err.Error()}
			}

			s = newModule(rc.e, spec, cur)
		}

		stages = append(stages, s)
		cur = s.Out()
	}

	return stages, nil
}

// keys plans the key conversions letting target map entries inherit the
// key of the correlated source map entry. Levels whose keys do not convert
// inherit nothing; a rule writing the keys has to fill them.
func (rc *ruleCompiler) keys(r *mapping.Rule, in plan.Input) map[int]*primitive.Conversion {
	if in.From == nil {
		return nil
	}

	var convs map[int]*primitive.Conversion

	for j := 0; j < in.To.Chain.Depth(); j++ {
		l, ok := in.Alignment.Correlated(j)
		if !ok || !in.To.Chain.LevelToken(j).IsMap() || !in.From.Chain.LevelToken(l).IsMap() {
			continue
		}

		from := schema.Indirect(rc.b.source.Node(in.From.Hops[in.From.LevelHop(l)-1].Node).Effective()).Key()
		to := schema.Indirect(rc.b.target.Node(in.To.Hops[in.To.LevelHop(j)-1].Node).Effective()).Key()

		conv, err := primitive.Plan(from, to, rc.e.opts.Categories)
		if err != nil {
			rc.b.report.Diagnostics.AddInfo("key_not_inherited",
				fmt.Sprintf("map keys %s do not convert to %s: %v", from, to, err), r.ID, r.To)

			continue
		}

		if convs == nil {
			convs = make(map[int]*primitive.Conversion)
		}

		convs[j] = conv
	}

	return convs
}

func (rc *ruleCompiler) semantic(r *mapping.Rule, to *pathtree.Path, msg string) *diagnostic.SemanticError {
	return &diagnostic.SemanticError{
		RuleID: r.ID,
		Chain:  to.Chain.Raw(),
		Token:  to.Chain.Len() - 1,
		Field:  field(rc.b.target, to.Stem),
		Msg:    msg,
	}
}

// field names the Go field of node id, or of the collection a member node
// belongs to.
func field(t *pathtree.Tree, id pathtree.NodeID) string {
	n := t.Node(id)
	if n.IsMember() {
		n = t.Node(n.Parent)
	}

	return n.Field
}

func overrides(in []mapping.Override) []pathtree.Override {
	out := make([]pathtree.Override, len(in))
	for i, ov := range in {
		out[i] = pathtree.Override(ov)
	}

	return out
}
